package booking

import (
	"time"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/policies"
	"hotelbook/internal/app/queries"
)

// Module wires every booking handler onto the buses.
type Module struct {
	Env
	Gateway           policies.PaymentGateway
	GatewayTimeout    time.Duration
	Verifier          policies.SignatureVerifier
	Locker            policies.Locker
	PlatformAccountID string
	TrustClientPrice  bool
}

func (m Module) Settler() *Settler {
	return &Settler{Env: m.Env, PlatformAccountID: m.PlatformAccountID}
}

func (m Module) Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus) {
	settler := m.Settler()

	commands.RegisterHandler(cmdBus, createBookingKey, &CreateBookingHandler{
		Env:              m.Env,
		Gateway:          m.Gateway,
		GatewayTimeout:   m.GatewayTimeout,
		Locker:           m.Locker,
		TrustClientPrice: m.TrustClientPrice,
	})
	commands.RegisterHandler(cmdBus, openPaymentOrderKey, &OpenPaymentOrderHandler{
		Env:            m.Env,
		Gateway:        m.Gateway,
		GatewayTimeout: m.GatewayTimeout,
	})
	commands.RegisterHandler(cmdBus, verifyPaymentKey, &VerifyPaymentHandler{Env: m.Env, Verifier: m.Verifier, Settler: settler})
	commands.RegisterHandler(cmdBus, walletPaymentKey, &WalletPaymentHandler{Env: m.Env, Settler: settler})
	commands.RegisterHandler(cmdBus, requestCancellationKey, &RequestCancellationHandler{Env: m.Env})
	commands.RegisterHandler(cmdBus, approveCancellationKey, &ApproveCancellationHandler{Env: m.Env, PlatformAccountID: m.PlatformAccountID})
	commands.RegisterHandler(cmdBus, rejectCancellationKey, &RejectCancellationHandler{Env: m.Env})
	commands.RegisterHandler(cmdBus, reconcileSettlementsKey, &ReconcileSettlementsHandler{Env: m.Env, Settler: settler})

	queries.RegisterHandler(queryBus, checkAvailabilityKey, &CheckAvailabilityHandler{UoWFactory: m.UoWFactory})
	queries.RegisterHandler(queryBus, listGuestBookingsKey, &ListGuestBookingsHandler{Env: m.Env})
	queries.RegisterHandler(queryBus, getGuestBookingKey, &GetGuestBookingHandler{Env: m.Env})
	queries.RegisterHandler(queryBus, listReservationsKey, &ListReservationsHandler{Env: m.Env})
	queries.RegisterHandler(queryBus, getReservationKey, &GetReservationHandler{Env: m.Env})
	queries.RegisterHandler(queryBus, listCancellationRequests, &ListCancellationRequestsHandler{Env: m.Env})
	queries.RegisterHandler(queryBus, adminTransactionsKey, &AdminTransactionsHandler{Env: m.Env})
	queries.RegisterHandler(queryBus, managerTransactionsKey, &ManagerTransactionsHandler{Env: m.Env})
	queries.RegisterHandler(queryBus, guestTransactionsKey, &GuestTransactionsHandler{Env: m.Env})
}
