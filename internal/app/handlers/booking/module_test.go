package booking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/dto"
	bookingapp "hotelbook/internal/app/handlers/booking"
	"hotelbook/internal/app/middleware"
	"hotelbook/internal/app/queries"
	domainaccount "hotelbook/internal/domain/account"
	domainbooking "hotelbook/internal/domain/booking"
	domainproperty "hotelbook/internal/domain/property"
	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/money"
	"hotelbook/internal/infra/payments"
	"hotelbook/internal/infra/storage/memory"
	"hotelbook/internal/infra/validation"
)

const (
	propertyID = "hotel-1"
	managerID  = "manager-1"
	guestID    = "guest-1"
	platformID = "platform"
	nightly    = 5000
)

var clock = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type harness struct {
	store    *memory.Store
	box      *memory.Outbox
	gateway  *payments.MockGateway
	verifier *payments.HMACVerifier
	commands commands.Bus
	queries  queries.Bus
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return buildHarness(t, true)
}

// buildHarness seeds two properties with their managers and guests; the
// platform wallet is optional so settlement failures can be staged.
func buildHarness(t *testing.T, withPlatform bool) *harness {
	t.Helper()
	store := memory.NewStore()
	store.Properties.Put(&domainproperty.Property{
		ID:          propertyID,
		ManagerID:   managerID,
		Name:        "Lake View",
		NightlyRate: money.Must(nightly, "INR"),
		Listed:      true,
		Availability: []domainproperty.AvailabilityEntry{
			{Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), IsAvailable: false},
		},
	})
	store.Properties.Put(&domainproperty.Property{ID: "hotel-2", ManagerID: "manager-2", Name: "Hill Top", NightlyRate: money.Must(3000, "INR")})
	store.Accounts.Put(domainaccount.Account{Ref: domainaccount.Guest(guestID), Name: "Asha", Wallet: money.Must(20000, "INR")})
	store.Accounts.Put(domainaccount.Account{Ref: domainaccount.Guest("guest-2"), Name: "Ravi", Wallet: money.Must(100, "INR")})
	store.Accounts.Put(domainaccount.Account{Ref: domainaccount.Manager(managerID), Wallet: money.Zero("INR"), PropertyIDs: []string{propertyID}})
	store.Accounts.Put(domainaccount.Account{Ref: domainaccount.Manager("manager-2"), Wallet: money.Zero("INR"), PropertyIDs: []string{"hotel-2"}})
	if withPlatform {
		store.Accounts.Put(domainaccount.Account{Ref: domainaccount.Platform(platformID), Wallet: money.Zero("INR")})
	}

	verifier, err := payments.NewHMACVerifier("test-secret")
	require.NoError(t, err)

	h := &harness{store: store, box: memory.NewRelayOutbox(), gateway: payments.NewMockGateway(), verifier: verifier}
	factory := store.Factory()
	cmdBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	bookingapp.Module{
		Env: bookingapp.Env{
			UoWFactory: factory,
			Outbox:     h.box,
			Policy:     domainbooking.DefaultRevenuePolicy(),
			Currency:   "INR",
			Now:        func() time.Time { return clock },
		},
		Gateway:           h.gateway,
		Verifier:          verifier,
		PlatformAccountID: platformID,
	}.Register(cmdBus, queryBus)

	v := validation.New()
	h.commands = middleware.ChainCommands(cmdBus,
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Validation(v),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
		middleware.Transaction(factory, middleware.CommandTxOptions),
		middleware.OutboxFlush(h.box, nil),
	)
	h.queries = middleware.ChainQueries(queryBus,
		middleware.QueryAuthorization(middleware.RoleAuthorizer{}),
		middleware.QueryValidation(v),
	)
	return h
}

func as(id, role string) context.Context {
	return middleware.ContextWithActor(context.Background(), middleware.Actor{ID: id, Role: role})
}

func stayCommand(option string) bookingapp.CreateBookingCommand {
	return bookingapp.CreateBookingCommand{
		PropertyID:    propertyID,
		GuestID:       guestID,
		CheckIn:       "2026-03-10",
		CheckOut:      "2026-03-12",
		Guests:        2,
		TotalPrice:    2 * nightly,
		PaymentOption: option,
		Guest:         bookingapp.GuestDetails{Name: "Asha", Email: "asha@example.com", Phone: "9999999999"},
	}
}

func (h *harness) create(t *testing.T, cmd bookingapp.CreateBookingCommand) *bookingapp.CreateBookingResult {
	t.Helper()
	res, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](as(cmd.GuestID, "guest"), h.commands, cmd)
	require.NoError(t, err)
	return res
}

func (h *harness) verify(t *testing.T, res *bookingapp.CreateBookingResult, paymentID string) (*dto.BookingDTO, error) {
	t.Helper()
	cmd := bookingapp.VerifyPaymentCommand{
		BookingID: res.Booking.ID,
		GuestID:   guestID,
		OrderID:   res.OrderID,
		PaymentID: paymentID,
		Signature: h.verifier.Sign(res.OrderID, paymentID),
	}
	return commands.Dispatch[bookingapp.VerifyPaymentCommand, *dto.BookingDTO](as(guestID, "guest"), h.commands, cmd)
}

func (h *harness) wallet(t *testing.T, ref domainaccount.Ref) int64 {
	t.Helper()
	acc, err := h.store.Accounts.ByID(context.Background(), ref)
	require.NoError(t, err)
	return acc.Wallet.Amount
}

func (h *harness) booking(t *testing.T, id string) *domainbooking.Booking {
	t.Helper()
	b, err := h.store.Bookings.ByID(context.Background(), domainbooking.BookingID(id))
	require.NoError(t, err)
	return b
}

func (h *harness) eventNames() []string {
	var names []string
	for _, rec := range h.box.Pending() {
		names = append(names, rec.Name)
	}
	return names
}

func TestCreateBookingFullPayment(t *testing.T) {
	h := newHarness(t)

	res := h.create(t, stayCommand("full"))

	assert.NotEmpty(t, res.OrderID)
	assert.Equal(t, int64(10000), res.AmountPaid.Amount)
	assert.Equal(t, int64(0), res.RemainingAmount.Amount)
	assert.Equal(t, string(domainbooking.StatusPending), res.Booking.Status)
	assert.Equal(t, res.OrderID, res.Booking.Payment.OrderID)
	assert.Equal(t, int64(2000), res.Booking.Revenue.PlatformShare.Amount)
	assert.Equal(t, int64(8000), res.Booking.Revenue.ManagerShare.Amount)
	assert.Equal(t, 2, res.Booking.Nights)

	orders := h.gateway.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, res.Booking.ID, orders[0].Receipt)
	assert.Equal(t, []string{domainbooking.EventBookingCreated, domainbooking.EventPaymentOrderOpened}, h.eventNames())

	claims, err := h.store.Claims.ByProperty(context.Background(), propertyID)
	require.NoError(t, err)
	assert.Len(t, claims, 3, "check-in, middle night and check-out day are claimed")
}

func TestCreateBookingPartialPayment(t *testing.T) {
	h := newHarness(t)

	res := h.create(t, stayCommand("partial"))

	assert.Equal(t, int64(2000), res.AmountPaid.Amount)
	assert.Equal(t, int64(8000), res.RemainingAmount.Amount)
	assert.Equal(t, int64(2000), h.gateway.Orders()[0].Amount.Amount)
}

func TestCreateBookingUsesServerQuote(t *testing.T) {
	h := newHarness(t)
	cmd := stayCommand("full")
	cmd.TotalPrice = 1

	res := h.create(t, cmd)

	assert.Equal(t, int64(10000), res.Booking.TotalPrice.Amount)
}

func TestCreateBookingRejectsOverlaps(t *testing.T) {
	h := newHarness(t)
	h.create(t, stayCommand("full"))

	cmd := stayCommand("full")
	cmd.GuestID = "guest-2"
	cmd.CheckIn, cmd.CheckOut = "2026-03-12", "2026-03-14"
	_, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](as("guest-2", "guest"), h.commands, cmd)

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict), "a stay starting on the previous check-out day conflicts")
}

func TestCreateBookingRejectsUnavailableDates(t *testing.T) {
	h := newHarness(t)
	cmd := stayCommand("full")
	cmd.CheckIn, cmd.CheckOut = "2026-03-30", "2026-04-02"

	_, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](as(guestID, "guest"), h.commands, cmd)

	require.Error(t, err)
	assert.ErrorIs(t, err, bookingapp.ErrDatesUnavailable)
	assert.Empty(t, h.gateway.Orders())
}

func TestCreateBookingConcurrentRequestsOneWins(t *testing.T) {
	h := newHarness(t)
	const attempts = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](as(guestID, "guest"), h.commands, stayCommand("full"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if apperr.IsKind(err, apperr.KindConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	stored, err := h.store.Bookings.ListByGuest(context.Background(), guestID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCreateBookingValidation(t *testing.T) {
	h := newHarness(t)

	cmd := stayCommand("full")
	cmd.CheckOut = "2026-03-09"
	_, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](as(guestID, "guest"), h.commands, cmd)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	cmd = stayCommand("monthly")
	_, err = commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](as(guestID, "guest"), h.commands, cmd)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	cmd = stayCommand("full")
	cmd.Guest.Email = "not-an-email"
	_, err = commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](as(guestID, "guest"), h.commands, cmd)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateBookingAuthorization(t *testing.T) {
	h := newHarness(t)

	_, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](context.Background(), h.commands, stayCommand("full"))
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	_, err = commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](as(managerID, "manager"), h.commands, stayCommand("full"))
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestCreateBookingIdempotencyKeyReplays(t *testing.T) {
	h := newHarness(t)
	cmd := stayCommand("full")
	cmd.IdempotencyKeyV = "req-1"

	first := h.create(t, cmd)
	second := h.create(t, cmd)

	assert.Equal(t, first.Booking.ID, second.Booking.ID)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Len(t, h.gateway.Orders(), 1)
}

func TestGatewayOutageLeavesBookingPending(t *testing.T) {
	h := newHarness(t)
	h.gateway.Fail = true

	_, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](as(guestID, "guest"), h.commands, stayCommand("full"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindDependency))

	stored, err := h.store.Bookings.ListByGuest(context.Background(), guestID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domainbooking.StatusPending, stored[0].Status)
	assert.Empty(t, stored[0].Payment.OrderID)

	h.gateway.Fail = false
	res, err := commands.Dispatch[bookingapp.OpenPaymentOrderCommand, *bookingapp.CreateBookingResult](as(guestID, "guest"),
		h.commands, bookingapp.OpenPaymentOrderCommand{BookingID: string(stored[0].ID), GuestID: guestID})
	require.NoError(t, err)
	assert.NotEmpty(t, res.OrderID)
	assert.Equal(t, res.OrderID, h.booking(t, string(stored[0].ID)).Payment.OrderID)
}

func TestVerifyPaymentSettles(t *testing.T) {
	h := newHarness(t)
	res := h.create(t, stayCommand("full"))

	out, err := h.verify(t, res, "pay_1")
	require.NoError(t, err)

	assert.Equal(t, string(domainbooking.StatusCompleted), out.Status)
	assert.True(t, out.Settlement.Done)
	assert.Equal(t, "pay_1", out.Payment.TransactionID)
	assert.Equal(t, int64(7000), out.Revenue.ManagerShare.Amount)
	assert.Equal(t, int64(3000), out.Revenue.PlatformShare.Amount)
	assert.Equal(t, int64(7000), h.wallet(t, domainaccount.Manager(managerID)))
	assert.Equal(t, int64(0), h.wallet(t, domainaccount.Platform(platformID)), "gateway settlements leave the platform wallet alone")

	prop, err := h.store.Properties.ByID(context.Background(), propertyID)
	require.NoError(t, err)
	dr := h.booking(t, res.Booking.ID).Range
	assert.Len(t, prop.UnavailableDays(dr), 2, "booked nights are blocked, the check-out day is not")
	assert.Contains(t, h.eventNames(), "availability.dates_blocked")
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	h := newHarness(t)
	res := h.create(t, stayCommand("full"))

	_, err := h.verify(t, res, "pay_1")
	require.NoError(t, err)
	out, err := h.verify(t, res, "pay_1")
	require.NoError(t, err)

	assert.Equal(t, string(domainbooking.StatusCompleted), out.Status)
	assert.Equal(t, int64(7000), h.wallet(t, domainaccount.Manager(managerID)))

	_, err = h.verify(t, res, "pay_2")
	assert.ErrorIs(t, err, domainbooking.ErrPaymentMismatch)
}

func TestVerifyPaymentSignatureMismatch(t *testing.T) {
	h := newHarness(t)
	res := h.create(t, stayCommand("full"))

	_, err := commands.Dispatch[bookingapp.VerifyPaymentCommand, *dto.BookingDTO](as(guestID, "guest"), h.commands, bookingapp.VerifyPaymentCommand{
		BookingID: res.Booking.ID,
		GuestID:   guestID,
		OrderID:   res.OrderID,
		PaymentID: "pay_1",
		Signature: "deadbeef",
	})

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindSignatureMismatch))
	assert.Equal(t, domainbooking.StatusPending, h.booking(t, res.Booking.ID).Status)
	assert.Equal(t, int64(0), h.wallet(t, domainaccount.Manager(managerID)))
}

func TestVerifyPaymentRejectsForeignOrder(t *testing.T) {
	h := newHarness(t)
	res := h.create(t, stayCommand("full"))
	res.OrderID = "order_other"

	_, err := h.verify(t, res, "pay_1")

	assert.ErrorIs(t, err, bookingapp.ErrOrderMismatch)
}

func TestWalletPayment(t *testing.T) {
	h := newHarness(t)
	res := h.create(t, stayCommand("full"))

	out, err := commands.Dispatch[bookingapp.WalletPaymentCommand, *dto.BookingDTO](as(guestID, "guest"), h.commands,
		bookingapp.WalletPaymentCommand{BookingID: res.Booking.ID, GuestID: guestID, Amount: 10000})
	require.NoError(t, err)

	assert.Equal(t, string(domainbooking.StatusCompleted), out.Status)
	assert.Equal(t, string(domainbooking.MethodWallet), out.Payment.Method)
	assert.True(t, out.Settlement.Done)
	assert.Equal(t, int64(10000), h.wallet(t, domainaccount.Guest(guestID)))
	assert.Equal(t, int64(8000), h.wallet(t, domainaccount.Manager(managerID)))
	assert.Equal(t, int64(2000), h.wallet(t, domainaccount.Platform(platformID)))

	_, err = commands.Dispatch[bookingapp.WalletPaymentCommand, *dto.BookingDTO](as(guestID, "guest"), h.commands,
		bookingapp.WalletPaymentCommand{BookingID: res.Booking.ID, GuestID: guestID, Amount: 10000})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, int64(10000), h.wallet(t, domainaccount.Guest(guestID)), "a settled booking is never charged twice")
}

func TestWalletPaymentInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	cmd := stayCommand("full")
	cmd.GuestID = "guest-2"
	res := h.create(t, cmd)

	_, err := commands.Dispatch[bookingapp.WalletPaymentCommand, *dto.BookingDTO](as("guest-2", "guest"), h.commands,
		bookingapp.WalletPaymentCommand{BookingID: res.Booking.ID, GuestID: "guest-2", Amount: 10000})

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientFunds))
	assert.Equal(t, int64(100), h.wallet(t, domainaccount.Guest("guest-2")))
	assert.Equal(t, domainbooking.StatusPending, h.booking(t, res.Booking.ID).Status)
}

func TestCancellationApprovedRefundsGuest(t *testing.T) {
	h := newHarness(t)
	res := h.create(t, stayCommand("full"))
	_, err := h.verify(t, res, "pay_1")
	require.NoError(t, err)

	req, err := commands.Dispatch[bookingapp.RequestCancellationCommand, *bookingapp.RequestCancellationResult](as(guestID, "guest"), h.commands,
		bookingapp.RequestCancellationCommand{BookingID: res.Booking.ID, GuestID: guestID, Reason: "plans changed"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusCancellationPending), req.Booking.Status)

	approved, err := commands.Dispatch[bookingapp.ApproveCancellationCommand, *bookingapp.ApproveCancellationResult](as(managerID, "manager"), h.commands,
		bookingapp.ApproveCancellationCommand{BookingID: res.Booking.ID, ManagerID: managerID})
	require.NoError(t, err)

	assert.Equal(t, 100.0, approved.RefundPercentage)
	assert.Equal(t, int64(10000), approved.RefundAmount.Amount)
	assert.Equal(t, int64(30000), h.wallet(t, domainaccount.Guest(guestID)))
	assert.Equal(t, int64(7000-8000), h.wallet(t, domainaccount.Manager(managerID)))
	assert.Equal(t, int64(-2000), h.wallet(t, domainaccount.Platform(platformID)))
	assert.Equal(t, domainbooking.StatusApproved, h.booking(t, res.Booking.ID).Status)

	_, err = commands.Dispatch[bookingapp.ApproveCancellationCommand, *bookingapp.ApproveCancellationResult](as(managerID, "manager"), h.commands,
		bookingapp.ApproveCancellationCommand{BookingID: res.Booking.ID, ManagerID: managerID})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, int64(30000), h.wallet(t, domainaccount.Guest(guestID)))
}

func TestCancellationOfUnpaidBookingMovesNoMoney(t *testing.T) {
	h := newHarness(t)
	res := h.create(t, stayCommand("partial"))
	require.Equal(t, string(domainbooking.StatusPending), res.Booking.Status)

	_, err := commands.Dispatch[bookingapp.RequestCancellationCommand, *bookingapp.RequestCancellationResult](as(guestID, "guest"), h.commands,
		bookingapp.RequestCancellationCommand{BookingID: res.Booking.ID, GuestID: guestID, Reason: "plans changed"})
	require.NoError(t, err)
	approved, err := commands.Dispatch[bookingapp.ApproveCancellationCommand, *bookingapp.ApproveCancellationResult](as(managerID, "manager"), h.commands,
		bookingapp.ApproveCancellationCommand{BookingID: res.Booking.ID, ManagerID: managerID})
	require.NoError(t, err)

	assert.Equal(t, int64(0), approved.RefundAmount.Amount)
	assert.Equal(t, 0.0, approved.RefundPercentage)
	assert.Equal(t, int64(20000), h.wallet(t, domainaccount.Guest(guestID)))
	assert.Equal(t, int64(0), h.wallet(t, domainaccount.Manager(managerID)))
	assert.Equal(t, int64(0), h.wallet(t, domainaccount.Platform(platformID)))
	assert.Equal(t, domainbooking.StatusApproved, h.booking(t, res.Booking.ID).Status)
}

func TestCancellationRejected(t *testing.T) {
	h := newHarness(t)
	res := h.create(t, stayCommand("full"))
	_, err := commands.Dispatch[bookingapp.RequestCancellationCommand, *bookingapp.RequestCancellationResult](as(guestID, "guest"), h.commands,
		bookingapp.RequestCancellationCommand{BookingID: res.Booking.ID, GuestID: guestID, Reason: "plans changed"})
	require.NoError(t, err)

	_, err = commands.Dispatch[bookingapp.RejectCancellationCommand, *bookingapp.RejectCancellationResult](as("manager-2", "manager"), h.commands,
		bookingapp.RejectCancellationCommand{BookingID: res.Booking.ID, ManagerID: "manager-2"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "other managers cannot see the booking")

	out, err := commands.Dispatch[bookingapp.RejectCancellationCommand, *bookingapp.RejectCancellationResult](as(managerID, "manager"), h.commands,
		bookingapp.RejectCancellationCommand{BookingID: res.Booking.ID, ManagerID: managerID, Reason: "non refundable"})
	require.NoError(t, err)

	assert.Equal(t, "Cancellation request rejected", out.Message)
	assert.Equal(t, domainbooking.StatusRejected, h.booking(t, res.Booking.ID).Status)
	assert.Equal(t, int64(20000), h.wallet(t, domainaccount.Guest(guestID)))

	list, err := queries.Ask[bookingapp.ListCancellationRequestsQuery, dto.CancellationCollection](as("admin-1", "admin"), h.queries, bookingapp.ListCancellationRequestsQuery{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Rejected", list.Items[0].Status)
}

func TestReadProjections(t *testing.T) {
	h := newHarness(t)
	res := h.create(t, stayCommand("full"))
	_, err := h.verify(t, res, "pay_1")
	require.NoError(t, err)

	mine, err := queries.Ask[bookingapp.ListGuestBookingsQuery, dto.BookingCollection](as(guestID, "guest"), h.queries, bookingapp.ListGuestBookingsQuery{GuestID: guestID})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "Lake View", mine.Items[0].Property.Name)

	_, err = queries.Ask[bookingapp.GetGuestBookingQuery, dto.BookingDTO](as("guest-2", "guest"), h.queries, bookingapp.GetGuestBookingQuery{BookingID: res.Booking.ID, GuestID: "guest-2"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	reservations, err := queries.Ask[bookingapp.ListReservationsQuery, dto.BookingCollection](as(managerID, "manager"), h.queries, bookingapp.ListReservationsQuery{ManagerID: managerID})
	require.NoError(t, err)
	assert.Len(t, reservations.Items, 1)

	admin, err := queries.Ask[bookingapp.AdminTransactionsQuery, dto.TransactionCollection](as("admin-1", "admin"), h.queries, bookingapp.AdminTransactionsQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), admin.Revenue.Amount)

	managerTx, err := queries.Ask[bookingapp.ManagerTransactionsQuery, dto.TransactionCollection](as(managerID, "manager"), h.queries, bookingapp.ManagerTransactionsQuery{ManagerID: managerID})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), managerTx.Revenue.Amount)

	_, err = queries.Ask[bookingapp.AdminTransactionsQuery, dto.TransactionCollection](as(guestID, "guest"), h.queries, bookingapp.AdminTransactionsQuery{})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestCheckAvailability(t *testing.T) {
	h := newHarness(t)
	ask := func(in, out string) (bookingapp.CheckAvailabilityResult, error) {
		return queries.Ask[bookingapp.CheckAvailabilityQuery, bookingapp.CheckAvailabilityResult](context.Background(), h.queries,
			bookingapp.CheckAvailabilityQuery{PropertyID: propertyID, CheckIn: in, CheckOut: out})
	}

	free, err := ask("2026-03-10", "2026-03-12")
	require.NoError(t, err)
	assert.True(t, free.IsAvailable)

	h.create(t, stayCommand("partial"))

	taken, err := ask("2026-03-11", "2026-03-15")
	require.NoError(t, err)
	assert.False(t, taken.IsAvailable, "pending bookings hold their dates")

	_, err = ask("2026-03-15", "2026-03-11")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestReconcileFinishesInterruptedSettlement(t *testing.T) {
	h := buildHarness(t, false)
	res := h.create(t, stayCommand("full"))

	_, err := commands.Dispatch[bookingapp.WalletPaymentCommand, *dto.BookingDTO](as(guestID, "guest"), h.commands,
		bookingapp.WalletPaymentCommand{BookingID: res.Booking.ID, GuestID: guestID, Amount: 10000})
	require.Error(t, err, "the platform wallet is missing")

	b := h.booking(t, res.Booking.ID)
	assert.Equal(t, domainbooking.StatusCompleted, b.Status)
	assert.True(t, b.Settlement.DatesBlocked)
	assert.True(t, b.Settlement.ManagerCredited)
	assert.False(t, b.Settlement.Done)

	h.store.Accounts.Put(domainaccount.Account{Ref: domainaccount.Platform(platformID), Wallet: money.Zero("INR")})
	require.NoError(t, bookingapp.ReconcileJob(h.commands, 10)(context.Background()))

	b = h.booking(t, res.Booking.ID)
	assert.True(t, b.Settlement.Done)
	assert.Equal(t, int64(2000), h.wallet(t, domainaccount.Platform(platformID)))
	assert.Equal(t, int64(8000), h.wallet(t, domainaccount.Manager(managerID)), "the manager is credited once")
	assert.Equal(t, int64(10000), h.wallet(t, domainaccount.Guest(guestID)))
}

func TestReconcileRequiresSystemActor(t *testing.T) {
	h := newHarness(t)

	_, err := commands.Dispatch[bookingapp.ReconcileSettlementsCommand, *bookingapp.ReconcileResult](as("admin-1", "admin"), h.commands,
		bookingapp.ReconcileSettlementsCommand{})

	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}
