package booking

import (
	"context"
	"errors"
	"fmt"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/handlers/support"
	"hotelbook/internal/app/middleware"
	"hotelbook/internal/app/schedule"
	"hotelbook/internal/app/uow"
	domainbooking "hotelbook/internal/domain/booking"
)

const (
	reconcileSettlementsKey = "booking.reconcile_settlements"
	defaultReconcileBatch   = 100
)

// ReconcileSettlementsCommand finishes settlements interrupted after payment.
type ReconcileSettlementsCommand struct {
	Limit int
}

func (c ReconcileSettlementsCommand) Key() string { return reconcileSettlementsKey }

func (c ReconcileSettlementsCommand) TxOptions() uow.TxOptions { return uow.TxOptions{SelfManaged: true} }

func (c ReconcileSettlementsCommand) AllowedRoles() []string { return roleSystem }

type ReconcileResult struct {
	Scanned int `json:"scanned"`
	Settled int `json:"settled"`
	Failed  int `json:"failed"`
}

type ReconcileSettlementsHandler struct {
	Env
	Settler *Settler
}

func (h *ReconcileSettlementsHandler) Handle(ctx context.Context, cmd ReconcileSettlementsCommand) (*ReconcileResult, error) {
	limit := cmd.Limit
	if limit <= 0 {
		limit = defaultReconcileBatch
	}
	var pending []*domainbooking.Booking
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		pending, err = unit.Bookings().ListUnsettled(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{Scanned: len(pending)}
	var errs []error
	for _, candidate := range pending {
		// each booking settles in its own unit so one failure does not block the batch
		err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
			b, err := unit.Bookings().ByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			return h.Settler.Settle(ctx, unit, b)
		})
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("booking %s: %w", candidate.ID, err))
			continue
		}
		result.Settled++
	}
	if result.Scanned > 0 {
		h.logger().Info("settlement reconciliation finished", "scanned", result.Scanned, "settled", result.Settled, "failed", result.Failed)
	}
	if len(errs) > 0 {
		h.logger().Warn("settlement reconciliation incomplete", "error", errors.Join(errs...))
	}
	return result, nil
}

var _ commands.Handler[ReconcileSettlementsCommand, *ReconcileResult] = (*ReconcileSettlementsHandler)(nil)

// ReconcileJob dispatches ReconcileSettlementsCommand as the settlement reconciler.
func ReconcileJob(bus commands.Bus, limit int) schedule.Job {
	actor := middleware.Actor{ID: "settlement-reconciler", Role: middleware.RoleSystem}
	return func(ctx context.Context) error {
		ctx = middleware.ContextWithActor(ctx, actor)
		_, err := commands.Dispatch[ReconcileSettlementsCommand, *ReconcileResult](ctx, bus, ReconcileSettlementsCommand{Limit: limit})
		return err
	}
}
