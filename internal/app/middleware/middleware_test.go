package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/middleware"
	"hotelbook/internal/app/outbox"
	"hotelbook/internal/app/queries"
	"hotelbook/internal/app/uow"
	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/infra/storage/memory"
	"hotelbook/internal/infra/validation"
)

type chargeCommand struct {
	GuestID string `validate:"required"`
	Amount  int64  `validate:"gt=0"`
	IdemKey string
	From    string
	To      string
}

func (chargeCommand) Key() string { return "test.charge" }
func (chargeCommand) AllowedRoles() []string { return []string{"guest"} }
func (c chargeCommand) IdempotencyKey() string { return c.IdemKey }
func (chargeCommand) ResultPrototype() any { return &chargeResult{} }

func (c chargeCommand) Check() error {
	if c.From != "" && c.To != "" && c.To <= c.From {
		return errors.New("to must follow from")
	}
	return nil
}

type chargeResult struct {
	Receipt string `json:"receipt"`
}

type selfManagedCommand struct{}

func (selfManagedCommand) Key() string { return "test.self_managed" }
func (selfManagedCommand) TxOptions() uow.TxOptions {
	return uow.TxOptions{SelfManaged: true}
}

type pingQuery struct{}

func (pingQuery) Key() string { return "test.ping" }
func (pingQuery) AllowedRoles() []string { return []string{"admin"} }

func guest() context.Context {
	return middleware.ContextWithActor(context.Background(), middleware.Actor{ID: "guest-1", Role: "guest"})
}

func countingBus(calls *int, result any, err error) commands.Bus {
	bus := commands.NewInMemoryBus()
	handler := func(ctx context.Context, _ commands.Command) (any, error) {
		*calls++
		return result, err
	}
	bus.RegisterRaw("test.charge", handler)
	bus.RegisterRaw("test.self_managed", handler)
	return bus
}

type recordingUnit struct {
	uow.UnitOfWork
	committed  bool
	rolledBack bool
}

func (u *recordingUnit) Commit(context.Context) error { u.committed = true; return nil }
func (u *recordingUnit) Rollback(context.Context) error { u.rolledBack = true; return nil }

type recordingFactory struct {
	units []*recordingUnit
}

func (f *recordingFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	u := &recordingUnit{}
	f.units = append(f.units, u)
	return u, nil
}

func TestChainRunsFirstMiddlewareOutermost(t *testing.T) {
	var order []string
	trace := func(name string) middleware.CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return traceBus{name: name, next: next, order: &order}
		}
	}
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls, nil, nil), trace("outer"), trace("inner"))

	_, err := bus.Dispatch(guest(), chargeCommand{GuestID: "guest-1", Amount: 1})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, 1, calls)
}

type traceBus struct {
	name  string
	next  commands.Bus
	order *[]string
}

func (b traceBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	*b.order = append(*b.order, b.name)
	return b.next.Dispatch(ctx, cmd)
}

func TestAuthorizationRequiresRole(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls, nil, nil), middleware.Authorization(middleware.RoleAuthorizer{}))
	cmd := chargeCommand{GuestID: "guest-1", Amount: 1}

	_, err := bus.Dispatch(context.Background(), cmd)
	assert.ErrorIs(t, err, middleware.ErrUnauthenticated)

	manager := middleware.ContextWithActor(context.Background(), middleware.Actor{ID: "manager-1", Role: "manager"})
	_, err = bus.Dispatch(manager, cmd)
	assert.ErrorIs(t, err, middleware.ErrForbidden)

	system := middleware.ContextWithActor(context.Background(), middleware.Actor{ID: "cron", Role: middleware.RoleSystem})
	_, err = bus.Dispatch(system, cmd)
	require.NoError(t, err)

	_, err = bus.Dispatch(guest(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestQueryAuthorization(t *testing.T) {
	base := queries.NewInMemoryBus()
	base.RegisterRaw("test.ping", func(context.Context, queries.Query) (any, error) { return "pong", nil })
	bus := middleware.ChainQueries(base, middleware.QueryAuthorization(middleware.RoleAuthorizer{}))

	_, err := bus.Ask(guest(), pingQuery{})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	admin := middleware.ContextWithActor(context.Background(), middleware.Actor{ID: "admin-1", Role: "admin"})
	res, err := bus.Ask(admin, pingQuery{})
	require.NoError(t, err)
	assert.Equal(t, "pong", res)
}

func TestValidationRunsTagsThenSelfCheck(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls, nil, nil), middleware.Validation(validation.New()))

	_, err := bus.Dispatch(guest(), chargeCommand{Amount: 1})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "missing guest: %v", err)

	_, err = bus.Dispatch(guest(), chargeCommand{GuestID: "guest-1", Amount: 1, From: "2026-03-12", To: "2026-03-10"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "self check: %v", err)
	assert.Contains(t, err.Error(), "to must follow from")

	_, err = bus.Dispatch(guest(), chargeCommand{GuestID: "guest-1", Amount: 1, From: "2026-03-10", To: "2026-03-12"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(
		countingBus(&calls, &chargeResult{Receipt: "r-1"}, nil),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
	)
	cmd := chargeCommand{GuestID: "guest-1", Amount: 1, IdemKey: "abc"}

	first, err := commands.Dispatch[chargeCommand, *chargeResult](guest(), bus, cmd)
	require.NoError(t, err)
	second, err := commands.Dispatch[chargeCommand, *chargeResult](guest(), bus, cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Receipt, second.Receipt)

	cmd.IdemKey = ""
	_, err = bus.Dispatch(guest(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyRejectsKeyReuseAndScopesByActor(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(
		countingBus(&calls, &chargeResult{Receipt: "r-1"}, nil),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
	)
	cmd := chargeCommand{GuestID: "guest-1", Amount: 1, IdemKey: "abc"}
	_, err := bus.Dispatch(guest(), cmd)
	require.NoError(t, err)

	changed := cmd
	changed.Amount = 2
	_, err = bus.Dispatch(guest(), changed)
	assert.ErrorIs(t, err, middleware.ErrIdempotencyKeyReused)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	other := middleware.ContextWithActor(context.Background(), middleware.Actor{ID: "guest-2", Role: "guest"})
	_, err = bus.Dispatch(other, changed)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyDoesNotCacheFailures(t *testing.T) {
	calls := 0
	failing := errors.New("gateway down")
	bus := middleware.ChainCommands(
		countingBus(&calls, nil, failing),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
	)
	cmd := chargeCommand{GuestID: "guest-1", Amount: 1, IdemKey: "retry"}

	_, err := bus.Dispatch(guest(), cmd)
	assert.ErrorIs(t, err, failing)
	_, err = bus.Dispatch(guest(), cmd)
	assert.ErrorIs(t, err, failing)
	assert.Equal(t, 2, calls)
}

func TestTransactionCommitsOrRollsBack(t *testing.T) {
	factory := &recordingFactory{}
	calls := 0
	ok := middleware.ChainCommands(countingBus(&calls, nil, nil), middleware.Transaction(factory, middleware.CommandTxOptions))
	_, err := ok.Dispatch(guest(), chargeCommand{})
	require.NoError(t, err)

	failing := middleware.ChainCommands(countingBus(&calls, nil, errors.New("boom")), middleware.Transaction(factory, middleware.CommandTxOptions))
	_, err = failing.Dispatch(guest(), chargeCommand{})
	require.Error(t, err)

	require.Len(t, factory.units, 2)
	assert.True(t, factory.units[0].committed)
	assert.False(t, factory.units[0].rolledBack)
	assert.False(t, factory.units[1].committed)
	assert.True(t, factory.units[1].rolledBack)
}

func TestTransactionSkipsSelfManagedCommands(t *testing.T) {
	factory := &recordingFactory{}
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls, nil, nil), middleware.Transaction(factory, middleware.CommandTxOptions))

	_, err := bus.Dispatch(guest(), selfManagedCommand{})

	require.NoError(t, err)
	assert.Empty(t, factory.units)
	assert.Equal(t, 1, calls)
}

func TestOutboxFlushOnlyAfterSuccess(t *testing.T) {
	box := memory.NewRelayOutbox()
	record := func(ctx context.Context, _ commands.Command) (any, error) {
		return nil, box.Add(ctx, outbox.EventRecord{ID: "evt-1", Name: "booking.confirmed"})
	}
	base := commands.NewInMemoryBus()
	base.RegisterRaw("test.charge", record)
	base.RegisterRaw("test.self_managed", func(context.Context, commands.Command) (any, error) {
		return nil, errors.New("boom")
	})
	bus := middleware.ChainCommands(base, middleware.OutboxFlush(box, nil))

	_, err := bus.Dispatch(guest(), selfManagedCommand{})
	require.Error(t, err)
	assert.Empty(t, box.Pending())

	_, err = bus.Dispatch(guest(), chargeCommand{})
	require.NoError(t, err)
	require.Len(t, box.Pending(), 1)
	assert.Equal(t, "booking.confirmed", box.Pending()[0].Name)
}

func TestLoggingLevelsFollowErrorKind(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	calls := 0

	rejected := middleware.ChainCommands(countingBus(&calls, nil, middleware.ErrForbidden), middleware.Logging(logger))
	_, _ = rejected.Dispatch(guest(), chargeCommand{})
	assert.Contains(t, buf.String(), "level=INFO msg=\"dispatch rejected\"")
	assert.Contains(t, buf.String(), "actor_id=guest-1")

	buf.Reset()
	broken := middleware.ChainCommands(countingBus(&calls, nil, errors.New("disk full")), middleware.Logging(logger))
	_, _ = broken.Dispatch(guest(), chargeCommand{})
	assert.Contains(t, buf.String(), "level=ERROR msg=\"dispatch failed\"")
}

type brokenOutbox struct{}

func (brokenOutbox) Add(context.Context, outbox.EventRecord) error { return nil }
func (brokenOutbox) Flush(context.Context) error { return errors.New("broker unreachable") }

func TestOutboxFlushFailureKeepsCommandResult(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls, &chargeResult{Receipt: "r-9"}, nil), middleware.OutboxFlush(brokenOutbox{}, nil))

	res, err := commands.Dispatch[chargeCommand, *chargeResult](guest(), bus, chargeCommand{})

	require.NoError(t, err)
	assert.Equal(t, "r-9", res.Receipt)
}
