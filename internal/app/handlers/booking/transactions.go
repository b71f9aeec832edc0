package booking

import (
	"context"

	"hotelbook/internal/app/dto"
	"hotelbook/internal/app/handlers/support"
	"hotelbook/internal/app/queries"
	domainaccount "hotelbook/internal/domain/account"
	domainbooking "hotelbook/internal/domain/booking"
	"hotelbook/internal/domain/shared/money"
)

const (
	adminTransactionsKey   = "admin.transactions.list"
	managerTransactionsKey = "manager.transactions.list"
	guestTransactionsKey   = "me.transactions.list"
)

type AdminTransactionsQuery struct{}

func (q AdminTransactionsQuery) Key() string { return adminTransactionsKey }

func (q AdminTransactionsQuery) AllowedRoles() []string { return roleAdmin }

// AdminTransactionsHandler reports platform revenue from completed bookings.
type AdminTransactionsHandler struct {
	Env
}

func (h *AdminTransactionsHandler) Handle(ctx context.Context, _ AdminTransactionsQuery) (dto.TransactionCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().ListByStatus(execCtx, domainbooking.StatusCompleted)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	props := newPropertyCache(unit)
	out := dto.TransactionCollection{Items: make([]dto.TransactionDTO, 0, len(bookings))}
	total := money.Zero(h.currency())
	for _, b := range bookings {
		prop, err := props.get(execCtx, b.PropertyID)
		if err != nil {
			return dto.TransactionCollection{}, err
		}
		out.Items = append(out.Items, dto.MapTransaction(b, prop, func(b *domainbooking.Booking) dto.MoneyDTO {
			return dto.MapMoney(b.Revenue.PlatformShare)
		}))
		total.Amount += b.Revenue.PlatformShare.Amount
	}
	out.Revenue = dto.MapMoney(total)
	return out, nil
}

type ManagerTransactionsQuery struct {
	ManagerID string `validate:"required"`
}

func (q ManagerTransactionsQuery) Key() string { return managerTransactionsKey }

func (q ManagerTransactionsQuery) AllowedRoles() []string { return roleManager }

// ManagerTransactionsHandler reports manager revenue; cancelled bookings show a zero total.
type ManagerTransactionsHandler struct {
	Env
}

func (h *ManagerTransactionsHandler) Handle(ctx context.Context, q ManagerTransactionsQuery) (dto.TransactionCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	if _, err := unit.Accounts().ByID(execCtx, domainaccount.Manager(q.ManagerID)); err != nil {
		return dto.TransactionCollection{}, err
	}
	props, err := unit.Properties().ListByManager(execCtx, q.ManagerID)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	bookings, err := unit.Bookings().ListByProperties(execCtx, propertyIDs(props), domainbooking.StatusCompleted, domainbooking.StatusCancelled)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	byID := indexProperties(props)
	out := dto.TransactionCollection{Items: make([]dto.TransactionDTO, 0, len(bookings))}
	total := money.Zero(h.currency())
	for _, b := range bookings {
		row := dto.MapTransaction(b, byID[b.PropertyID], func(b *domainbooking.Booking) dto.MoneyDTO {
			return dto.MapMoney(b.Revenue.ManagerShare)
		})
		if b.Status == domainbooking.StatusCancelled {
			row.Total = dto.MapMoney(money.Zero(b.TotalPrice.Currency))
		} else {
			total.Amount += b.Revenue.ManagerShare.Amount
		}
		out.Items = append(out.Items, row)
	}
	out.Revenue = dto.MapMoney(total)
	return out, nil
}

type GuestTransactionsQuery struct {
	GuestID string `validate:"required"`
}

func (q GuestTransactionsQuery) Key() string { return guestTransactionsKey }

func (q GuestTransactionsQuery) AllowedRoles() []string { return roleGuest }

type GuestTransactionsHandler struct {
	Env
}

func (h *GuestTransactionsHandler) Handle(ctx context.Context, q GuestTransactionsQuery) (dto.WalletStatement, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.WalletStatement{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	ref := domainaccount.Guest(q.GuestID)
	acc, err := unit.Accounts().ByID(execCtx, ref)
	if err != nil {
		return dto.WalletStatement{}, err
	}
	entries, err := unit.Accounts().Entries(execCtx, ref)
	if err != nil {
		return dto.WalletStatement{}, err
	}
	out := dto.WalletStatement{Balance: dto.MapMoney(acc.Wallet), Entries: make([]dto.WalletEntryDTO, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, dto.MapWalletEntry(e))
	}
	return out, nil
}

var (
	_ queries.Handler[AdminTransactionsQuery, dto.TransactionCollection]   = (*AdminTransactionsHandler)(nil)
	_ queries.Handler[ManagerTransactionsQuery, dto.TransactionCollection] = (*ManagerTransactionsHandler)(nil)
	_ queries.Handler[GuestTransactionsQuery, dto.WalletStatement]         = (*GuestTransactionsHandler)(nil)
)
