package booking

import (
	"context"

	"hotelbook/internal/app/dto"
	"hotelbook/internal/app/handlers/support"
	"hotelbook/internal/app/queries"
	domainaccount "hotelbook/internal/domain/account"
	domainproperty "hotelbook/internal/domain/property"
)

const (
	listGuestBookingsKey     = "me.bookings.list"
	getGuestBookingKey       = "me.bookings.get"
	listReservationsKey      = "manager.reservations.list"
	getReservationKey        = "manager.reservations.get"
	listCancellationRequests = "admin.cancellations.list"
)

type ListGuestBookingsQuery struct {
	GuestID string `validate:"required"`
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

func (q ListGuestBookingsQuery) AllowedRoles() []string { return roleGuest }

type ListGuestBookingsHandler struct {
	Env
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().ListByGuest(execCtx, q.GuestID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	props := newPropertyCache(unit)
	items := make([]dto.BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		prop, err := props.get(execCtx, b.PropertyID)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		items = append(items, dto.MapBooking(b, prop))
	}
	return dto.BookingCollection{Items: items}, nil
}

type GetGuestBookingQuery struct {
	BookingID string `validate:"required"`
	GuestID   string `validate:"required"`
}

func (q GetGuestBookingQuery) Key() string { return getGuestBookingKey }

func (q GetGuestBookingQuery) AllowedRoles() []string { return roleGuest }

type GetGuestBookingHandler struct {
	Env
}

func (h *GetGuestBookingHandler) Handle(ctx context.Context, q GetGuestBookingQuery) (dto.BookingDTO, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingDTO{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	if _, err := unit.Accounts().ByID(execCtx, domainaccount.Guest(q.GuestID)); err != nil {
		return dto.BookingDTO{}, err
	}
	b, err := loadOwnedBooking(execCtx, unit, q.BookingID, q.GuestID)
	if err != nil {
		return dto.BookingDTO{}, err
	}
	prop, err := newPropertyCache(unit).get(execCtx, b.PropertyID)
	if err != nil {
		return dto.BookingDTO{}, err
	}
	return dto.MapBooking(b, prop), nil
}

type ListReservationsQuery struct {
	ManagerID string `validate:"required"`
}

func (q ListReservationsQuery) Key() string { return listReservationsKey }

func (q ListReservationsQuery) AllowedRoles() []string { return roleManager }

// ListReservationsHandler lists bookings of every property the manager runs, by check-in.
type ListReservationsHandler struct {
	Env
}

func (h *ListReservationsHandler) Handle(ctx context.Context, q ListReservationsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	if _, err := unit.Accounts().ByID(execCtx, domainaccount.Manager(q.ManagerID)); err != nil {
		return dto.BookingCollection{}, err
	}
	props, err := unit.Properties().ListByManager(execCtx, q.ManagerID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	bookings, err := unit.Bookings().ListByProperties(execCtx, propertyIDs(props))
	if err != nil {
		return dto.BookingCollection{}, err
	}
	byID := indexProperties(props)
	items := make([]dto.BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, dto.MapBooking(b, byID[b.PropertyID]))
	}
	return dto.BookingCollection{Items: items}, nil
}

type GetReservationQuery struct {
	BookingID string `validate:"required"`
	ManagerID string `validate:"required"`
}

func (q GetReservationQuery) Key() string { return getReservationKey }

func (q GetReservationQuery) AllowedRoles() []string { return roleManager }

type GetReservationHandler struct {
	Env
}

func (h *GetReservationHandler) Handle(ctx context.Context, q GetReservationQuery) (dto.BookingDTO, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingDTO{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, prop, err := loadManagedBooking(execCtx, unit, q.BookingID, q.ManagerID)
	if err != nil {
		return dto.BookingDTO{}, err
	}
	return dto.MapBooking(b, prop), nil
}

type ListCancellationRequestsQuery struct{}

func (q ListCancellationRequestsQuery) Key() string { return listCancellationRequests }

func (q ListCancellationRequestsQuery) AllowedRoles() []string { return roleAdmin }

type ListCancellationRequestsHandler struct {
	Env
}

func (h *ListCancellationRequestsHandler) Handle(ctx context.Context, _ ListCancellationRequestsQuery) (dto.CancellationCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CancellationCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	list, err := unit.Cancellations().List(execCtx)
	if err != nil {
		return dto.CancellationCollection{}, err
	}
	items := make([]dto.CancellationDTO, 0, len(list))
	for _, c := range list {
		items = append(items, dto.MapCancellation(c))
	}
	return dto.CancellationCollection{Items: items}, nil
}

func propertyIDs(props []*domainproperty.Property) []domainproperty.ID {
	ids := make([]domainproperty.ID, 0, len(props))
	for _, p := range props {
		ids = append(ids, p.ID)
	}
	return ids
}

func indexProperties(props []*domainproperty.Property) map[domainproperty.ID]*domainproperty.Property {
	out := make(map[domainproperty.ID]*domainproperty.Property, len(props))
	for _, p := range props {
		out[p.ID] = p
	}
	return out
}

var (
	_ queries.Handler[ListGuestBookingsQuery, dto.BookingCollection]             = (*ListGuestBookingsHandler)(nil)
	_ queries.Handler[GetGuestBookingQuery, dto.BookingDTO]                      = (*GetGuestBookingHandler)(nil)
	_ queries.Handler[ListReservationsQuery, dto.BookingCollection]              = (*ListReservationsHandler)(nil)
	_ queries.Handler[GetReservationQuery, dto.BookingDTO]                       = (*GetReservationHandler)(nil)
	_ queries.Handler[ListCancellationRequestsQuery, dto.CancellationCollection] = (*ListCancellationRequestsHandler)(nil)
)
