package availability

import (
	"context"
	"time"

	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/daterange"
)

var ErrNightTaken = apperr.New(apperr.KindConflict, "availability: dates already reserved for this property")

// Claim reserves one calendar day of a property for a booking. The store keeps
// at most one claim per (PropertyID, Day).
type Claim struct {
	PropertyID string
	Day        time.Time
	BookingID  string
	ClaimedAt  time.Time
}

type ClaimStore interface {
	// Claim stores every claim or none of them; a taken day yields ErrNightTaken.
	Claim(ctx context.Context, claims []Claim) error
	ByProperty(ctx context.Context, propertyID string) ([]Claim, error)
}

// ClaimsFor covers every day in [CheckIn, CheckOut] so the store enforces the
// same boundary rule as the overlap check.
func ClaimsFor(propertyID, bookingID string, dr daterange.DateRange, at time.Time) []Claim {
	days := dr.CalendarDays()
	out := make([]Claim, 0, len(days))
	for _, d := range days {
		out = append(out, Claim{PropertyID: propertyID, Day: d, BookingID: bookingID, ClaimedAt: at.UTC()})
	}
	return out
}
