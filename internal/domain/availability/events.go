package availability

import (
	"time"

	"hotelbook/internal/domain/shared/events"
)

const EventDatesBlocked = "availability.dates_blocked"

// DatesBlocked is raised when settlement marks a stay's nights unavailable.
type DatesBlocked struct {
	events.Header
	PropertyID string      `json:"property_id"`
	BookingID  string      `json:"booking_id"`
	Dates      []time.Time `json:"dates"`
}

func NewDatesBlocked(propertyID, bookingID string, dates []time.Time, at time.Time) DatesBlocked {
	return DatesBlocked{
		Header:     events.NewHeader(EventDatesBlocked, propertyID, at),
		PropertyID: propertyID,
		BookingID:  bookingID,
		Dates:      dates,
	}
}
