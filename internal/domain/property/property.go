package property

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/daterange"
	"hotelbook/internal/domain/shared/money"
)

var (
	ErrNotFound   = apperr.New(apperr.KindNotFound, "property: not found")
	ErrIDRequired = errors.New("property: id is required")
)

type ID string

type Address struct {
	Street     string
	City       string
	State      string
	Country    string
	PostalCode string
}

// AvailabilityEntry overrides the default (available) state of one calendar date.
type AvailabilityEntry struct {
	Date        time.Time
	IsAvailable bool
}

type Property struct {
	ID           ID
	ManagerID    string
	Name         string
	Address      Address
	NightlyRate  money.Money
	Availability []AvailabilityEntry
	Listed       bool
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	ListByManager(ctx context.Context, managerID string) ([]*Property, error)
	// SetAvailability upserts one entry per date; dates already in the requested state are untouched.
	SetAvailability(ctx context.Context, id ID, dates []time.Time, available bool) error
}

// UnavailableDays returns the calendar days in [CheckIn, CheckOut] marked unavailable.
func (p *Property) UnavailableDays(dr daterange.DateRange) []time.Time {
	if p == nil || len(p.Availability) == 0 {
		return nil
	}
	blocked := make(map[time.Time]struct{}, len(p.Availability))
	for _, entry := range p.Availability {
		if !entry.IsAvailable {
			blocked[daterange.Day(entry.Date)] = struct{}{}
		}
	}
	var out []time.Time
	for _, d := range dr.CalendarDays() {
		if _, ok := blocked[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Quote prices the stay from the nightly rate. ok is false when the property has no rate.
func (p *Property) Quote(dr daterange.DateRange) (money.Money, bool) {
	if p == nil || p.NightlyRate.Amount <= 0 {
		return money.Money{}, false
	}
	return p.NightlyRate.Multiply(int64(dr.Nights())), true
}

// ApplyAvailability mutates the embedded calendar with set semantics, keeping one entry per date.
func (p *Property) ApplyAvailability(dates []time.Time, available bool) {
	index := make(map[time.Time]int, len(p.Availability))
	for i, entry := range p.Availability {
		index[daterange.Day(entry.Date)] = i
	}
	for _, d := range dates {
		d = daterange.Day(d)
		if i, ok := index[d]; ok {
			p.Availability[i].IsAvailable = available
			continue
		}
		index[d] = len(p.Availability)
		p.Availability = append(p.Availability, AvailabilityEntry{Date: d, IsAvailable: available})
	}
	sort.Slice(p.Availability, func(i, j int) bool {
		return p.Availability[i].Date.Before(p.Availability[j].Date)
	})
}

// Clone returns a deep copy safe to hand across store boundaries.
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Availability = append([]AvailabilityEntry(nil), p.Availability...)
	return &cp
}

func (p *Property) Validate() error {
	if strings.TrimSpace(string(p.ID)) == "" {
		return ErrIDRequired
	}
	return nil
}
