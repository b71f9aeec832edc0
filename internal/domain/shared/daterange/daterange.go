package daterange

import (
	"errors"
	"math"
	"strings"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrMissingDate  = errors.New("daterange: check-in and check-out are required")
	ErrInvalidDate  = errors.New("daterange: unrecognised date format")
)

const day = 24 * time.Hour

// layouts accepted from clients, most specific first.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// DateRange represents a stay from CheckIn to CheckOut. Nights are the half-open
// interval [CheckIn, CheckOut); conflict checks treat both ends as occupied.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from client supplied strings.
func Parse(checkIn, checkOut string) (DateRange, error) {
	checkIn, checkOut = strings.TrimSpace(checkIn), strings.TrimSpace(checkOut)
	if checkIn == "" || checkOut == "" {
		return DateRange{}, ErrMissingDate
	}
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

// ParseDate parses a single date in any accepted layout.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights rounds partial days up.
func (dr DateRange) Nights() int {
	return int(math.Ceil(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24))
}

// Overlaps reports a conflict with boundaries counted as occupied, so a stay
// ending on the day another begins still conflicts.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.ContainsInclusive(other.CheckIn) ||
		dr.ContainsInclusive(other.CheckOut) ||
		other.ContainsInclusive(dr.CheckIn) ||
		other.ContainsInclusive(dr.CheckOut)
}

// ContainsInclusive reports CheckIn <= t <= CheckOut.
func (dr DateRange) ContainsInclusive(t time.Time) bool {
	t = t.UTC()
	return !t.Before(dr.CheckIn) && !t.After(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

// NightDates lists the calendar days in [CheckIn, CheckOut).
func (dr DateRange) NightDates() []time.Time {
	start, end := Day(dr.CheckIn), Day(dr.CheckOut)
	if dr.CheckOut.After(end) {
		end = end.Add(day)
	}
	out := make([]time.Time, 0, dr.Nights())
	for d := start; d.Before(end); d = d.Add(day) {
		out = append(out, d)
	}
	return out
}

// CalendarDays lists the calendar days in [CheckIn, CheckOut].
func (dr DateRange) CalendarDays() []time.Time {
	start, end := Day(dr.CheckIn), Day(dr.CheckOut)
	out := make([]time.Time, 0, dr.Nights()+1)
	for d := start; !d.After(end); d = d.Add(day) {
		out = append(out, d)
	}
	return out
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
