package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainavailability "hotelbook/internal/domain/availability"
	domainbooking "hotelbook/internal/domain/booking"
	domainproperty "hotelbook/internal/domain/property"
	"hotelbook/internal/domain/shared/daterange"
)

// BookingRepository stores bookings in memory. Stored values are copies, so
// callers never share state with the store.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

// NewBookingRepository builds an empty booking repo.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

// ByID fetches a booking.
func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return booking.Clone(), nil
}

// Save stores the current booking state guarded by its version.
func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.items[booking.ID]; ok && current.Version != booking.Version {
		return domainbooking.ErrConcurrentUpdate
	}
	booking.Version++
	r.items[booking.ID] = booking.Clone()
	return nil
}

func (r *BookingRepository) ListOverlapping(ctx context.Context, propertyID domainproperty.ID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool {
		return b.PropertyID == propertyID && b.Range.Overlaps(dr)
	}), nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	out := r.filter(func(b *domainbooking.Booking) bool { return b.GuestID == guestID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *BookingRepository) ListByProperties(ctx context.Context, ids []domainproperty.ID, statuses ...domainbooking.Status) ([]*domainbooking.Booking, error) {
	wanted := make(map[domainproperty.ID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := r.filter(func(b *domainbooking.Booking) bool {
		_, ok := wanted[b.PropertyID]
		return ok && hasStatus(b.Status, statuses)
	})
	sortByCheckIn(out)
	return out, nil
}

func (r *BookingRepository) ListByStatus(ctx context.Context, statuses ...domainbooking.Status) ([]*domainbooking.Booking, error) {
	out := r.filter(func(b *domainbooking.Booking) bool { return hasStatus(b.Status, statuses) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *BookingRepository) ListUnsettled(ctx context.Context, limit int) ([]*domainbooking.Booking, error) {
	out := r.filter(func(b *domainbooking.Booking) bool { return b.SettlementPending() })
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *BookingRepository) filter(match func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if match(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}

func hasStatus(status domainbooking.Status, statuses []domainbooking.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func sortByCheckIn(items []*domainbooking.Booking) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Range.CheckIn.Equal(items[j].Range.CheckIn) {
			return items[i].ID < items[j].ID
		}
		return items[i].Range.CheckIn.Before(items[j].Range.CheckIn)
	})
}

// CancellationRepository keeps cancellation requests in memory.
type CancellationRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.CancellationID]domainbooking.Cancellation
}

func NewCancellationRepository() *CancellationRepository {
	return &CancellationRepository{items: make(map[domainbooking.CancellationID]domainbooking.Cancellation)}
}

func (r *CancellationRepository) ByID(ctx context.Context, id domainbooking.CancellationID) (*domainbooking.Cancellation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrCancellationNotFound
	}
	return &c, nil
}

func (r *CancellationRepository) Save(ctx context.Context, c *domainbooking.Cancellation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.ID] = *c
	return nil
}

// List returns requests newest first.
func (r *CancellationRepository) List(ctx context.Context) ([]*domainbooking.Cancellation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Cancellation, 0, len(r.items))
	for _, c := range r.items {
		c := c
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// PropertyRepository keeps properties and their calendars in memory.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.ID]*domainproperty.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[domainproperty.ID]*domainproperty.Property)}
}

// Put seeds or replaces a property.
func (r *PropertyRepository) Put(p *domainproperty.Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p.Clone()
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *PropertyRepository) ListByManager(ctx context.Context, managerID string) ([]*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainproperty.Property, 0)
	for _, p := range r.items {
		if p.ManagerID == managerID {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PropertyRepository) SetAvailability(ctx context.Context, id domainproperty.ID, dates []time.Time, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return domainproperty.ErrNotFound
	}
	p.ApplyAvailability(dates, available)
	return nil
}

type claimKey struct {
	property string
	day      time.Time
}

// ClaimStore enforces one booking per property night under a single lock.
type ClaimStore struct {
	mu     sync.Mutex
	claims map[claimKey]domainavailability.Claim
}

func NewClaimStore() *ClaimStore {
	return &ClaimStore{claims: make(map[claimKey]domainavailability.Claim)}
}

func (s *ClaimStore) Claim(ctx context.Context, claims []domainavailability.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range claims {
		if existing, ok := s.claims[claimKey{c.PropertyID, daterange.Day(c.Day)}]; ok && existing.BookingID != c.BookingID {
			return domainavailability.ErrNightTaken
		}
	}
	for _, c := range claims {
		c.Day = daterange.Day(c.Day)
		s.claims[claimKey{c.PropertyID, c.Day}] = c
	}
	return nil
}

func (s *ClaimStore) ByProperty(ctx context.Context, propertyID string) ([]domainavailability.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domainavailability.Claim, 0)
	for k, c := range s.claims {
		if k.property == propertyID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

var (
	_ domainbooking.Repository             = (*BookingRepository)(nil)
	_ domainbooking.CancellationRepository = (*CancellationRepository)(nil)
	_ domainproperty.Repository            = (*PropertyRepository)(nil)
	_ domainavailability.ClaimStore        = (*ClaimStore)(nil)
)
