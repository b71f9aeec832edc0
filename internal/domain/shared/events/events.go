package events

import "time"

// DomainEvent is a fact recorded by an aggregate and relayed through the outbox.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// Recorder collects events raised during one command.
type Recorder struct {
	pending []DomainEvent
}

func (r *Recorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *Recorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

// Drain returns the pending events and forgets them.
func (r *Recorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}

// Header carries the routing fields every booking event shares.
type Header struct {
	Name      string    `json:"-"`
	Aggregate string    `json:"aggregate_id"`
	At        time.Time `json:"occurred_at"`
}

func NewHeader(name, aggregate string, at time.Time) Header {
	return Header{Name: name, Aggregate: aggregate, At: at.UTC()}
}

func (h Header) EventName() string {
	return h.Name
}

func (h Header) AggregateID() string {
	return h.Aggregate
}

func (h Header) OccurredAt() time.Time {
	return h.At
}
