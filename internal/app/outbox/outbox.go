package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"hotelbook/internal/domain/shared/events"
)

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox stores events next to the state change that raised them. Add joins the
// transaction carried by ctx when the store supports one.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = defaultIDGenerator
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func defaultIDGenerator() string {
	return uuid.NewString()
}

// Recorded is implemented by aggregates that buffer domain events.
type Recorded interface {
	Drain() []events.DomainEvent
}

// Publish drains every aggregate's pending events into the outbox.
func Publish(ctx context.Context, box Outbox, encoder EventEncoder, aggregates ...Recorded) error {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		if err := RecordDomainEvents(ctx, box, encoder, agg.Drain()); err != nil {
			return err
		}
	}
	return nil
}

// Pending is a stored record awaiting delivery.
type Pending struct {
	EventRecord
	Attempts int
}

// Relay is the delivery side of an outbox: one worker claims a record, then
// reports the outcome.
type Relay interface {
	Claim(ctx context.Context, workerID string) (*Pending, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}
