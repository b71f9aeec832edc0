package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "hotelbook/internal/app/outbox"
)

type outboxEntry struct {
	record    appoutbox.EventRecord
	attempts  int
	claimed   bool
	sent      bool
	nextRetry time.Time
	lastError string
}

// Outbox keeps events in memory. Without a relay it discards them on Flush;
// a relay outbox keeps them until a worker marks them sent.
type Outbox struct {
	mu      sync.Mutex
	relay   bool
	entries []*outboxEntry
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// NewRelayOutbox returns an outbox drained by an outbox worker.
func NewRelayOutbox() *Outbox {
	return &Outbox{relay: true}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, &outboxEntry{record: record})
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.relay {
		o.entries = nil
		return nil
	}
	kept := o.entries[:0]
	for _, e := range o.entries {
		if !e.sent {
			kept = append(kept, e)
		}
	}
	o.entries = kept
	return nil
}

// Pending returns records not yet delivered, oldest first.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, 0, len(o.entries))
	for _, e := range o.entries {
		if !e.sent {
			out = append(out, e.record)
		}
	}
	return out
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*appoutbox.Pending, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	for _, e := range o.entries {
		if e.sent || e.claimed || e.nextRetry.After(now) {
			continue
		}
		e.claimed = true
		return &appoutbox.Pending{EventRecord: e.record, Attempts: e.attempts}, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e := o.find(id); e != nil {
		e.sent = true
		e.claimed = false
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e := o.find(id); e != nil {
		e.claimed = false
		e.attempts++
		e.nextRetry = next
		e.lastError = errMsg
	}
	return nil
}

func (o *Outbox) find(id string) *outboxEntry {
	for _, e := range o.entries {
		if e.record.ID == id {
			return e
		}
	}
	return nil
}

var (
	_ appoutbox.Outbox = (*Outbox)(nil)
	_ appoutbox.Relay  = (*Outbox)(nil)
)
