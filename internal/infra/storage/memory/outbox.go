package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "rentme-pricing/internal/app/outbox"
	infraoutbox "rentme-pricing/internal/infra/outbox"
)

// Outbox keeps event entries in memory and serves them to the relay worker
// the same way the Mongo store does.
type Outbox struct {
	Now func() time.Time

	mu   sync.Mutex
	docs []*infraoutbox.EventDocument
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	doc := infraoutbox.NewDocument(record, o.now())
	o.mu.Lock()
	defer o.mu.Unlock()
	o.docs = append(o.docs, &doc)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	now := o.now()
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, doc := range o.docs {
		if doc.State != infraoutbox.StateNew && doc.State != infraoutbox.StateFailed {
			continue
		}
		if doc.NextAttempt.After(now) {
			continue
		}
		doc.State = infraoutbox.StateClaimed
		doc.ClaimedBy = workerID
		doc.ClaimedAt = now
		claimed := *doc
		return &claimed, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	now := o.now()
	o.mu.Lock()
	defer o.mu.Unlock()
	if doc := o.find(id); doc != nil {
		doc.State = infraoutbox.StateSent
		doc.SentAt = now
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if doc := o.find(id); doc != nil {
		doc.State = infraoutbox.StateFailed
		doc.NextAttempt = next
		doc.LastError = errMsg
		doc.Attempts++
	}
	return nil
}

// Entries returns a snapshot of every entry, oldest first.
func (o *Outbox) Entries() []infraoutbox.EventDocument {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]infraoutbox.EventDocument, 0, len(o.docs))
	for _, doc := range o.docs {
		out = append(out, *doc)
	}
	return out
}

func (o *Outbox) find(id string) *infraoutbox.EventDocument {
	for _, doc := range o.docs {
		if doc.ID == id {
			return doc
		}
	}
	return nil
}

func (o *Outbox) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

var (
	_ appoutbox.Outbox   = (*Outbox)(nil)
	_ infraoutbox.Source = (*Outbox)(nil)
)
