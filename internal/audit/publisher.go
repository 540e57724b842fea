// Package audit captures structured world-state change events. It is
// append-only and uses the storage layer for persistence so tests can swap
// sinks easily.
package audit

import (
	"context"

	"civica/pkg/requestcontext"
)

// Publisher records audit events to a store.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) List(ctx context.Context, citizenID string) ([]Event, error) {
	return p.store.ListByCitizen(ctx, citizenID)
}
