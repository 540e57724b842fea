package audit

import (
	"context"
	"fmt"
)

// Queue is a Store that hands events to a channel instead of persisting them,
// keeping audit writes off the request path. Pair it with a Worker draining
// the same channel into a real sink.
type Queue struct {
	inbox chan<- Event
}

func NewQueue(inbox chan<- Event) *Queue {
	return &Queue{inbox: inbox}
}

func (q *Queue) Append(ctx context.Context, event Event) error {
	select {
	case q.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListByCitizen is not supported; reads go to the sink behind the Worker.
func (q *Queue) ListByCitizen(context.Context, string) ([]Event, error) {
	return nil, fmt.Errorf("audit queue is write-only")
}
