package testutil

import (
	"net/http"
	"time"

	"civica/pkg/requestcontext"
)

// AsActor injects an actor into the request context, simulating what the auth
// middleware does for authenticated requests.
func AsActor(req *http.Request, actorID string, authority bool) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), actorID, authority)
	return req.WithContext(ctx)
}

// AtTime pins the request clock, so cooldowns and expiries are deterministic.
func AtTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}
