package service

import (
	"context"
	"time"
)

// RunSweep vacates expired rentals on the given cadence until the context is
// canceled. Meant to run in its own goroutine from the server.
func (s *Service) RunSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := s.SweepExpiredRentals(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "rental sweep failed", "error", err)
				continue
			}
			if swept > 0 {
				s.logger.InfoContext(ctx, "rental sweep vacated properties", "count", swept)
			}
		}
	}
}
