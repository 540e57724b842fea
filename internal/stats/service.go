// Package stats aggregates world-state counts for dashboards.
package stats

import (
	"context"

	"golang.org/x/sync/errgroup"

	derrors "civica/pkg/domain-errors"
)

// Counter reports how many records a registry holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// OpenFineCounter reports how many fines are still unsettled.
type OpenFineCounter interface {
	CountOpenFines(ctx context.Context) (int, error)
}

// Snapshot is a point-in-time view of the world.
type Snapshot struct {
	Citizens   int `json:"citizens"`
	Businesses int `json:"businesses"`
	Properties int `json:"properties"`
	OpenFines  int `json:"open_fines"`
}

// Service gathers counts from the registries concurrently.
type Service struct {
	citizens    Counter
	businesses  Counter
	properties  Counter
	enforcement OpenFineCounter
}

// New constructs the stats service.
func New(citizens, businesses, properties Counter, enforcement OpenFineCounter) *Service {
	return &Service{
		citizens:    citizens,
		businesses:  businesses,
		properties:  properties,
		enforcement: enforcement,
	}
}

// Snapshot collects all counts in parallel, failing as a unit if any registry
// does.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snapshot Snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.citizens.Count(ctx)
		snapshot.Citizens = count
		return err
	})
	g.Go(func() error {
		count, err := s.businesses.Count(ctx)
		snapshot.Businesses = count
		return err
	})
	g.Go(func() error {
		count, err := s.properties.Count(ctx)
		snapshot.Properties = count
		return err
	})
	g.Go(func() error {
		count, err := s.enforcement.CountOpenFines(ctx)
		snapshot.OpenFines = count
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "stats aggregation failed")
	}
	return &snapshot, nil
}
