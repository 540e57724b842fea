package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	derrors "civica/pkg/domain-errors"
)

type fixedCounter int

func (c fixedCounter) Count(context.Context) (int, error) { return int(c), nil }

type fixedOpenFines int

func (c fixedOpenFines) CountOpenFines(context.Context) (int, error) { return int(c), nil }

type failingCounter struct{}

func (failingCounter) Count(context.Context) (int, error) {
	return 0, errors.New("backend down")
}

func TestSnapshot(t *testing.T) {
	service := New(fixedCounter(12), fixedCounter(3), fixedCounter(5), fixedOpenFines(2))

	snapshot, err := service.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, &Snapshot{Citizens: 12, Businesses: 3, Properties: 5, OpenFines: 2}, snapshot)
}

func TestSnapshotFailsAsUnit(t *testing.T) {
	service := New(fixedCounter(12), failingCounter{}, fixedCounter(5), fixedOpenFines(2))

	_, err := service.Snapshot(context.Background())
	require.Error(t, err)
	require.True(t, derrors.HasCode(err, derrors.CodeInternal))
}
