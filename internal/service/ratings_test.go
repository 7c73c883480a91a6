package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAggregator struct {
	count int
	avg   float64
	err   error
}

func (f *fakeAggregator) AggregateForTour(ctx context.Context, tourID uint64) (int, float64, error) {
	return f.count, f.avg, f.err
}

type fakeWriter struct {
	tourID   uint64
	quantity int
	average  float64
	err      error
	calls    int
}

func (f *fakeWriter) SetRatings(ctx context.Context, tourID uint64, quantity int, average float64) error {
	f.calls++
	f.tourID = tourID
	f.quantity = quantity
	f.average = average
	return f.err
}

func TestRatingsRecalculate(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		avg      float64
		wantQty  int
		wantAvg  float64
	}{
		{name: "rounds to one decimal", count: 3, avg: 4.266666, wantQty: 3, wantAvg: 4.3},
		{name: "rounds half up", count: 2, avg: 4.25, wantQty: 2, wantAvg: 4.3},
		{name: "exact value unchanged", count: 5, avg: 4.8, wantQty: 5, wantAvg: 4.8},
		{name: "no reviews reverts to default", count: 0, avg: 0, wantQty: 0, wantAvg: 4.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := &fakeAggregator{count: tt.count, avg: tt.avg}
			w := &fakeWriter{}

			err := NewRatings(agg, w).Recalculate(context.Background(), 42)
			require.NoError(t, err)

			assert.Equal(t, 1, w.calls)
			assert.Equal(t, uint64(42), w.tourID)
			assert.Equal(t, tt.wantQty, w.quantity)
			assert.InDelta(t, tt.wantAvg, w.average, 1e-9)
		})
	}
}

func TestRatingsRecalculateAggregateError(t *testing.T) {
	agg := &fakeAggregator{err: errors.New("db down")}
	w := &fakeWriter{}

	err := NewRatings(agg, w).Recalculate(context.Background(), 7)
	require.Error(t, err)
	assert.Zero(t, w.calls)
}
