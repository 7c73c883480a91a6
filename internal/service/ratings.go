package service

import (
	"context"
	"math"
)

// DefaultRating is the aggregate a tour falls back to when its last review
// disappears.
const DefaultRating = 4.5

// ReviewAggregator supplies the review count and mean rating for a tour.
type ReviewAggregator interface {
	AggregateForTour(ctx context.Context, tourID uint64) (count int, avg float64, err error)
}

// RatingWriter persists a recomputed rating aggregate on a tour.
type RatingWriter interface {
	SetRatings(ctx context.Context, tourID uint64, quantity int, average float64) error
}

// Ratings recomputes a tour's rating aggregate from the current persisted
// reviews. Write-path handlers call Recalculate explicitly after every
// review create, update or delete, keeping the causality visible instead of
// hiding it in a persistence hook. The recompute reads current state and
// last write wins, so it tolerates being slightly stale under concurrent
// review writes.
type Ratings struct {
	reviews ReviewAggregator
	tours   RatingWriter
}

func NewRatings(reviews ReviewAggregator, tours RatingWriter) *Ratings {
	return &Ratings{reviews: reviews, tours: tours}
}

// Recalculate recomputes and stores the aggregate for one tour. The average
// is rounded to one decimal; a tour with no reviews reverts to the default.
func (s *Ratings) Recalculate(ctx context.Context, tourID uint64) error {
	count, avg, err := s.reviews.AggregateForTour(ctx, tourID)
	if err != nil {
		return err
	}
	if count == 0 {
		return s.tours.SetRatings(ctx, tourID, 0, DefaultRating)
	}
	return s.tours.SetRatings(ctx, tourID, count, math.Round(avg*10)/10)
}
