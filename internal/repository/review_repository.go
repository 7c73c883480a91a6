package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/wanderio/tourhub/internal/model"
	"github.com/wanderio/tourhub/internal/query"
)

// ReviewResource is the queryable surface of the reviews table.
var ReviewResource = query.Resource{
	Fields: map[string]string{
		"review":    "r.review",
		"rating":    "r.rating",
		"tour":      "r.tour_id",
		"user":      "r.user_id",
		"createdAt": "r.created_at",
		"version":   "r.row_version",
	},
	Order:   []string{"review", "rating", "tour", "user", "createdAt", "version"},
	Version: "version",
}

type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

const reviewCols = `r.id, r.tour_id, r.user_id, r.review, r.rating, r.row_version,
r.created_at, r.updated_at, u.name, u.photo`

const reviewFrom = " FROM reviews r JOIN users u ON u.id = r.user_id"

func scanReview(sc interface{ Scan(...any) error }) (model.Review, error) {
	var v model.Review
	err := sc.Scan(&v.ID, &v.TourID, &v.UserID, &v.Review, &v.Rating, &v.Version,
		&v.CreatedAt, &v.UpdatedAt, &v.AuthorName, &v.AuthorPhoto)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, ErrNotFound
	}
	return v, err
}

// List runs a review listing through the query spec. The author join always
// selects the full row; review projections are narrow enough that the
// version column is the only default exclusion worth honoring here.
func (r *ReviewRepo) List(ctx context.Context, spec query.Spec) ([]model.Review, int64, error) {
	where, args := spec.Where()

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*)"+reviewFrom+" WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sqlStr := "SELECT " + reviewCols + reviewFrom + " WHERE " + where +
		" ORDER BY " + spec.OrderBy() + " LIMIT ? OFFSET ?"
	rows, err := r.DB.QueryContext(ctx, sqlStr, append(args, spec.Limit(), spec.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Review, 0, spec.Limit())
	for rows.Next() {
		v, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

// GetByID fetches one review with its author.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	return scanReview(r.DB.QueryRowContext(ctx,
		"SELECT "+reviewCols+reviewFrom+" WHERE r.id=? LIMIT 1", id))
}

// Create inserts a review. The UNIQUE(tour_id, user_id) index turns a second
// review by the same user into ErrDuplicateReview.
func (r *ReviewRepo) Create(ctx context.Context, v *model.Review) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (tour_id, user_id, review, rating) VALUES (?,?,?,?)",
		v.TourID, v.UserID, v.Review, v.Rating)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrDuplicateReview
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites the text and rating of a review.
func (r *ReviewRepo) Update(ctx context.Context, id uint64, text string, rating int) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reviews SET review=?, rating=?, row_version=row_version+1 WHERE id=?",
		text, rating, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// Delete removes a review.
func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// AggregateForTour returns the review count and mean rating for a tour.
// count == 0 means the tour has no reviews.
func (r *ReviewRepo) AggregateForTour(ctx context.Context, tourID uint64) (count int, avg float64, err error) {
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(AVG(rating),0) FROM reviews WHERE tour_id=?",
		tourID).Scan(&count, &avg)
	return count, avg, err
}
