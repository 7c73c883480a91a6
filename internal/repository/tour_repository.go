package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/wanderio/tourhub/internal/model"
	"github.com/wanderio/tourhub/internal/query"
)

// TourResource is the queryable surface of the tours table.
var TourResource = query.Resource{
	Fields: map[string]string{
		"name":            "name",
		"slug":            "slug",
		"duration":        "duration_days",
		"maxGroupSize":    "max_group_size",
		"difficulty":      "difficulty",
		"ratingsAverage":  "ratings_average",
		"ratingsQuantity": "ratings_quantity",
		"price":           "price",
		"summary":         "summary",
		"createdAt":       "created_at",
		"version":         "row_version",
	},
	Order: []string{"name", "slug", "duration", "maxGroupSize", "difficulty",
		"ratingsAverage", "ratingsQuantity", "price", "summary", "createdAt", "version"},
	Version: "version",
}

type TourRepo struct{ DB *sql.DB }

func NewTourRepo(db *sql.DB) *TourRepo { return &TourRepo{DB: db} }

const tourCols = `id,name,slug,duration_days,max_group_size,difficulty,ratings_average,
ratings_quantity,price,price_discount,summary,description,image_cover,secret,
start_lat,start_lng,start_address,start_description,row_version,created_at,updated_at`

func scanTour(sc interface{ Scan(...any) error }) (model.Tour, error) {
	var t model.Tour
	err := sc.Scan(&t.ID, &t.Name, &t.Slug, &t.DurationDays, &t.MaxGroupSize,
		&t.Difficulty, &t.RatingsAverage, &t.RatingsQuantity, &t.Price,
		&t.PriceDiscount, &t.Summary, &t.Description, &t.ImageCover, &t.Secret,
		&t.StartLat, &t.StartLng, &t.StartAddress, &t.StartDescription,
		&t.Version, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tour{}, ErrNotFound
	}
	return t, err
}

// List runs a public listing through the query spec. Secret tours are
// filtered out here, at the query-construction boundary, so no caller can
// forget the scope.
func (r *TourRepo) List(ctx context.Context, spec query.Spec) ([]model.Tour, int64, error) {
	spec = spec.And("secret", query.OpEq, 0)
	where, args := spec.Where()

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tours WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	cols := spec.Columns()
	sqlStr := "SELECT id, " + strings.Join(cols, ", ") + " FROM tours WHERE " + where +
		" ORDER BY " + spec.OrderBy() + " LIMIT ? OFFSET ?"
	rows, err := r.DB.QueryContext(ctx, sqlStr, append(args, spec.Limit(), spec.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Tour, 0, spec.Limit())
	for rows.Next() {
		var t model.Tour
		dests := []any{&t.ID}
		for _, c := range cols {
			dests = append(dests, tourDest(&t, c))
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func tourDest(t *model.Tour, col string) any {
	switch col {
	case "name":
		return &t.Name
	case "slug":
		return &t.Slug
	case "duration_days":
		return &t.DurationDays
	case "max_group_size":
		return &t.MaxGroupSize
	case "difficulty":
		return &t.Difficulty
	case "ratings_average":
		return &t.RatingsAverage
	case "ratings_quantity":
		return &t.RatingsQuantity
	case "price":
		return &t.Price
	case "summary":
		return &t.Summary
	case "created_at":
		return &t.CreatedAt
	case "row_version":
		return &t.Version
	default:
		var discard any
		return &discard
	}
}

// GetByID fetches one non-secret tour with its start dates and guide ids.
func (r *TourRepo) GetByID(ctx context.Context, id uint64) (model.Tour, error) {
	t, err := scanTour(r.DB.QueryRowContext(ctx,
		"SELECT "+tourCols+" FROM tours WHERE id=? AND secret=0 LIMIT 1", id))
	if err != nil {
		return model.Tour{}, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT starts_on FROM tour_start_dates WHERE tour_id=? ORDER BY starts_on", id)
	if err != nil {
		return model.Tour{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return model.Tour{}, err
		}
		t.StartDates = append(t.StartDates, d)
	}
	if err := rows.Err(); err != nil {
		return model.Tour{}, err
	}

	guideRows, err := r.DB.QueryContext(ctx,
		"SELECT user_id FROM tour_guides WHERE tour_id=? ORDER BY user_id", id)
	if err != nil {
		return model.Tour{}, err
	}
	defer guideRows.Close()
	for guideRows.Next() {
		var g uint64
		if err := guideRows.Scan(&g); err != nil {
			return model.Tour{}, err
		}
		t.GuideIDs = append(t.GuideIDs, g)
	}
	return t, guideRows.Err()
}

// Create inserts a tour with its start dates and guides in one transaction.
func (r *TourRepo) Create(ctx context.Context, t *model.Tour) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO tours (name, slug, duration_days, max_group_size, difficulty,
			price, price_discount, summary, description, image_cover, secret,
			start_lat, start_lng, start_address, start_description)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.Name, model.Slugify(t.Name), t.DurationDays, t.MaxGroupSize, t.Difficulty,
		t.Price, t.PriceDiscount, t.Summary, t.Description, t.ImageCover, t.Secret,
		t.StartLat, t.StartLng, t.StartAddress, t.StartDescription)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrNameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := insertTourChildren(ctx, tx, uint64(id), t); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a tour's scalar fields and replaces its child rows.
func (r *TourRepo) Update(ctx context.Context, t *model.Tour) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE tours SET name=?, slug=?, duration_days=?, max_group_size=?,
			difficulty=?, price=?, price_discount=?, summary=?, description=?,
			image_cover=?, secret=?, start_lat=?, start_lng=?, start_address=?,
			start_description=?, row_version=row_version+1
		 WHERE id=?`,
		t.Name, model.Slugify(t.Name), t.DurationDays, t.MaxGroupSize, t.Difficulty,
		t.Price, t.PriceDiscount, t.Summary, t.Description, t.ImageCover, t.Secret,
		t.StartLat, t.StartLng, t.StartAddress, t.StartDescription, t.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrNameExists
		}
		return err
	}
	if err := oneRow(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tour_start_dates WHERE tour_id=?", t.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tour_guides WHERE tour_id=?", t.ID); err != nil {
		return err
	}
	if err := insertTourChildren(ctx, tx, t.ID, t); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTourChildren(ctx context.Context, tx *sql.Tx, id uint64, t *model.Tour) error {
	for _, d := range t.StartDates {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tour_start_dates (tour_id, starts_on) VALUES (?,?)", id, d); err != nil {
			return err
		}
	}
	for _, g := range t.GuideIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tour_guides (tour_id, user_id) VALUES (?,?)", id, g); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a tour; child rows cascade.
func (r *TourRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tours WHERE id=?", id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// SetRatings writes a recomputed rating aggregate. Called explicitly by the
// ratings service after review writes; last write wins under concurrency.
func (r *TourRepo) SetRatings(ctx context.Context, tourID uint64, quantity int, average float64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tours SET ratings_quantity=?, ratings_average=? WHERE id=?",
		quantity, average, tourID)
	return err
}

// TourStats is one difficulty bucket of the stats aggregation.
type TourStats struct {
	Difficulty model.Difficulty `json:"difficulty"`
	NumTours   int              `json:"numTours"`
	NumRatings int              `json:"numRatings"`
	AvgRating  float64          `json:"avgRating"`
	AvgPrice   float64          `json:"avgPrice"`
	MinPrice   float64          `json:"minPrice"`
	MaxPrice   float64          `json:"maxPrice"`
}

// Stats aggregates well-rated tours per difficulty, cheapest bucket first.
func (r *TourRepo) Stats(ctx context.Context) ([]TourStats, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT difficulty, COUNT(*), COALESCE(SUM(ratings_quantity),0),
			COALESCE(AVG(ratings_average),0), COALESCE(AVG(price),0),
			COALESCE(MIN(price),0), COALESCE(MAX(price),0)
		 FROM tours
		 WHERE ratings_average >= 4.5 AND secret=0
		 GROUP BY difficulty
		 ORDER BY AVG(price) ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TourStats
	for rows.Next() {
		var s TourStats
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings,
			&s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MonthPlan is one month of the yearly starts plan.
type MonthPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// MonthlyPlan counts tour starts per month of the given year, busiest month
// first.
func (r *TourRepo) MonthlyPlan(ctx context.Context, year int) ([]MonthPlan, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT MONTH(d.starts_on), COUNT(*), GROUP_CONCAT(t.name ORDER BY t.name SEPARATOR '\n')
		 FROM tour_start_dates d
		 JOIN tours t ON t.id = d.tour_id
		 WHERE YEAR(d.starts_on) = ? AND t.secret=0
		 GROUP BY MONTH(d.starts_on)
		 ORDER BY COUNT(*) DESC, MONTH(d.starts_on) ASC`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthPlan
	for rows.Next() {
		var p MonthPlan
		var names string
		if err := rows.Scan(&p.Month, &p.NumTourStarts, &names); err != nil {
			return nil, err
		}
		if names != "" {
			p.Tours = strings.Split(names, "\n")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// haversine computes the great-circle distance in kilometers between the
// bound point and each tour's start location.
const haversineKm = `6371 * ACOS(LEAST(1.0,
	COS(RADIANS(?)) * COS(RADIANS(start_lat)) * COS(RADIANS(start_lng) - RADIANS(?)) +
	SIN(RADIANS(?)) * SIN(RADIANS(start_lat))))`

// Within returns non-secret tours whose start location lies inside radiusKm
// of the center point.
func (r *TourRepo) Within(ctx context.Context, lat, lng, radiusKm float64) ([]model.Tour, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+tourCols+" FROM tours WHERE secret=0 AND "+haversineKm+" <= ?",
		lat, lng, lat, radiusKm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TourDistance pairs a tour with its distance from a reference point, in
// kilometers. Callers convert units.
type TourDistance struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// Distances returns every non-secret tour ordered by distance from the
// point, nearest first.
func (r *TourRepo) Distances(ctx context.Context, lat, lng float64) ([]TourDistance, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, "+haversineKm+" AS distance_km FROM tours WHERE secret=0 ORDER BY distance_km ASC",
		lat, lng, lat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TourDistance
	for rows.Next() {
		var d TourDistance
		if err := rows.Scan(&d.ID, &d.Name, &d.Distance); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
