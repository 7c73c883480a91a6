package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wanderio/tourhub/internal/model"
	"github.com/wanderio/tourhub/internal/query"
)

// BookingResource is the queryable surface of the bookings table.
var BookingResource = query.Resource{
	Fields: map[string]string{
		"tour":      "b.tour_id",
		"user":      "b.user_id",
		"price":     "b.price",
		"paid":      "b.paid",
		"status":    "b.status",
		"createdAt": "b.created_at",
		"version":   "b.row_version",
	},
	Order:   []string{"tour", "user", "price", "paid", "status", "createdAt", "version"},
	Version: "version",
}

type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingCols = `b.id, b.tour_id, b.user_id, b.price, b.paid, b.status,
b.row_version, b.created_at, b.updated_at, t.name`

const bookingFrom = " FROM bookings b JOIN tours t ON t.id = b.tour_id"

func scanBooking(sc interface{ Scan(...any) error }) (model.Booking, error) {
	var bk model.Booking
	err := sc.Scan(&bk.ID, &bk.TourID, &bk.UserID, &bk.Price, &bk.Paid, &bk.Status,
		&bk.Version, &bk.CreatedAt, &bk.UpdatedAt, &bk.TourName)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	return bk, err
}

// Create inserts a pending booking and returns its id.
func (r *BookingRepo) Create(ctx context.Context, bk *model.Booking) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO bookings (tour_id, user_id, price, paid, status) VALUES (?,?,?,?,?)",
		bk.TourID, bk.UserID, bk.Price, bk.Paid, bk.Status)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one booking, joined with its tour name.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBooking(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingCols+bookingFrom+" WHERE b.id=? LIMIT 1", id))
}

// ListByUser returns a user's bookings, most recent first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bookingCols+bookingFrom+" WHERE b.user_id=? ORDER BY b.created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		bk, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bk)
	}
	return out, rows.Err()
}

// List runs an admin booking listing through the query spec.
func (r *BookingRepo) List(ctx context.Context, spec query.Spec) ([]model.Booking, int64, error) {
	where, args := spec.Where()

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*)"+bookingFrom+" WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sqlStr := "SELECT " + bookingCols + bookingFrom + " WHERE " + where +
		" ORDER BY " + spec.OrderBy() + " LIMIT ? OFFSET ?"
	rows, err := r.DB.QueryContext(ctx, sqlStr, append(args, spec.Limit(), spec.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Booking, 0, spec.Limit())
	for rows.Next() {
		bk, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, bk)
	}
	return out, total, rows.Err()
}

// UpdateStatus moves a booking through checkout states.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus, paid bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET status=?, paid=?, row_version=row_version+1 WHERE id=?",
		status, paid, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// Delete removes a booking.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM bookings WHERE id=?", id)
	if err != nil {
		return err
	}
	return oneRow(res)
}
