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

// UserResource is the queryable surface exposed to the admin user listing.
// Credential columns are deliberately absent so they can be neither filtered
// on nor projected.
var UserResource = query.Resource{
	Fields: map[string]string{
		"name":      "name",
		"email":     "email",
		"photo":     "photo",
		"role":      "role",
		"createdAt": "created_at",
		"version":   "row_version",
	},
	Order:   []string{"name", "email", "photo", "role", "createdAt", "version"},
	Version: "version",
}

const userCols = "id,name,email,photo,role,password_hash,password_changed_at,password_reset_hash,password_reset_expires,active,row_version,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.PasswordHash,
		&u.PasswordChangedAt, &u.PasswordResetHash, &u.PasswordResetExpires,
		&u.Active, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// Create inserts a user and returns its id. The password arrives already
// hashed; this layer never sees plaintext.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, photo, role, password_hash) VALUES (?,?,?,?,?)",
		u.Name, email, u.Photo, u.Role, u.PasswordHash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an active user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? AND active=1 LIMIT 1", email))
}

// GetByID fetches an active user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? AND active=1 LIMIT 1", id))
}

// UpdatePassword stores a new hash and the change timestamp, and consumes
// any pending reset token in the same statement so the token cannot outlive
// the password it was issued for. Every session token issued before
// changedAt becomes stale.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string, changedAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, password_changed_at=?, password_reset_hash=NULL, password_reset_expires=NULL, row_version=row_version+1 WHERE id=? AND active=1",
		hash, changedAt, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// SetResetToken stores the reset token hash and expiry, replacing any
// pending token.
func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, tokenHash string, expires time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_reset_hash=?, password_reset_expires=? WHERE id=? AND active=1",
		tokenHash, expires, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// ClearResetToken removes a pending reset token. Used both on successful
// reset and to roll back when the notification channel fails.
func (r *UserRepo) ClearResetToken(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_reset_hash=NULL, password_reset_expires=NULL WHERE id=?", id)
	return err
}

// GetByResetHash fetches the user holding this reset hash with an expiry in
// the future. Expired or unknown tokens return ErrNotFound.
func (r *UserRepo) GetByResetHash(ctx context.Context, tokenHash string, now time.Time) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE password_reset_hash=? AND password_reset_expires>? AND active=1 LIMIT 1",
		tokenHash, now))
}

// UpdateProfile updates the self-service fields (name, email, photo). Empty
// values keep the current column.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, email, photo string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET
			name = COALESCE(NULLIF(?, ''), name),
			email = COALESCE(NULLIF(?, ''), email),
			photo = COALESCE(NULLIF(?, ''), photo),
			row_version = row_version + 1
		 WHERE id=? AND active=1`,
		name, email, photo, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

// Deactivate soft-deletes a user. The row stays for referential integrity
// but every scoped query stops seeing it.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET active=0 WHERE id=? AND active=1", id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// UpdateRole lets an admin reassign a user's role.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role model.Role) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, row_version=row_version+1 WHERE id=? AND active=1", role, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// List runs an admin listing through the query spec. The active-user scope
// is composed here, at the query-construction boundary.
func (r *UserRepo) List(ctx context.Context, spec query.Spec) ([]model.User, int64, error) {
	spec = spec.And("active", query.OpEq, 1)
	where, args := spec.Where()

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	cols := spec.Columns()
	sqlStr := "SELECT id, " + strings.Join(cols, ", ") + " FROM users WHERE " + where +
		" ORDER BY " + spec.OrderBy() + " LIMIT ? OFFSET ?"
	rows, err := r.DB.QueryContext(ctx, sqlStr, append(args, spec.Limit(), spec.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.User, 0, spec.Limit())
	for rows.Next() {
		var u model.User
		dests := []any{&u.ID}
		for _, c := range cols {
			dests = append(dests, userDest(&u, c))
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// userDest maps a projected column to its scan destination.
func userDest(u *model.User, col string) any {
	switch col {
	case "name":
		return &u.Name
	case "email":
		return &u.Email
	case "photo":
		return &u.Photo
	case "role":
		return &u.Role
	case "created_at":
		return &u.CreatedAt
	case "row_version":
		return &u.Version
	default:
		var discard any
		return &discard
	}
}

// oneRow converts a zero-row update into ErrNotFound.
func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
