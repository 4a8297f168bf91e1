package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fichaje-app/apiserver/types"
	"github.com/lib/pq"
)

const userColumns = `id, name, pin, role, facility_id, COALESCE(password_hash, ''), created_at, updated_at`

// ErrDuplicatePIN is returned when a PIN is already taken in the facility.
var ErrDuplicatePIN = errors.New("pin already exists in facility")

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByPIN resolves the kiosk identity: a PIN is only meaningful
// together with its facility.
func (r *UserRepository) GetByPIN(ctx context.Context, pin, facilityID string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE pin = $1 AND facility_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, pin, facilityID))
}

// GetAdminByName looks up an admin account for the management login.
func (r *UserRepository) GetAdminByName(ctx context.Context, name string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE name = $1 AND role = 'admin'`
	return r.scanOne(r.db.QueryRowContext(ctx, query, name))
}

func (r *UserRepository) ListByFacility(ctx context.Context, facilityID string) ([]types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE facility_id = $1
		ORDER BY name, pin`
	rows, err := r.db.QueryContext(ctx, query, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var user types.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.PIN,
			&user.Role,
			&user.FacilityID,
			&user.PasswordHash,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (name, pin, role, facility_id, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.PIN,
		user.Role,
		user.FacilityID,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return types.User{}, ErrDuplicatePIN
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.PIN,
		&user.Role,
		&user.FacilityID,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
