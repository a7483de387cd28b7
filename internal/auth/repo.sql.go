package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warelane/warelane/internal/platform/db"
	"github.com/warelane/warelane/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, user User) error
	ListUsers(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, id string, role Role) error
}

// PGRepository implements Repository using PostgreSQL. The account row
// lives in users; the role lives in the profiles table keyed by user id.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `u.id, u.email, u.password_hash, COALESCE(p.role,'viewer'),
	u.is_active, u.created_at, u.updated_at`

// FindByEmail fetches a user and its profile role by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `WHERE u.email=$1`, email)
}

// FindByID fetches a user and its profile role by id.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, `WHERE u.id=$1`, id)
}

func (r *PGRepository) findOne(ctx context.Context, where string, arg any) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u
		 LEFT JOIN profiles p ON p.user_id = u.id `+where, arg).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role,
			&user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts the account and its profile row atomically.
func (r *PGRepository) CreateUser(ctx context.Context, user User) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, is_active, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,NOW(),NOW())`,
			user.ID, user.Email, user.PasswordHash, user.IsActive); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO profiles (user_id, role) VALUES ($1,$2)`,
			user.ID, string(user.Role))
		return err
	})
}

// ListUsers returns every account with its role.
func (r *PGRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users u
		 LEFT JOIN profiles p ON p.user_id = u.id
		 ORDER BY u.email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role,
			&user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

// UpdateRole rewrites a user's profile role.
func (r *PGRepository) UpdateRole(ctx context.Context, id string, role Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET role=$2 WHERE user_id=$1`, id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
