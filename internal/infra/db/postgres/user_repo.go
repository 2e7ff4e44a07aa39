package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bryanwahyu/wifi-survey/internal/domain/users"
)

const userColumns = "id, username, password_hash, is_admin, is_approved, created_at"

type UserRepository struct{ db dbtx }

func NewUserRepository(db dbtx) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *users.User) error {
	const q = `
INSERT INTO users (username, password_hash, is_admin, is_approved, created_at)
VALUES ($1,$2,$3,$4,$5)
RETURNING id`
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, q, u.Username, u.PasswordHash, u.IsAdmin, u.IsApproved, u.CreatedAt).Scan(&u.ID)
	if isUniqueViolation(err) {
		return users.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*users.User, error) {
	return r.one(ctx, "SELECT "+userColumns+" FROM users WHERE id=$1", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return r.one(ctx, "SELECT "+userColumns+" FROM users WHERE username=$1", username)
}

func (r *UserRepository) one(ctx context.Context, q string, arg any) (*users.User, error) {
	var u users.User
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.IsApproved, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*users.User, error) {
	return r.many(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
}

func (r *UserRepository) ListPending(ctx context.Context) ([]*users.User, error) {
	return r.many(ctx, "SELECT "+userColumns+" FROM users WHERE NOT is_approved AND NOT is_admin ORDER BY id")
}

func (r *UserRepository) many(ctx context.Context, q string) ([]*users.User, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var out []*users.User
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.IsApproved, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *UserRepository) LockRegistration(ctx context.Context) error {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM app_locks WHERE name='registration' FOR UPDATE`).Scan(&name)
	if err != nil {
		return fmt.Errorf("locking registration: %w", err)
	}
	return nil
}

func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE is_admin`).Scan(&n)
	return n, err
}

func (r *UserRepository) Update(ctx context.Context, u *users.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash=$1, is_admin=$2, is_approved=$3 WHERE id=$4`,
		u.PasswordHash, u.IsAdmin, u.IsApproved, u.ID)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return requireAffected(res)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return requireAffected(res)
}
