package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bryanwahyu/wifi-survey/internal/domain/environments"
	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
)

type EnvironmentRepository struct{ db dbtx }

func NewEnvironmentRepository(db dbtx) *EnvironmentRepository {
	return &EnvironmentRepository{db: db}
}

func (r *EnvironmentRepository) Create(ctx context.Context, e *environments.Environment) error {
	const q = `INSERT INTO environments (name, created_by, created_at) VALUES ($1,$2,$3) RETURNING id`
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, q, e.Name, e.CreatedBy, e.CreatedAt).Scan(&e.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("environment %q: %w", e.Name, shared.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("inserting environment: %w", err)
	}
	return nil
}

func (r *EnvironmentRepository) Get(ctx context.Context, id int64) (*environments.Environment, error) {
	const q = `SELECT id, name, created_by, created_at FROM environments WHERE id=$1`
	var e environments.Environment
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&e.ID, &e.Name, &e.CreatedBy, &e.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *EnvironmentRepository) List(ctx context.Context) ([]*environments.Environment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_by, created_at FROM environments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying environments: %w", err)
	}
	defer rows.Close()

	var out []*environments.Environment
	for rows.Next() {
		var e environments.Environment
		if err := rows.Scan(&e.ID, &e.Name, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *EnvironmentRepository) ExistsByName(ctx context.Context, name string, createdBy int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM environments WHERE name=$1 AND created_by=$2)`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, name, createdBy).Scan(&ok)
	return ok, err
}

func (r *EnvironmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM environments WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("deleting environment: %w", err)
	}
	return requireAffected(res)
}
