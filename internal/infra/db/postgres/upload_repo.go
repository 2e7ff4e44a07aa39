package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bryanwahyu/wifi-survey/internal/domain/uploads"
)

type UploadRepository struct{ db dbtx }

func NewUploadRepository(db dbtx) *UploadRepository { return &UploadRepository{db: db} }

func (r *UploadRepository) Save(ctx context.Context, b *uploads.Batch) error {
	const q = `
INSERT INTO upload_batches
  (id, environment_id, uploaded_by, file_name, status,
   accepted, duplicates, error_count, errors_json, archive_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	errs := b.Errors
	if errs == nil {
		errs = []string{}
	}
	details, err := json.Marshal(errs)
	if err != nil {
		return err
	}
	created := b.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, q,
		b.ID, b.EnvironmentID, b.UploadedBy, b.FileName, string(b.Status),
		b.Accepted, b.Duplicates, b.ErrorCount, string(details), b.ArchiveURL, created,
	)
	if err != nil {
		return fmt.Errorf("inserting upload batch: %w", err)
	}
	return nil
}

func (r *UploadRepository) ListByEnvironment(ctx context.Context, environmentID int64, limit int) ([]*uploads.Batch, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, environment_id, uploaded_by, file_name, status,
       accepted, duplicates, error_count, errors_json, archive_url, created_at
FROM upload_batches
WHERE environment_id=$1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, environmentID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying upload batches: %w", err)
	}
	defer rows.Close()

	var out []*uploads.Batch
	for rows.Next() {
		var b uploads.Batch
		var details []byte
		if err := rows.Scan(
			&b.ID, &b.EnvironmentID, &b.UploadedBy, &b.FileName, &b.Status,
			&b.Accepted, &b.Duplicates, &b.ErrorCount, &details, &b.ArchiveURL, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &b.Errors); err != nil {
				return nil, fmt.Errorf("decoding batch errors: %w", err)
			}
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (r *UploadRepository) DeleteByEnvironment(ctx context.Context, environmentID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM upload_batches WHERE environment_id=$1`, environmentID)
	if err != nil {
		return 0, fmt.Errorf("deleting upload batches: %w", err)
	}
	return res.RowsAffected()
}
