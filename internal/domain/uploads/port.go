package uploads

import "context"

// Repository defines persistence for upload batches
type Repository interface {
	Save(ctx context.Context, b *Batch) error
	ListByEnvironment(ctx context.Context, environmentID int64, limit int) ([]*Batch, error)
	DeleteByEnvironment(ctx context.Context, environmentID int64) (int64, error)
}
