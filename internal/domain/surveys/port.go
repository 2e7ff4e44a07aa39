package surveys

import "context"

// Repository port (persistence of scan records)
type Repository interface {
	// ExistingPairs is the snapshot of dedup keys already stored for an environment
	ExistingPairs(ctx context.Context, environmentID int64) (PairSet, error)
	// InsertAll stores records; atomic only when called inside a unit of work.
	// A unique violation is reported as ErrDuplicatePair.
	InsertAll(ctx context.Context, records []*ScanRecord) error

	Get(ctx context.Context, id ScanID) (*ScanRecord, error)
	List(ctx context.Context, environmentID int64, f ListFilter) (PaginatedResult, error)
	ListAll(ctx context.Context, environmentID int64) ([]*ScanRecord, error)
	Stats(ctx context.Context, environmentID int64) (Stats, error)

	UpdateRemarks(ctx context.Context, id ScanID, remarks string) error
	SetRogue(ctx context.Context, ids []ScanID, rogue bool) (int64, error)
	DeleteByEnvironment(ctx context.Context, environmentID int64) (int64, error)
}

// ArchiveStore keeps raw uploads and exported reports
type ArchiveStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
