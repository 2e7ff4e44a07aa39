package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bryanwahyu/wifi-survey/internal/domain/environments"
	"github.com/bryanwahyu/wifi-survey/internal/domain/store"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/domain/uploads"
	"github.com/bryanwahyu/wifi-survey/internal/domain/users"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements store.Store on PostgreSQL
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Scans() surveys.Repository             { return NewScanRepository(s.db) }
func (s *Store) Environments() environments.Repository { return NewEnvironmentRepository(s.db) }
func (s *Store) Users() users.Repository               { return NewUserRepository(s.db) }
func (s *Store) Uploads() uploads.Repository           { return NewUploadRepository(s.db) }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow store.UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, txUnit{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txUnit struct{ tx *sql.Tx }

func (u txUnit) Scans() surveys.Repository             { return NewScanRepository(u.tx) }
func (u txUnit) Environments() environments.Repository { return NewEnvironmentRepository(u.tx) }
func (u txUnit) Users() users.Repository               { return NewUserRepository(u.tx) }
func (u txUnit) Uploads() uploads.Repository           { return NewUploadRepository(u.tx) }
