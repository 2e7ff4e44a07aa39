// Package memory is an in-process Store for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/bryanwahyu/wifi-survey/internal/domain/environments"
	"github.com/bryanwahyu/wifi-survey/internal/domain/store"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/domain/uploads"
	"github.com/bryanwahyu/wifi-survey/internal/domain/users"
)

// Store keeps all data in maps guarded by one mutex. A transaction works
// on a private copy that replaces the live data on commit, so transactions
// are serialized and repositories reached through the Store block while
// one is open.
type Store struct {
	mu   sync.Mutex
	data *state
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: newState()}
}

func (s *Store) Scans() surveys.Repository {
	return &scanRepo{locked: s.locked}
}

func (s *Store) Environments() environments.Repository {
	return &environmentRepo{locked: s.locked}
}

func (s *Store) Users() users.Repository {
	return &userRepo{locked: s.locked}
}

func (s *Store) Uploads() uploads.Repository {
	return &uploadRepo{locked: s.locked}
}

func (s *Store) Ping(context.Context) error { return nil }

// WithinTx runs fn against a copy of the data and publishes the copy only
// when fn returns nil. A panic in fn leaves the live data untouched.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow store.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.data.clone()
	if err := fn(ctx, &tx{data: draft}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.data = draft
	return nil
}

func (s *Store) locked(fn func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// tx is the unit of work handed to WithinTx callbacks. Its draft is
// private to the callback so no further locking is needed.
type tx struct {
	data *state
}

func (t *tx) run(fn func(*state) error) error { return fn(t.data) }

func (t *tx) Scans() surveys.Repository             { return &scanRepo{locked: t.run} }
func (t *tx) Environments() environments.Repository { return &environmentRepo{locked: t.run} }
func (t *tx) Users() users.Repository               { return &userRepo{locked: t.run} }
func (t *tx) Uploads() uploads.Repository           { return &uploadRepo{locked: t.run} }
