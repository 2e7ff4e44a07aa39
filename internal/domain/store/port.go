// Package store defines the unit of work shared by application services.
package store

import (
	"context"

	"github.com/bryanwahyu/wifi-survey/internal/domain/environments"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/domain/uploads"
	"github.com/bryanwahyu/wifi-survey/internal/domain/users"
)

// UnitOfWork exposes repositories bound to one connection or transaction
type UnitOfWork interface {
	Scans() surveys.Repository
	Environments() environments.Repository
	Users() users.Repository
	Uploads() uploads.Repository
}

// Store is the storage collaborator. Repositories reached directly through
// the Store run outside any transaction; WithinTx hands fn a unit of work
// that commits when fn returns nil and rolls back otherwise.
type Store interface {
	UnitOfWork
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
	Ping(ctx context.Context) error
}
