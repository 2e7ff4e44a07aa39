package environments

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/wifi-survey/internal/application"
	domain "github.com/bryanwahyu/wifi-survey/internal/domain/environments"
	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
	"github.com/bryanwahyu/wifi-survey/internal/domain/store"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/domain/uploads"
	"github.com/bryanwahyu/wifi-survey/internal/domain/users"
	"github.com/bryanwahyu/wifi-survey/internal/logger"
)

const (
	MaxNameLength = 100
	recentUploads = 5
)

// Service manages survey environments
type Service struct {
	Store store.Store
	Clock application.Clock
	Log   *logger.Logger
}

func NewService(st store.Store, clock application.Clock, log *logger.Logger) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{Store: st, Clock: clock, Log: log}
}

// Summary is one row of the environment listing
type Summary struct {
	*domain.Environment
	Stats surveys.Stats `json:"stats"`
}

// Detail is the environment page: stats plus the latest upload attempts
type Detail struct {
	*domain.Environment
	Stats         surveys.Stats    `json:"stats"`
	RecentUploads []*uploads.Batch `json:"recent_uploads"`
}

// DeleteResult reports what an environment delete removed
type DeleteResult struct {
	Name         string `json:"name"`
	ScansDeleted int64  `json:"scans_deleted"`
}

// Create adds an environment; only administrators may do so and a name
// is unique per creating administrator.
func (s *Service) Create(ctx context.Context, actor *users.User, name string) (*domain.Environment, error) {
	if err := users.RequireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return nil, fmt.Errorf("environment name must be 1 to %d characters: %w", MaxNameLength, shared.ErrValidation)
	}

	exists, err := s.Store.Environments().ExistsByName(ctx, name, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("an environment named %q already exists: %w", name, shared.ErrConflict)
	}

	env := &domain.Environment{Name: name, CreatedBy: actor.ID, CreatedAt: s.Clock.Now()}
	if err := s.Store.Environments().Create(ctx, env); err != nil {
		return nil, err
	}
	s.Log.Info("environment created", "environment", env.ID, "name", env.Name, "by", actor.ID)
	return env, nil
}

// List returns every environment with its scan statistics
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	envs, err := s.Store.Environments().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(envs))
	for _, e := range envs {
		st, err := s.Store.Scans().Stats(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("stats for environment %d: %w", e.ID, err)
		}
		out = append(out, Summary{Environment: e, Stats: st})
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	env, err := s.Store.Environments().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("environment %d: %w", id, err)
	}
	st, err := s.Store.Scans().Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	recent, err := s.Store.Uploads().ListByEnvironment(ctx, id, recentUploads)
	if err != nil {
		return nil, err
	}
	return &Detail{Environment: env, Stats: st, RecentUploads: recent}, nil
}

// Delete removes an environment together with its records and upload
// log in one unit of work.
func (s *Service) Delete(ctx context.Context, actor *users.User, id int64) (*DeleteResult, error) {
	if err := users.RequireAdmin(actor); err != nil {
		return nil, err
	}
	var res DeleteResult
	err := s.Store.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		env, err := uow.Environments().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("environment %d: %w", id, err)
		}
		res.Name = env.Name
		if res.ScansDeleted, err = uow.Scans().DeleteByEnvironment(ctx, id); err != nil {
			return err
		}
		if _, err := uow.Uploads().DeleteByEnvironment(ctx, id); err != nil {
			return err
		}
		return uow.Environments().Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("environment deleted", "environment", id, "scans", res.ScansDeleted, "by", actor.ID)
	return &res, nil
}
