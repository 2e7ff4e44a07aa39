package advisor

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/wifi-survey/internal/application"
	domain "github.com/bryanwahyu/wifi-survey/internal/domain/advisor"
	"github.com/bryanwahyu/wifi-survey/internal/domain/store"
	"github.com/bryanwahyu/wifi-survey/internal/logger"
)

// Service asks the AI client for rogue-AP candidates. It never changes
// stored records.
type Service struct {
	client domain.Client
	store  store.Store
	clock  application.Clock
	log    *logger.Logger
}

// NewService builds the advisor; a nil client leaves it disabled
func NewService(client domain.Client, st store.Store, clock application.Clock, log *logger.Logger) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{client: client, store: st, clock: clock, log: log}
}

func (s *Service) Enabled() bool { return s.client != nil }

func (s *Service) Advise(ctx context.Context, environmentID int64) (*domain.Advice, error) {
	if s.client == nil {
		return nil, domain.ErrDisabled
	}
	env, err := s.store.Environments().Get(ctx, environmentID)
	if err != nil {
		return nil, fmt.Errorf("environment %d: %w", environmentID, err)
	}
	records, err := s.store.Scans().ListAll(ctx, environmentID)
	if err != nil {
		return nil, err
	}

	adv, err := s.client.Suggest(ctx, env, records)
	if err != nil {
		s.log.Warn("advisor request failed", "environment", env.ID, "error", err)
		return nil, err
	}
	adv.EnvironmentID = env.ID
	adv.CreatedAt = s.clock.Now()
	s.log.Info("advice generated", "environment", env.ID, "suggestions", len(adv.Suggestions), "model", adv.Model)
	return adv, nil
}
