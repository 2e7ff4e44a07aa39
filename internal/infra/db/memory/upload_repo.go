package memory

import (
	"context"
	"sort"

	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
	"github.com/bryanwahyu/wifi-survey/internal/domain/uploads"
)

type uploadRepo struct {
	locked func(func(*state) error) error
}

func (r *uploadRepo) Save(_ context.Context, b *uploads.Batch) error {
	return r.locked(func(s *state) error {
		if _, ok := s.envs[b.EnvironmentID]; !ok {
			return shared.ErrNotFound
		}
		s.batches = append(s.batches, copyBatch(b))
		return nil
	})
}

// ListByEnvironment returns newest batches first
func (r *uploadRepo) ListByEnvironment(_ context.Context, environmentID int64, limit int) ([]*uploads.Batch, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []*uploads.Batch
	err := r.locked(func(s *state) error {
		for _, b := range s.batches {
			if b.EnvironmentID == environmentID {
				out = append(out, copyBatch(b))
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *uploadRepo) DeleteByEnvironment(_ context.Context, environmentID int64) (int64, error) {
	var n int64
	err := r.locked(func(s *state) error {
		n = s.deleteBatches(environmentID)
		return nil
	})
	return n, err
}

func (s *state) deleteBatches(environmentID int64) int64 {
	kept := s.batches[:0]
	var n int64
	for _, b := range s.batches {
		if b.EnvironmentID == environmentID {
			n++
			continue
		}
		kept = append(kept, b)
	}
	s.batches = kept
	return n
}
