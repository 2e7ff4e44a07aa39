package memory

import (
	"context"
	"sort"
	"time"

	"github.com/bryanwahyu/wifi-survey/internal/domain/environments"
	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
)

type environmentRepo struct {
	locked func(func(*state) error) error
}

func (r *environmentRepo) Create(_ context.Context, e *environments.Environment) error {
	return r.locked(func(s *state) error {
		for _, other := range s.envs {
			if other.Name == e.Name && other.CreatedBy == e.CreatedBy {
				return shared.ErrConflict
			}
		}
		s.nextEnv++
		e.ID = s.nextEnv
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		c := *e
		s.envs[e.ID] = &c
		return nil
	})
}

func (r *environmentRepo) Get(_ context.Context, id int64) (*environments.Environment, error) {
	var out *environments.Environment
	err := r.locked(func(s *state) error {
		e, ok := s.envs[id]
		if !ok {
			return shared.ErrNotFound
		}
		c := *e
		out = &c
		return nil
	})
	return out, err
}

func (r *environmentRepo) List(context.Context) ([]*environments.Environment, error) {
	var out []*environments.Environment
	err := r.locked(func(s *state) error {
		for _, e := range s.envs {
			c := *e
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *environmentRepo) ExistsByName(_ context.Context, name string, createdBy int64) (bool, error) {
	var found bool
	err := r.locked(func(s *state) error {
		for _, e := range s.envs {
			if e.Name == name && e.CreatedBy == createdBy {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

// Delete cascades to the environment's scans and upload batches
func (r *environmentRepo) Delete(_ context.Context, id int64) error {
	return r.locked(func(s *state) error {
		if _, ok := s.envs[id]; !ok {
			return shared.ErrNotFound
		}
		delete(s.envs, id)
		s.deleteScans(id)
		s.deleteBatches(id)
		return nil
	})
}
