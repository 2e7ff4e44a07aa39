package memory

import (
	"context"
	"sort"
	"time"

	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
	"github.com/bryanwahyu/wifi-survey/internal/domain/users"
)

type userRepo struct {
	locked func(func(*state) error) error
}

func (r *userRepo) Create(_ context.Context, u *users.User) error {
	return r.locked(func(s *state) error {
		for _, other := range s.users {
			if other.Username == u.Username {
				return users.ErrUsernameTaken
			}
		}
		s.nextUser++
		u.ID = s.nextUser
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now().UTC()
		}
		c := *u
		s.users[u.ID] = &c
		return nil
	})
}

func (r *userRepo) Get(_ context.Context, id int64) (*users.User, error) {
	return r.find(func(u *users.User) bool { return u.ID == id })
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*users.User, error) {
	return r.find(func(u *users.User) bool { return u.Username == username })
}

func (r *userRepo) find(match func(*users.User) bool) (*users.User, error) {
	var out *users.User
	err := r.locked(func(s *state) error {
		for _, u := range s.users {
			if match(u) {
				c := *u
				out = &c
				return nil
			}
		}
		return shared.ErrNotFound
	})
	return out, err
}

func (r *userRepo) List(context.Context) ([]*users.User, error) {
	return r.filter(func(*users.User) bool { return true })
}

func (r *userRepo) ListPending(context.Context) ([]*users.User, error) {
	return r.filter((*users.User).Pending)
}

func (r *userRepo) filter(keep func(*users.User) bool) ([]*users.User, error) {
	var out []*users.User
	err := r.locked(func(s *state) error {
		for _, u := range s.users {
			if keep(u) {
				c := *u
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	all, err := r.List(ctx)
	return len(all), err
}

// LockRegistration is a no-op: a memory transaction already holds the store lock
func (r *userRepo) LockRegistration(context.Context) error { return nil }

func (r *userRepo) CountAdmins(context.Context) (int, error) {
	admins, err := r.filter(func(u *users.User) bool { return u.IsAdmin })
	return len(admins), err
}

func (r *userRepo) Update(_ context.Context, u *users.User) error {
	return r.locked(func(s *state) error {
		if _, ok := s.users[u.ID]; !ok {
			return shared.ErrNotFound
		}
		c := *u
		s.users[u.ID] = &c
		return nil
	})
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	return r.locked(func(s *state) error {
		if _, ok := s.users[id]; !ok {
			return shared.ErrNotFound
		}
		delete(s.users, id)
		return nil
	})
}
