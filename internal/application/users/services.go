package users

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/wifi-survey/internal/application"
	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
	"github.com/bryanwahyu/wifi-survey/internal/domain/store"
	domain "github.com/bryanwahyu/wifi-survey/internal/domain/users"
	"github.com/bryanwahyu/wifi-survey/internal/logger"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 80
	MinPasswordLength = 6
)

// Service handles registration, login and account administration
type Service struct {
	Store      store.Store
	Clock      application.Clock
	Log        *logger.Logger
	BcryptCost int
}

func NewService(st store.Store, clock application.Clock, log *logger.Logger, bcryptCost int) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{Store: st, Clock: clock, Log: log, BcryptCost: bcryptCost}
}

// Register creates an account. The first account becomes an approved
// administrator; later ones wait for approval.
func (s *Service) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if n := len(username); n < MinUsernameLength || n > MaxUsernameLength {
		return nil, fmt.Errorf("username must be %d to %d characters: %w", MinUsernameLength, MaxUsernameLength, shared.ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	var u *domain.User
	err = s.Store.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		if err := uow.Users().LockRegistration(ctx); err != nil {
			return err
		}
		if _, err := uow.Users().GetByUsername(ctx, username); err == nil {
			return domain.ErrUsernameTaken
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		count, err := uow.Users().Count(ctx)
		if err != nil {
			return err
		}
		u = domain.NewRegistration(username, string(hash), count)
		u.CreatedAt = s.Clock.Now()
		return uow.Users().Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("user registered", "user", u.ID, "username", u.Username, "admin", u.IsAdmin)
	return u, nil
}

// Authenticate checks credentials and the approval rule
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.Store.Users().GetByUsername(ctx, username)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, domain.ErrInvalidLogin
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidLogin
	}
	if err := domain.CheckLogin(u); err != nil {
		return nil, err
	}
	return u, nil
}

// List returns all accounts, pending ones first
func (s *Service) List(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	all, err := s.Store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Pending() && !all[j].Pending() })
	return all, nil
}

// Approve lets a pending account log in
func (s *Service) Approve(ctx context.Context, actor *domain.User, id int64) (*domain.User, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	var u *domain.User
	err := s.Store.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		var err error
		if u, err = uow.Users().Get(ctx, id); err != nil {
			return fmt.Errorf("user %d: %w", id, err)
		}
		if !u.Pending() {
			return domain.ErrNotPending
		}
		u.IsApproved = true
		return uow.Users().Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("user approved", "user", u.ID, "by", actor.ID)
	return u, nil
}

// Reject removes a pending account
func (s *Service) Reject(ctx context.Context, actor *domain.User, id int64) (*domain.User, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	var u *domain.User
	err := s.Store.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		var err error
		if u, err = uow.Users().Get(ctx, id); err != nil {
			return fmt.Errorf("user %d: %w", id, err)
		}
		if !u.Pending() {
			return domain.ErrNotPending
		}
		return uow.Users().Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("user rejected", "user", u.ID, "username", u.Username, "by", actor.ID)
	return u, nil
}

// AssignRole changes another account's role, keeping at least one admin
func (s *Service) AssignRole(ctx context.Context, actor *domain.User, id int64, role domain.Role) (*domain.User, error) {
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return nil, fmt.Errorf("unknown role %q: %w", role, shared.ErrValidation)
	}
	var u *domain.User
	err := s.Store.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		var err error
		if u, err = uow.Users().Get(ctx, id); err != nil {
			return fmt.Errorf("user %d: %w", id, err)
		}
		admins, err := uow.Users().CountAdmins(ctx)
		if err != nil {
			return err
		}
		if err := domain.CheckRoleChange(actor, u, role, admins); err != nil {
			return err
		}
		domain.ApplyRole(u, role)
		return uow.Users().Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("user role changed", "user", u.ID, "role", role, "by", actor.ID)
	return u, nil
}

// Dashboard is the administrator overview
type Dashboard struct {
	PendingUsers      []*domain.User `json:"pending_users"`
	Users             []*domain.User `json:"users"`
	TotalEnvironments int            `json:"total_environments"`
	TotalScans        int            `json:"total_scans"`
}

func (s *Service) Dashboard(ctx context.Context, actor *domain.User) (*Dashboard, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	pending, err := s.Store.Users().ListPending(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.Store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	envs, err := s.Store.Environments().List(ctx)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{PendingUsers: pending, Users: all, TotalEnvironments: len(envs)}
	for _, e := range envs {
		st, err := s.Store.Scans().Stats(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		d.TotalScans += st.TotalScans
	}
	return d, nil
}
