package users

import (
	"errors"
	"fmt"

	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
)

var (
	ErrPendingApproval = errors.New("account is pending approval from an administrator")
	ErrInvalidLogin    = fmt.Errorf("invalid username or password: %w", shared.ErrUnauthorized)
	ErrAdminRequired   = fmt.Errorf("administrator access required: %w", shared.ErrForbidden)
	ErrSelfRoleChange  = fmt.Errorf("you cannot change your own role: %w", shared.ErrForbidden)
	ErrLastAdmin       = fmt.Errorf("cannot demote the last admin user, there must be at least one admin: %w", shared.ErrConflict)
	ErrNotPending      = fmt.Errorf("user is not pending approval: %w", shared.ErrConflict)
	ErrUsernameTaken   = fmt.Errorf("username already taken: %w", shared.ErrConflict)
)
