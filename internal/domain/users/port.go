package users

import "context"

// Repository port for user accounts
type Repository interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	ListPending(ctx context.Context) ([]*User, error)
	Count(ctx context.Context) (int, error)
	// LockRegistration serializes sign-ups until the surrounding
	// transaction ends, so the first-account check cannot race.
	LockRegistration(ctx context.Context) error
	CountAdmins(ctx context.Context) (int, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}
