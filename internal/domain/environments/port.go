package environments

import "context"

// Repository port for environments
type Repository interface {
	Create(ctx context.Context, e *Environment) error
	Get(ctx context.Context, id int64) (*Environment, error)
	List(ctx context.Context) ([]*Environment, error)
	ExistsByName(ctx context.Context, name string, createdBy int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}
