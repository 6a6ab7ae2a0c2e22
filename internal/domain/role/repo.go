package role

import (
	"context"
)

// Repository defines the persistence interface for roles.
type Repository interface {
	ListNames(ctx context.Context) ([]string, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	Create(ctx context.Context, r *Role) error
	Delete(ctx context.Context, name string) error
}
