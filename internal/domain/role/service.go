package role

import (
	"context"

	"github.com/medpraxis/praxis/internal/platform/ability"
)

// HandlerSet reports which role names have a permission handler.
// *ability.Registry satisfies it.
type HandlerSet interface {
	Has(name string) bool
}

type Service struct {
	repo     Repository
	handlers HandlerSet
}

func NewService(repo Repository, handlers HandlerSet) *Service {
	return &Service{repo: repo, handlers: handlers}
}

// ListRoleNames makes the service usable as the role source of an
// ability.Directory.
func (s *Service) ListRoleNames(ctx context.Context) ([]string, error) {
	return s.repo.ListNames(ctx)
}

func (s *Service) Get(ctx context.Context, name string) (*Role, error) {
	return s.repo.GetByName(ctx, name)
}

// Create declares a new role. Only roles that already have a handler can be
// declared, so every stored role stays resolvable.
func (s *Service) Create(ctx context.Context, name string) (*Role, error) {
	if !ValidName(name) {
		return nil, ErrInvalidName
	}
	if !s.handlers.Has(name) {
		return nil, ErrNoHandler
	}
	r := &Role{Name: name}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, name string) error {
	if name == ability.RoleAdmin {
		return ErrBuiltinRole
	}
	return s.repo.Delete(ctx, name)
}
