// Package service exposes directory reads and adapts them to the agent
// lookup the lead engine depends on.
package service

import (
	"context"
	"errors"

	"salesops_backend/internal/directory/repository"
	"salesops_backend/internal/leads/ports"
	"salesops_backend/platform/apperr"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (repository.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, apperr.NotFound("user not found").WithOp("directory.UserByID")
	}
	if err != nil {
		return repository.User{}, apperr.Wrap(apperr.KindInternal, "load user", err).WithOp("directory.UserByID")
	}
	return user, nil
}

func (s *Service) AgentsByRole(ctx context.Context, role string) ([]repository.User, error) {
	users, err := s.repo.ListByRole(ctx, role, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list agents", err).WithOp("directory.AgentsByRole")
	}
	return users, nil
}

// AgentByID implements ports.AgentProvider.
func (s *Service) AgentByID(ctx context.Context, id uuid.UUID) (ports.Agent, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ports.Agent{}, err
	}
	if !user.IsActive {
		return ports.Agent{}, repository.ErrNotFound
	}
	return ports.Agent{ID: user.ID, Name: user.Name, Role: user.Role}, nil
}

// AgentsByRoleExcluding implements ports.AgentProvider.
func (s *Service) AgentsByRoleExcluding(ctx context.Context, role string, exclude []uuid.UUID) ([]ports.Agent, error) {
	users, err := s.repo.ListByRole(ctx, role, exclude)
	if err != nil {
		return nil, err
	}
	agents := make([]ports.Agent, len(users))
	for i, u := range users {
		agents[i] = ports.Agent{ID: u.ID, Name: u.Name, Role: u.Role}
	}
	return agents, nil
}
