// Package directory is the user directory bounded context: role-scoped agent
// reads for distribution and recycling.
package directory

import (
	apphttp "salesops_backend/internal/http"
	"salesops_backend/internal/directory/handler"
	"salesops_backend/internal/directory/repository"
	"salesops_backend/internal/directory/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{
		handler: handler.New(svc),
		service: svc,
		repo:    repo,
	}
}

// Service returns the directory service, which also satisfies the lead
// engine's agent provider port.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes raw user reads for the auth module.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

func (m *Module) Name() string {
	return "directory"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/directory")
	{
		group.GET("/agents", m.handler.Agents)
	}
}
