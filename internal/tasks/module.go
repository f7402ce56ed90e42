// Package tasks is the task collaborator context: agent to-do reads plus the
// reminder rows the follow-up worker creates.
package tasks

import (
	apphttp "salesops_backend/internal/http"
	"salesops_backend/internal/tasks/handler"
	"salesops_backend/internal/tasks/repository"
	"salesops_backend/internal/tasks/service"
	"salesops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, validate *validator.Validator) *Module {
	svc := service.New(repository.New(pool))
	return &Module{
		handler: handler.New(svc, validate),
		service: svc,
	}
}

// Service exposes the task service for the worker wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) Name() string {
	return "tasks"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/tasks")
	{
		group.GET("/my", m.handler.MyTasks)
		group.PATCH("/:id/status", m.handler.SetStatus)
	}
}
