// Package auth is the slim authentication context: login and self-profile.
package auth

import (
	"log/slog"

	"salesops_backend/internal/auth/handler"
	"salesops_backend/internal/auth/service"
	"salesops_backend/internal/directory/repository"
	apphttp "salesops_backend/internal/http"
	"salesops_backend/platform/config"
	"salesops_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(users *repository.Repository, cfg config.AuthServiceConfig, logger *slog.Logger, validate *validator.Validator) *Module {
	svc := service.New(users, cfg, logger)
	return &Module{handler: handler.New(svc, validate)}
}

func (m *Module) Name() string {
	return "auth"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/auth")
	{
		// Login sits behind the stricter per-IP limiter.
		group.POST("/login", ctx.AuthRateLimiter.RateLimit(), m.handler.Login)
	}

	protected := ctx.Protected.Group("/auth")
	{
		protected.GET("/me", m.handler.Me)
	}
}
