// Package leads wires the lead lifecycle engine: ingestion, distribution,
// call logging, recycling, and the custody ledger reads.
package leads

import (
	"log/slog"
	"math/rand"
	"time"

	apphttp "salesops_backend/internal/http"
	"salesops_backend/internal/leads/handler"
	"salesops_backend/internal/leads/ports"
	"salesops_backend/internal/leads/repository"
	"salesops_backend/internal/leads/service"
	"salesops_backend/platform/config"
	"salesops_backend/platform/httpkit"
	"salesops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

type Dependencies struct {
	Pool      *pgxpool.Pool
	Agents    ports.AgentProvider
	Scheduler ports.FollowUpScheduler
	Archiver  ports.BatchArchiver
	Gate      ports.ActorGate
	Logger    *slog.Logger
	Validator *validator.Validator
	Engine    config.EngineConfig
}

func NewModule(deps Dependencies) *Module {
	repo := repository.New(deps.Pool)
	svc := service.New(repo, deps.Agents, deps.Scheduler, deps.Archiver, deps.Logger, service.Options{
		TouchBudget:   deps.Engine.GetTouchBudget(),
		FollowUpDelay: deps.Engine.GetFollowUpDelay(),
		Gate:          deps.Gate,
		Rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	return &Module{
		handler: handler.New(svc, deps.Validator, deps.Engine.GetMaxUploadSize()),
		service: svc,
	}
}

// Service exposes the lead service for other modules (worker wiring).
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) Name() string {
	return "leads"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/leads")
	{
		group.POST("/upload", m.handler.Upload)
		group.POST("/distribute", m.handler.Distribute)
		group.POST("/log-call", m.handler.LogCall)
		group.GET("/check-duplicate", m.handler.CheckDuplicate)
		group.GET("/my-leads", m.handler.MyLeads)
		group.GET("/stats", m.handler.Stats)
		group.GET("/batches", m.handler.Batches)
		group.GET("/batches/:id", m.handler.BatchDetails)
		group.GET("/batches/:id/file", m.handler.BatchFile)
		group.DELETE("/batches/:id", m.handler.DeleteBatch)
		group.GET("/:id/lifecycle", m.handler.Lifecycle)

		adminOnly := httpkit.RequireRole("Admin")
		group.POST("/reassign", adminOnly, m.handler.Reassign)
		group.GET("/archived", adminOnly, m.handler.Archived)
	}
}
