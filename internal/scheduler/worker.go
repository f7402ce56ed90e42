package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	leadsrepo "salesops_backend/internal/leads/repository"
	tasksvc "salesops_backend/internal/tasks/service"
	"salesops_backend/platform/config"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  *leadsrepo.Repository
	tasks  *tasksvc.Service
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, tasks *tasksvc.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		leads:  leadsrepo.New(pool),
		tasks:  tasks,
		log:    log,
	}

	mux.HandleFunc(TaskLeadFollowUp, w.handleLeadFollowUp)

	return w, nil
}

// handleLeadFollowUp materialises a fired follow-up as a reminder task,
// unless the lead has meanwhile been archived or moved to another agent.
func (w *Worker) handleLeadFollowUp(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadFollowUpPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}
	agentID, err := uuid.Parse(payload.AgentID)
	if err != nil {
		return err
	}

	lead, err := w.leads.GetByID(ctx, leadID)
	if errors.Is(err, leadsrepo.ErrNotFound) {
		w.log.Info("follow-up dropped, lead deleted", "leadId", payload.LeadID)
		return nil
	}
	if err != nil {
		return err
	}

	if lead.IsArchived {
		w.log.Info("follow-up dropped, lead archived", "leadId", payload.LeadID)
		return nil
	}
	if lead.AssignedTo == nil || *lead.AssignedTo != agentID {
		w.log.Info("follow-up dropped, lead reassigned", "leadId", payload.LeadID)
		return nil
	}

	return w.tasks.CreateCallbackReminder(ctx, agentID, leadID, payload.Outcome, time.Now())
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
