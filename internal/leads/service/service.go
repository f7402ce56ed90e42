// Package service implements the lead lifecycle engine: ingestion, waterfall
// distribution, call-outcome transitions, forensic recycling, and the admin
// override. Handlers stay thin; every business decision lives here or in the
// domain package.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"salesops_backend/internal/leads/domain"
	"salesops_backend/internal/leads/ports"
	"salesops_backend/internal/leads/repository"
	"salesops_backend/platform/apperr"
	"salesops_backend/platform/phone"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) isAdmin() bool { return a.Role == "Admin" }

type Service struct {
	store     Store
	agents    ports.AgentProvider
	scheduler ports.FollowUpScheduler
	archiver  ports.BatchArchiver
	gate      ports.ActorGate
	logger    *slog.Logger

	touchBudget   int
	followUpDelay time.Duration
	rng           *rand.Rand
}

type Options struct {
	TouchBudget   int
	FollowUpDelay time.Duration
	// Gate restricts who may distribute or log calls; nil permits everyone.
	Gate ports.ActorGate
	// Rand drives the recycle pick; tests inject a seeded source.
	Rand *rand.Rand
}

func New(store Store, agents ports.AgentProvider, scheduler ports.FollowUpScheduler, archiver ports.BatchArchiver, logger *slog.Logger, opts Options) *Service {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		store:         store,
		agents:        agents,
		scheduler:     scheduler,
		archiver:      archiver,
		gate:          opts.Gate,
		logger:        logger,
		touchBudget:   opts.TouchBudget,
		followUpDelay: opts.FollowUpDelay,
		rng:           rng,
	}
}

func (s *Service) checkGate(ctx context.Context, actor Actor, op string) error {
	if s.gate == nil {
		return nil
	}
	ok, err := s.gate.MayOperate(ctx, actor.ID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "check actor gate", err).WithOp(op)
	}
	if !ok {
		return apperr.Forbidden("you are not permitted to work leads right now").WithOp(op)
	}
	return nil
}

// Distribute slices the caller's New pool across the requested agents in
// order. All-or-nothing: if the pool cannot cover every assignment, nothing
// moves.
func (s *Service) Distribute(ctx context.Context, actor Actor, batchID *uuid.UUID, assignments []domain.Assignment) (int, error) {
	const op = "leads.Distribute"

	if err := s.checkGate(ctx, actor, op); err != nil {
		return 0, err
	}

	for _, a := range assignments {
		if a.Count < 0 {
			return 0, apperr.Validation("assignment counts must not be negative").WithOp(op)
		}
		if _, err := s.agents.AgentByID(ctx, a.AgentID); err != nil {
			return 0, apperr.Validation(fmt.Sprintf("unknown agent %s", a.AgentID)).WithOp(op)
		}
	}

	moved, err := s.store.Distribute(ctx, repository.DistributeParams{
		Distributor:     actor.ID,
		DistributorRole: actor.Role,
		BatchID:         batchID,
		Assignments:     assignments,
	})
	switch {
	case errors.Is(err, domain.ErrNothingRequested):
		return 0, apperr.Validation("no leads requested").WithOp(op)
	case errors.Is(err, domain.ErrInsufficientPool):
		return 0, apperr.Validation("not enough unassigned leads in your pool").WithOp(op)
	case err != nil:
		return 0, apperr.Wrap(apperr.KindInternal, "distribute leads", err).WithOp(op)
	}

	s.logger.Info("leads distributed",
		slog.String("distributor", actor.ID.String()),
		slog.Int("moved", moved),
	)
	return moved, nil
}

// CallLog is one logged call attempt.
type CallLog struct {
	LeadID      uuid.UUID
	Outcome     string
	Notes       string
	Duration    int
	MessageSent *string
}

// CallReport tells the caller what the engine did with the attempt.
type CallReport struct {
	Status     string
	Archived   bool
	Recycled   bool
	RecycledTo *uuid.UUID
}

// LogCall applies one call outcome to a lead: counters, status, history. On
// an immediate-kill outcome the lead is archived at once. On the final
// budgeted touch without interest the lead is recycled to a fresh agent, or
// archived as exhausted when the custody chain has covered every employee.
func (s *Service) LogCall(ctx context.Context, actor Actor, log CallLog) (CallReport, error) {
	const op = "leads.LogCall"

	if err := s.checkGate(ctx, actor, op); err != nil {
		return CallReport{}, err
	}

	lead, err := s.store.GetByID(ctx, log.LeadID)
	if errors.Is(err, repository.ErrNotFound) {
		return CallReport{}, apperr.NotFound("lead not found").WithOp(op)
	}
	if err != nil {
		return CallReport{}, apperr.Wrap(apperr.KindInternal, "load lead", err).WithOp(op)
	}

	if lead.IsArchived {
		return CallReport{}, apperr.Conflict("lead is archived").WithOp(op)
	}
	if !actor.isAdmin() && (lead.AssignedTo == nil || *lead.AssignedTo != actor.ID) {
		return CallReport{}, apperr.Forbidden("lead is not assigned to you").WithOp(op)
	}

	result := domain.ApplyCallOutcome(lead.TouchCount, log.Outcome, s.touchBudget)

	transition := repository.CallTransition{
		LeadID:             lead.ID,
		ExpectedTouchCount: lead.TouchCount,
		TouchCount:         result.TouchCount,
		Status:             string(result.Status),
		LastCallOutcome:    log.Outcome,
		History: []repository.HistoryAppend{{
			Action:          result.HistoryAction,
			ActorID:         actor.ID,
			Details:         log.Notes,
			DurationSeconds: log.Duration,
			MessageSent:     log.MessageSent,
		}},
	}

	report := CallReport{Status: string(result.Status)}

	switch {
	case result.Kill:
		reason := domain.KillReason(log.Outcome)
		transition.Archive = true
		transition.ArchiveReason = &reason
		transition.SetOwner = true
		transition.NewOwner = nil
		report.Archived = true

	case result.NeedsRecycle:
		owners, err := s.store.CustodyOwners(ctx, lead.ID)
		if err != nil {
			return CallReport{}, apperr.Wrap(apperr.KindInternal, "load custody chain", err).WithOp(op)
		}
		exclude := domain.ExclusionSet(owners, actor.ID)

		fresh, err := s.agents.AgentsByRoleExcluding(ctx, domain.RecycleRole, exclude)
		if err != nil {
			return CallReport{}, apperr.Wrap(apperr.KindInternal, "find fresh agents", err).WithOp(op)
		}
		freshIDs := make([]uuid.UUID, len(fresh))
		byID := make(map[uuid.UUID]ports.Agent, len(fresh))
		for i, agent := range fresh {
			freshIDs[i] = agent.ID
			byID[agent.ID] = agent
		}

		if next, ok := domain.PickFreshAgent(freshIDs, s.rng); ok {
			caller := actor.ID
			transition.TouchCount = 0
			transition.Status = string(domain.StatusNew)
			transition.SetOwner = true
			transition.NewOwner = &next
			transition.Custody = &repository.CustodyAppend{
				AssignedTo: &caller,
				AssignedBy: caller,
				RoleAtTime: domain.RecycleRole,
			}
			transition.History = append(transition.History, repository.HistoryAppend{
				Action:  "System Recycle",
				ActorID: actor.ID,
				Details: fmt.Sprintf("Max touches reached. Recycled to %s (Fresh Agent).", byID[next].Name),
			})
			report.Status = string(domain.StatusNew)
			report.Recycled = true
			report.RecycledTo = &next
		} else {
			reason := domain.ExhaustedReason
			transition.Archive = true
			transition.ArchiveReason = &reason
			transition.SetOwner = true
			transition.NewOwner = nil
			transition.Status = string(domain.StatusArchived)
			report.Status = string(domain.StatusArchived)
			report.Archived = true
		}
	}

	if err := s.store.ApplyCallTransition(ctx, transition); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return CallReport{}, apperr.Conflict("lead was modified by another call, retry").WithOp(op)
		}
		return CallReport{}, apperr.Wrap(apperr.KindInternal, "apply call transition", err).WithOp(op)
	}

	// Follow-up scheduling never fails the logged call. The transition is
	// already committed; a lost reminder is recoverable, a lost call is not.
	if result.FollowUp && !report.Recycled && !report.Archived && s.scheduler != nil {
		followUp := ports.FollowUp{
			LeadID:  lead.ID,
			AgentID: actor.ID,
			Outcome: log.Outcome,
			DueAt:   time.Now().Add(s.followUpDelay),
		}
		if err := s.scheduler.ScheduleFollowUp(ctx, followUp); err != nil {
			s.logger.Error("follow-up enqueue failed",
				slog.String("leadId", lead.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	return report, nil
}

// AdminReassign force-moves a lead to a new agent, wiping counters and the
// archive flag. Only path that resurrects a dead lead.
func (s *Service) AdminReassign(ctx context.Context, actor Actor, leadID, newAgentID uuid.UUID) error {
	const op = "leads.AdminReassign"

	if _, err := s.agents.AgentByID(ctx, newAgentID); err != nil {
		return apperr.Validation("unknown target agent").WithOp(op)
	}

	err := s.store.AdminReassign(ctx, leadID, newAgentID, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found").WithOp(op)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "admin reassign", err).WithOp(op)
	}
	return nil
}

func (s *Service) MyLeads(ctx context.Context, actor Actor, limit int) ([]repository.Lead, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	leads, err := s.store.ListByOwner(ctx, actor.ID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list leads", err).WithOp("leads.MyLeads")
	}
	return leads, nil
}

func (s *Service) ArchivedLeads(ctx context.Context) ([]repository.Lead, error) {
	leads, err := s.store.ListArchived(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list archived leads", err).WithOp("leads.ArchivedLeads")
	}
	return leads, nil
}

// Lifecycle is the full forensic view of one lead.
type Lifecycle struct {
	Lead    repository.Lead
	Custody []repository.CustodyEntry
	History []repository.HistoryEntry
}

func (s *Service) LeadLifecycle(ctx context.Context, leadID uuid.UUID) (Lifecycle, error) {
	const op = "leads.LeadLifecycle"

	lead, err := s.store.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return Lifecycle{}, apperr.NotFound("lead not found").WithOp(op)
	}
	if err != nil {
		return Lifecycle{}, apperr.Wrap(apperr.KindInternal, "load lead", err).WithOp(op)
	}

	custody, err := s.store.ListCustody(ctx, leadID)
	if err != nil {
		return Lifecycle{}, apperr.Wrap(apperr.KindInternal, "load custody chain", err).WithOp(op)
	}
	history, err := s.store.ListHistory(ctx, leadID)
	if err != nil {
		return Lifecycle{}, apperr.Wrap(apperr.KindInternal, "load history", err).WithOp(op)
	}

	return Lifecycle{Lead: lead, Custody: custody, History: history}, nil
}

func (s *Service) Batches(ctx context.Context) ([]repository.BatchSummary, error) {
	batches, err := s.store.ListBatches(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list batches", err).WithOp("leads.Batches")
	}
	return batches, nil
}

func (s *Service) BatchLeads(ctx context.Context, batchID uuid.UUID) (repository.Batch, []repository.Lead, error) {
	const op = "leads.BatchLeads"

	batch, err := s.store.GetBatch(ctx, batchID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Batch{}, nil, apperr.NotFound("batch not found").WithOp(op)
	}
	if err != nil {
		return repository.Batch{}, nil, apperr.Wrap(apperr.KindInternal, "load batch", err).WithOp(op)
	}

	leads, err := s.store.ListByBatch(ctx, batchID)
	if err != nil {
		return repository.Batch{}, nil, apperr.Wrap(apperr.KindInternal, "list batch leads", err).WithOp(op)
	}
	return batch, leads, nil
}

// DuplicateCheck reports whether a phone number is already in the pool.
type DuplicateCheck struct {
	IsDuplicate bool
	Existing    *repository.Lead
}

func (s *Service) CheckDuplicate(ctx context.Context, rawPhone string) (DuplicateCheck, error) {
	const op = "leads.CheckDuplicate"

	number, ok := phone.Normalize(rawPhone)
	if !ok {
		return DuplicateCheck{}, apperr.Validation("invalid phone number").WithOp(op)
	}

	lead, err := s.store.GetByPhone(ctx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return DuplicateCheck{}, nil
	}
	if err != nil {
		return DuplicateCheck{}, apperr.Wrap(apperr.KindInternal, "lookup phone", err).WithOp(op)
	}
	return DuplicateCheck{IsDuplicate: true, Existing: &lead}, nil
}

// BatchFileURL returns a short-lived download link for the archived source
// file of a batch, when file storage is configured.
func (s *Service) BatchFileURL(ctx context.Context, batchID uuid.UUID) (string, error) {
	const op = "leads.BatchFileURL"

	batch, err := s.store.GetBatch(ctx, batchID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apperr.NotFound("batch not found").WithOp(op)
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "load batch", err).WithOp(op)
	}

	if s.archiver == nil || batch.FileKey == nil {
		return "", apperr.NotFound("no archived file for this batch").WithOp(op)
	}

	url, err := s.archiver.PresignDownload(ctx, *batch.FileKey)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "presign batch file", err).WithOp(op)
	}
	return url, nil
}

// DeleteBatch removes a batch and its untouched leads. Admins may delete any
// batch; branch managers only their own uploads.
func (s *Service) DeleteBatch(ctx context.Context, actor Actor, batchID uuid.UUID) (repository.SafeDeleteResult, error) {
	const op = "leads.DeleteBatch"

	batch, err := s.store.GetBatch(ctx, batchID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.SafeDeleteResult{}, apperr.NotFound("batch not found").WithOp(op)
	}
	if err != nil {
		return repository.SafeDeleteResult{}, apperr.Wrap(apperr.KindInternal, "load batch", err).WithOp(op)
	}

	if !actor.isAdmin() && batch.UploadedBy != actor.ID {
		return repository.SafeDeleteResult{}, apperr.Forbidden("you can only delete your own uploads").WithOp(op)
	}

	result, err := s.store.SafeDeleteBatch(ctx, batchID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.SafeDeleteResult{}, apperr.NotFound("batch not found").WithOp(op)
	}
	if err != nil {
		return repository.SafeDeleteResult{}, apperr.Wrap(apperr.KindInternal, "delete batch", err).WithOp(op)
	}

	s.logger.Info("batch deleted",
		slog.String("batchId", batchID.String()),
		slog.Int("deleted", result.Deleted),
		slog.Int("retained", result.Retained),
	)
	return result, nil
}

// Stats is the agent dashboard snapshot.
type Stats struct {
	AvailableLeads int `json:"availableLeads"`
	CallsToday     int `json:"callsToday"`
}

func (s *Service) MyStats(ctx context.Context, actor Actor) (Stats, error) {
	const op = "leads.MyStats"

	available, err := s.store.CountPool(ctx, actor.ID)
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.KindInternal, "count pool", err).WithOp(op)
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	calls, err := s.store.CountCallsSince(ctx, actor.ID, startOfDay, now.Add(time.Second))
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.KindInternal, "count calls", err).WithOp(op)
	}

	return Stats{AvailableLeads: available, CallsToday: calls}, nil
}
