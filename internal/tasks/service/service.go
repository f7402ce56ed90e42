// Package service holds the thin task logic, including the callback-reminder
// sink the follow-up worker writes into.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesops_backend/internal/tasks/repository"
	"salesops_backend/platform/apperr"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) MyTasks(ctx context.Context, userID uuid.UUID) ([]repository.Task, error) {
	tasks, err := s.repo.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list tasks", err).WithOp("tasks.MyTasks")
	}
	return tasks, nil
}

func (s *Service) SetStatus(ctx context.Context, userID, taskID uuid.UUID, status string) error {
	const op = "tasks.SetStatus"

	if status != "Pending" && status != "Completed" {
		return apperr.Validation("status must be Pending or Completed").WithOp(op)
	}

	err := s.repo.SetStatus(ctx, taskID, userID, status)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("task not found").WithOp(op)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "update task", err).WithOp(op)
	}
	return nil
}

// CreateCallbackReminder writes the System-Callback task a fired follow-up
// produces. Called from the worker, not from HTTP.
func (s *Service) CreateCallbackReminder(ctx context.Context, agentID, leadID uuid.UUID, outcome string, due time.Time) error {
	_, err := s.repo.Create(ctx, repository.CreateTaskParams{
		Title:       "Follow up on lead",
		Description: description(fmt.Sprintf("Last outcome was %q. Call this lead again.", outcome)),
		AssignedBy:  agentID,
		AssignedTo:  agentID,
		Type:        "System-Callback",
		RelatedLead: &leadID,
		Priority:    "High",
		DueDate:     due,
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "create reminder", err).WithOp("tasks.CreateCallbackReminder")
	}
	return nil
}

func description(s string) *string { return &s }
