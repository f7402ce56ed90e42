// Package repository persists task rows, including the system reminders the
// scheduler materialises after a deferred follow-up fires.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("task not found")

type Task struct {
	ID          uuid.UUID
	Title       string
	Description *string
	AssignedBy  uuid.UUID
	AssignedTo  uuid.UUID
	Type        string
	RelatedLead *uuid.UUID
	Priority    string
	Status      string
	DueDate     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, title, description, assigned_by, assigned_to, type,
	related_lead, priority, status, due_date, created_at, updated_at`

type CreateTaskParams struct {
	Title       string
	Description *string
	AssignedBy  uuid.UUID
	AssignedTo  uuid.UUID
	Type        string
	RelatedLead *uuid.UUID
	Priority    string
	DueDate     time.Time
}

func (r *Repository) Create(ctx context.Context, params CreateTaskParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, assigned_by, assigned_to, type, related_lead, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, params.Title, params.Description, params.AssignedBy, params.AssignedTo,
		params.Type, params.RelatedLead, params.Priority, params.DueDate).Scan(&id)
	return id, err
}

// ListByAssignee returns the user's tasks, pending first, then by due date.
func (r *Repository) ListByAssignee(ctx context.Context, assignee uuid.UUID) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE assigned_to = $1
		ORDER BY (status = 'Pending') DESC, due_date ASC
	`, assignee)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.AssignedBy, &t.AssignedTo, &t.Type,
			&t.RelatedLead, &t.Priority, &t.Status, &t.DueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// SetStatus updates a task owned by the given assignee.
func (r *Repository) SetStatus(ctx context.Context, taskID, assignee uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET status = $3, updated_at = now()
		WHERE id = $1 AND assigned_to = $2
	`, taskID, assignee, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
