// Package repository persists leads, their custody ledger, and their
// interaction history in PostgreSQL. All single-lead transitions are applied
// in one transaction so that counters, status, and ledger entries never drift
// apart.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salesops_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("lead not found")
	// ErrStale means a compare-and-swap update found the lead already
	// modified by a concurrent transition.
	ErrStale = errors.New("lead modified concurrently")
)

const leadColumns = `id, phone_number, name, status, touch_count, call_count,
	last_call_outcome, last_call_at, is_archived, archive_reason,
	assigned_to, batch_id, original_raw, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID              uuid.UUID
	PhoneNumber     string
	Name            string
	Status          string
	TouchCount      int
	CallCount       int
	LastCallOutcome *string
	LastCallAt      *time.Time
	IsArchived      bool
	ArchiveReason   *string
	AssignedTo      *uuid.UUID
	BatchID         *uuid.UUID
	OriginalRaw     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.PhoneNumber, &lead.Name, &lead.Status, &lead.TouchCount, &lead.CallCount,
		&lead.LastCallOutcome, &lead.LastCallAt, &lead.IsArchived, &lead.ArchiveReason,
		&lead.AssignedTo, &lead.BatchID, &lead.OriginalRaw, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1`, leadColumns), id)
	return scanLead(row)
}

func (r *Repository) GetByPhone(ctx context.Context, phone string) (Lead, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM leads WHERE phone_number = $1`, leadColumns), phone)
	return scanLead(row)
}

func (r *Repository) collectLeads(ctx context.Context, query string, args ...interface{}) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// ListByOwner returns the newest leads assigned to one agent.
func (r *Repository) ListByOwner(ctx context.Context, owner uuid.UUID, limit int) ([]Lead, error) {
	return r.collectLeads(ctx, fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE assigned_to = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, leadColumns), owner, limit)
}

func (r *Repository) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]Lead, error) {
	return r.collectLeads(ctx, fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE batch_id = $1
		ORDER BY created_at ASC
	`, leadColumns), batchID)
}

func (r *Repository) ListArchived(ctx context.Context) ([]Lead, error) {
	return r.collectLeads(ctx, fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE is_archived
		ORDER BY updated_at DESC
	`, leadColumns))
}

// CountPool returns the size of an agent's unworked (New) pool.
func (r *Repository) CountPool(ctx context.Context, owner uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM leads WHERE assigned_to = $1 AND status = 'New'
	`, owner).Scan(&count)
	return count, err
}

// CountCallsSince counts call attempts logged by one agent in a time window.
// Only history actions carrying the "Call" prefix count as contact attempts.
func (r *Repository) CountCallsSince(ctx context.Context, actor uuid.UUID, from, to time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM lead_history
		WHERE actor_id = $1 AND action LIKE 'Call%' AND created_at >= $2 AND created_at < $3
	`, actor, from, to).Scan(&count)
	return count, err
}

// NewLead is one candidate row produced by the ingestion pipeline.
type NewLead struct {
	PhoneNumber string
	Name        string
	AssignedTo  uuid.UUID
	BatchID     uuid.UUID
	OriginalRaw string
}

// BulkInsert inserts candidate leads unordered, skipping any phone number the
// store already holds. Returns the number of rows actually persisted; a
// duplicate collision is a count delta, not an error.
func (r *Repository) BulkInsert(ctx context.Context, leads []NewLead) (int, error) {
	batch := &pgx.Batch{}
	for _, lead := range leads {
		batch.Queue(`
			INSERT INTO leads (phone_number, name, status, assigned_to, batch_id, original_raw)
			VALUES ($1, $2, 'New', $3, $4, $5)
			ON CONFLICT (phone_number) DO NOTHING
		`, lead.PhoneNumber, lead.Name, lead.AssignedTo, lead.BatchID, lead.OriginalRaw)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range leads {
		tag, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// DistributeParams is one waterfall distribution call.
type DistributeParams struct {
	Distributor     uuid.UUID
	DistributorRole string
	BatchID         *uuid.UUID
	Assignments     []domain.Assignment
}

// Distribute performs the waterfall hand-off in one transaction: the
// distributor's New pool is locked in creation order, sliced per assignment,
// and every moved lead gains its paired custody and history entries. The pool
// lock serialises concurrent distribution calls against the same distributor.
// Returns domain.ErrInsufficientPool / domain.ErrNothingRequested unchanged
// so the service can map them to validation errors.
func (r *Repository) Distribute(ctx context.Context, params DistributeParams) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	poolQuery := `
		SELECT id FROM leads
		WHERE assigned_to = $1 AND status = 'New'
		ORDER BY created_at ASC
		FOR UPDATE
	`
	args := []interface{}{params.Distributor}
	if params.BatchID != nil {
		poolQuery = `
			SELECT id FROM leads
			WHERE assigned_to = $1 AND status = 'New' AND batch_id = $2
			ORDER BY created_at ASC
			FOR UPDATE
		`
		args = append(args, *params.BatchID)
	}

	rows, err := tx.Query(ctx, poolQuery, args...)
	if err != nil {
		return 0, err
	}
	pool := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		pool = append(pool, id)
	}
	rows.Close()
	if rows.Err() != nil {
		return 0, rows.Err()
	}

	slices, err := domain.SliceAssignments(pool, params.Assignments)
	if err != nil {
		return 0, err
	}

	scope := "all batches"
	if params.BatchID != nil {
		scope = "batch " + params.BatchID.String()
	}

	moved := 0
	for _, slice := range slices {
		if _, err := tx.Exec(ctx, `
			UPDATE leads SET assigned_to = $1, updated_at = now()
			WHERE id = ANY($2)
		`, slice.AgentID, slice.LeadIDs); err != nil {
			return 0, err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO lead_custody (lead_id, assigned_to, assigned_by, role_at_time)
			SELECT unnest($1::uuid[]), $2, $3, $4
		`, slice.LeadIDs, slice.AgentID, params.Distributor, params.DistributorRole); err != nil {
			return 0, err
		}

		details := fmt.Sprintf("Passed to %s by %s (%s)", slice.AgentID, params.DistributorRole, scope)
		if _, err := tx.Exec(ctx, `
			INSERT INTO lead_history (lead_id, action, actor_id, details)
			SELECT unnest($1::uuid[]), 'Assignment', $2, $3
		`, slice.LeadIDs, params.Distributor, details); err != nil {
			return 0, err
		}

		moved += len(slice.LeadIDs)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return moved, nil
}

// CustodyAppend is one new custody-chain entry.
type CustodyAppend struct {
	AssignedTo *uuid.UUID
	AssignedBy uuid.UUID
	RoleAtTime string
}

// HistoryAppend is one new interaction-timeline entry.
type HistoryAppend struct {
	Action          string
	ActorID         uuid.UUID
	Details         string
	DurationSeconds int
	MessageSent     *string
}

// CallTransition is the full effect of one call-log event (or a recycle it
// triggers) on a single lead. ExpectedTouchCount guards the update: if the
// lead has been touched concurrently, the whole transition fails with
// ErrStale and nothing is written.
type CallTransition struct {
	LeadID             uuid.UUID
	ExpectedTouchCount int
	TouchCount         int
	Status             string
	LastCallOutcome    string
	Archive            bool
	ArchiveReason      *string
	SetOwner           bool
	NewOwner           *uuid.UUID
	Custody            *CustodyAppend
	History            []HistoryAppend
}

// ApplyCallTransition applies the transition atomically: a compare-and-swap
// update of the lead row plus its ledger appends, all in one transaction.
func (r *Repository) ApplyCallTransition(ctx context.Context, t CallTransition) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	setClauses := []string{
		"touch_count = $2",
		"status = $3",
		"last_call_outcome = $4",
		"last_call_at = now()",
		"call_count = call_count + 1",
		"updated_at = now()",
	}
	args := []interface{}{t.LeadID, t.TouchCount, t.Status, t.LastCallOutcome}
	argIdx := 5

	if t.Archive {
		setClauses = append(setClauses, "is_archived = true", fmt.Sprintf("archive_reason = $%d", argIdx))
		args = append(args, t.ArchiveReason)
		argIdx++
	}
	if t.SetOwner {
		setClauses = append(setClauses, fmt.Sprintf("assigned_to = $%d", argIdx))
		args = append(args, t.NewOwner)
		argIdx++
	}

	args = append(args, t.ExpectedTouchCount)
	query := fmt.Sprintf(`
		UPDATE leads SET %s
		WHERE id = $1 AND NOT is_archived AND touch_count = $%d
	`, strings.Join(setClauses, ", "), argIdx)

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStale
	}

	if t.Custody != nil {
		if _, err := tx.Exec(ctx, `
			INSERT INTO lead_custody (lead_id, assigned_to, assigned_by, role_at_time)
			VALUES ($1, $2, $3, $4)
		`, t.LeadID, t.Custody.AssignedTo, t.Custody.AssignedBy, t.Custody.RoleAtTime); err != nil {
			return err
		}
	}

	for _, entry := range t.History {
		if _, err := tx.Exec(ctx, `
			INSERT INTO lead_history (lead_id, action, actor_id, details, duration_seconds, message_sent)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, t.LeadID, entry.Action, entry.ActorID, entry.Details, entry.DurationSeconds, entry.MessageSent); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// AdminReassign force-moves a lead to a new owner, resetting its counters and
// archive flags. This is the only path that resurrects an archived lead.
func (r *Repository) AdminReassign(ctx context.Context, leadID, newOwner, adminID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var previousOwner *uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT assigned_to FROM leads WHERE id = $1 FOR UPDATE
	`, leadID).Scan(&previousOwner)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_custody (lead_id, assigned_to, assigned_by, role_at_time)
		VALUES ($1, $2, $3, 'Admin Override')
	`, leadID, previousOwner, adminID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_history (lead_id, action, actor_id, details)
		VALUES ($1, 'Admin Override', $2, 'Admin forced reassignment to new user.')
	`, leadID, adminID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE leads SET
			assigned_to = $2,
			status = 'New',
			touch_count = 0,
			is_archived = false,
			archive_reason = NULL,
			updated_at = now()
		WHERE id = $1
	`, leadID, newOwner); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
