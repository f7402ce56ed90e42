package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CustodyEntry is one row of the append-only ownership ledger.
type CustodyEntry struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	AssignedTo *uuid.UUID
	AssignedBy uuid.UUID
	RoleAtTime string
	AssignedAt time.Time
}

// HistoryEntry is one row of the append-only interaction timeline.
type HistoryEntry struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	Action          string
	ActorID         uuid.UUID
	Details         string
	DurationSeconds int
	MessageSent     *string
	CreatedAt       time.Time
}

func (r *Repository) ListCustody(ctx context.Context, leadID uuid.UUID) ([]CustodyEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, assigned_to, assigned_by, role_at_time, assigned_at
		FROM lead_custody
		WHERE lead_id = $1
		ORDER BY id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]CustodyEntry, 0)
	for rows.Next() {
		var e CustodyEntry
		if err := rows.Scan(&e.ID, &e.LeadID, &e.AssignedTo, &e.AssignedBy, &e.RoleAtTime, &e.AssignedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repository) ListHistory(ctx context.Context, leadID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, action, actor_id, details, duration_seconds, message_sent, created_at
		FROM lead_history
		WHERE lead_id = $1
		ORDER BY id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0)
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.LeadID, &e.Action, &e.ActorID, &e.Details, &e.DurationSeconds, &e.MessageSent, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CustodyOwners returns every distinct user who has ever held the lead
// according to the custody chain. Null owners (archived hand-offs) are
// skipped. This is the forensic basis of the recycle exclusion set.
func (r *Repository) CustodyOwners(ctx context.Context, leadID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT assigned_to FROM lead_custody
		WHERE lead_id = $1 AND assigned_to IS NOT NULL
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}
