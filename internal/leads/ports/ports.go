// Package ports declares what the leads module needs from its neighbours.
// Consumers depend on these interfaces; the composition root wires concrete
// implementations from the directory, scheduler, and storage packages.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Agent is the slice of a user the engine cares about.
type Agent struct {
	ID   uuid.UUID
	Name string
	Role string
}

// AgentProvider resolves agents from the user directory.
type AgentProvider interface {
	AgentByID(ctx context.Context, id uuid.UUID) (Agent, error)
	// AgentsByRoleExcluding returns all active agents holding the role whose
	// IDs are not in the exclusion list.
	AgentsByRoleExcluding(ctx context.Context, role string, exclude []uuid.UUID) ([]Agent, error)
}

// FollowUp is a deferred reminder for one lead.
type FollowUp struct {
	LeadID  uuid.UUID
	AgentID uuid.UUID
	Outcome string
	DueAt   time.Time
}

// ActorGate answers whether an actor may work leads right now. Deployments
// can wire attendance or shift rules behind it; a nil gate always permits.
type ActorGate interface {
	MayOperate(ctx context.Context, actorID uuid.UUID) (bool, error)
}

// FollowUpScheduler enqueues follow-up reminders for later delivery. A failed
// enqueue never fails the call-log that requested it.
type FollowUpScheduler interface {
	ScheduleFollowUp(ctx context.Context, f FollowUp) error
}

// BatchArchiver stores the raw uploaded file for audit. Implementations may
// be disabled entirely, in which case ArchiveBatchFile reports ok=false.
type BatchArchiver interface {
	ArchiveBatchFile(ctx context.Context, batchID uuid.UUID, fileName string, data []byte) (key string, ok bool, err error)
	// PresignDownload returns a short-lived URL for a previously archived file.
	PresignDownload(ctx context.Context, fileKey string) (string, error)
}
