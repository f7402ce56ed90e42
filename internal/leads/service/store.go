package service

import (
	"context"
	"time"

	"salesops_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Store is the persistence surface the service depends on. The pgx-backed
// repository satisfies it in production; tests substitute an in-memory fake.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	GetByPhone(ctx context.Context, phone string) (repository.Lead, error)
	ListByOwner(ctx context.Context, owner uuid.UUID, limit int) ([]repository.Lead, error)
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]repository.Lead, error)
	ListArchived(ctx context.Context) ([]repository.Lead, error)
	CountPool(ctx context.Context, owner uuid.UUID) (int, error)
	CountCallsSince(ctx context.Context, actor uuid.UUID, from, to time.Time) (int, error)

	BulkInsert(ctx context.Context, leads []repository.NewLead) (int, error)
	Distribute(ctx context.Context, params repository.DistributeParams) (int, error)
	ApplyCallTransition(ctx context.Context, t repository.CallTransition) error
	AdminReassign(ctx context.Context, leadID, newOwner, adminID uuid.UUID) error

	CreateBatch(ctx context.Context, fileName string, uploadedBy uuid.UUID) (uuid.UUID, error)
	FinalizeBatch(ctx context.Context, batchID uuid.UUID, totalCount int) error
	SetBatchFileKey(ctx context.Context, batchID uuid.UUID, key string) error
	DeleteBatchRecord(ctx context.Context, batchID uuid.UUID) error
	GetBatch(ctx context.Context, batchID uuid.UUID) (repository.Batch, error)
	ListBatches(ctx context.Context) ([]repository.BatchSummary, error)
	SafeDeleteBatch(ctx context.Context, batchID uuid.UUID) (repository.SafeDeleteResult, error)

	ListCustody(ctx context.Context, leadID uuid.UUID) ([]repository.CustodyEntry, error)
	ListHistory(ctx context.Context, leadID uuid.UUID) ([]repository.HistoryEntry, error)
	CustodyOwners(ctx context.Context, leadID uuid.UUID) ([]uuid.UUID, error)
}
