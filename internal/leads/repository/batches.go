package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Batch struct {
	ID         uuid.UUID
	FileName   string
	UploadedBy uuid.UUID
	TotalCount int
	FileKey    *string
	CreatedAt  time.Time
}

// BatchSummary joins the batch with its uploader and live lead counts.
type BatchSummary struct {
	Batch
	UploaderName   string
	UploaderRole   string
	RemainingCount int
}

// CreateBatch records the upload envelope before any leads are inserted, so
// that every lead row can point at an existing batch from the moment it is
// written.
func (r *Repository) CreateBatch(ctx context.Context, fileName string, uploadedBy uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO upload_batches (file_name, uploaded_by, total_count)
		VALUES ($1, $2, 0)
		RETURNING id
	`, fileName, uploadedBy).Scan(&id)
	return id, err
}

// FinalizeBatch stamps the persisted lead count once ingestion settles.
func (r *Repository) FinalizeBatch(ctx context.Context, batchID uuid.UUID, totalCount int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE upload_batches SET total_count = $2 WHERE id = $1
	`, batchID, totalCount)
	return err
}

// SetBatchFileKey attaches the archived source file's object key.
func (r *Repository) SetBatchFileKey(ctx context.Context, batchID uuid.UUID, key string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE upload_batches SET file_key = $2 WHERE id = $1
	`, batchID, key)
	return err
}

// DeleteBatchRecord removes the batch envelope alone. Used to roll back an
// upload that yielded no valid leads.
func (r *Repository) DeleteBatchRecord(ctx context.Context, batchID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM upload_batches WHERE id = $1`, batchID)
	return err
}

func (r *Repository) GetBatch(ctx context.Context, batchID uuid.UUID) (Batch, error) {
	var b Batch
	err := r.pool.QueryRow(ctx, `
		SELECT id, file_name, uploaded_by, total_count, file_key, created_at
		FROM upload_batches WHERE id = $1
	`, batchID).Scan(&b.ID, &b.FileName, &b.UploadedBy, &b.TotalCount, &b.FileKey, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrNotFound
	}
	return b, err
}

// ListBatches returns all batches newest first, each with its uploader and a
// live count of leads still referencing it.
func (r *Repository) ListBatches(ctx context.Context) ([]BatchSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.file_name, b.uploaded_by, b.total_count, b.file_key, b.created_at,
			u.name, u.role,
			(SELECT COUNT(*) FROM leads l WHERE l.batch_id = b.id)
		FROM upload_batches b
		JOIN users u ON u.id = b.uploaded_by
		ORDER BY b.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]BatchSummary, 0)
	for rows.Next() {
		var s BatchSummary
		if err := rows.Scan(
			&s.ID, &s.FileName, &s.UploadedBy, &s.TotalCount, &s.FileKey, &s.CreatedAt,
			&s.UploaderName, &s.UploaderRole, &s.RemainingCount,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// SafeDeleteResult reports what a batch deletion actually removed.
type SafeDeleteResult struct {
	Deleted  int
	Retained int
}

// SafeDeleteBatch removes the batch and only its untouched leads: rows still
// New with a zero touch count. Worked leads survive with a dangling batch
// reference so their ledgers stay intact.
func (r *Repository) SafeDeleteBatch(ctx context.Context, batchID uuid.UUID) (SafeDeleteResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return SafeDeleteResult{}, err
	}
	defer tx.Rollback(ctx)

	var result SafeDeleteResult
	tag, err := tx.Exec(ctx, `
		DELETE FROM leads
		WHERE batch_id = $1 AND status = 'New' AND touch_count = 0
	`, batchID)
	if err != nil {
		return SafeDeleteResult{}, err
	}
	result.Deleted = int(tag.RowsAffected())

	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM leads WHERE batch_id = $1
	`, batchID).Scan(&result.Retained); err != nil {
		return SafeDeleteResult{}, err
	}

	tag, err = tx.Exec(ctx, `DELETE FROM upload_batches WHERE id = $1`, batchID)
	if err != nil {
		return SafeDeleteResult{}, err
	}
	if tag.RowsAffected() == 0 {
		return SafeDeleteResult{}, ErrNotFound
	}

	return result, tx.Commit(ctx)
}
