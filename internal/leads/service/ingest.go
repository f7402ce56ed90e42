package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"salesops_backend/internal/leads/repository"
	"salesops_backend/platform/apperr"
	"salesops_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Candidate is one extracted lead row before persistence.
type Candidate struct {
	Phone       string
	Name        string
	OriginalRaw string
}

// UploadResult reports what an ingestion run produced.
type UploadResult struct {
	BatchID    uuid.UUID `json:"batchId"`
	FileName   string    `json:"fileName"`
	Imported   int       `json:"imported"`
	Duplicates int       `json:"duplicates"`
}

// Upload ingests one uploaded file: the batch envelope is created first so
// every lead row points at an existing batch, the file is parsed by extension,
// numbers are normalized and deduplicated within the file, and survivors are
// bulk-inserted with store-wide duplicates silently skipped. A file yielding
// zero valid numbers rolls the batch back and fails validation.
func (s *Service) Upload(ctx context.Context, actor Actor, fileName string, data []byte) (UploadResult, error) {
	const op = "leads.Upload"

	batchID, err := s.store.CreateBatch(ctx, fileName, actor.ID)
	if err != nil {
		return UploadResult{}, apperr.Wrap(apperr.KindInternal, "create batch", err).WithOp(op)
	}

	candidates, err := ExtractCandidates(fileName, data)
	if err != nil {
		_ = s.store.DeleteBatchRecord(ctx, batchID)
		return UploadResult{}, apperr.Validation(fmt.Sprintf("could not read file: %v", err)).WithOp(op)
	}
	if len(candidates) == 0 {
		_ = s.store.DeleteBatchRecord(ctx, batchID)
		return UploadResult{}, apperr.Validation("no valid phone numbers found in file").WithOp(op)
	}

	rows := make([]repository.NewLead, len(candidates))
	for i, c := range candidates {
		rows[i] = repository.NewLead{
			PhoneNumber: c.Phone,
			Name:        c.Name,
			AssignedTo:  actor.ID,
			BatchID:     batchID,
			OriginalRaw: c.OriginalRaw,
		}
	}

	inserted, err := s.store.BulkInsert(ctx, rows)
	if err != nil {
		return UploadResult{}, apperr.Wrap(apperr.KindInternal, "insert leads", err).WithOp(op)
	}
	if err := s.store.FinalizeBatch(ctx, batchID, inserted); err != nil {
		return UploadResult{}, apperr.Wrap(apperr.KindInternal, "finalize batch", err).WithOp(op)
	}

	if s.archiver != nil {
		key, ok, err := s.archiver.ArchiveBatchFile(ctx, batchID, fileName, data)
		if err != nil {
			s.logger.Error("batch file archive failed",
				slog.String("batchId", batchID.String()),
				slog.String("error", err.Error()),
			)
		} else if ok {
			if err := s.store.SetBatchFileKey(ctx, batchID, key); err != nil {
				s.logger.Error("batch file key update failed",
					slog.String("batchId", batchID.String()),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	s.logger.Info("batch ingested",
		slog.String("batchId", batchID.String()),
		slog.String("fileName", fileName),
		slog.Int("imported", inserted),
		slog.Int("duplicates", len(rows)-inserted),
	)

	return UploadResult{
		BatchID:    batchID,
		FileName:   fileName,
		Imported:   inserted,
		Duplicates: len(rows) - inserted,
	}, nil
}

// ExtractCandidates parses an uploaded file into deduplicated lead
// candidates. Spreadsheets and CSVs are read as tabular data with every cell
// tested as a phone token; any other file is scanned as free text.
func ExtractCandidates(fileName string, data []byte) ([]Candidate, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xls":
		rows, err := readSheetRows(data)
		if err != nil {
			return nil, err
		}
		return CandidatesFromRows(rows), nil
	case ".csv":
		rows, err := readCSVRows(data)
		if err != nil {
			return nil, err
		}
		return CandidatesFromRows(rows), nil
	default:
		return candidatesFromText(string(data)), nil
	}
}

func readSheetRows(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return file.GetRows(sheets[0])
}

func readCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// CandidatesFromRows converts tabular rows into candidates. Every cell of a
// row is tested as a phone token, so a row may yield several leads (alternate
// contacts) and the number may sit in any column. Cells that do not normalize
// become the display name; numbers repeated within the file keep only their
// first occurrence.
func CandidatesFromRows(rows [][]string) []Candidate {
	seen := make(map[string]struct{})
	candidates := make([]Candidate, 0, len(rows))

	for _, row := range rows {
		type hit struct {
			number string
			raw    string
		}
		var hits []hit
		name := ""

		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if number, ok := phone.Normalize(cell); ok {
				hits = append(hits, hit{number: number, raw: cell})
				continue
			}
			if name == "" {
				name = cell
			}
		}
		if name == "" {
			name = "Unknown"
		}

		for _, h := range hits {
			if _, dup := seen[h.number]; dup {
				continue
			}
			seen[h.number] = struct{}{}
			candidates = append(candidates, Candidate{
				Phone:       h.number,
				Name:        name,
				OriginalRaw: h.raw,
			})
		}
	}
	return candidates
}

func candidatesFromText(text string) []Candidate {
	seen := make(map[string]struct{})
	var candidates []Candidate

	for _, match := range phone.ScanText(text) {
		if _, dup := seen[match.Number]; dup {
			continue
		}
		seen[match.Number] = struct{}{}

		name := match.Name
		if name == "" {
			name = "Unknown"
		}
		candidates = append(candidates, Candidate{
			Phone:       match.Number,
			Name:        name,
			OriginalRaw: match.Raw,
		})
	}
	return candidates
}
