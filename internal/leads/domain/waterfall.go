package domain

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNothingRequested means the assignment list adds up to zero leads.
	ErrNothingRequested = errors.New("nothing requested for distribution")
	// ErrInsufficientPool means the distributor's pool cannot cover the
	// requested total. Distribution is all-or-nothing.
	ErrInsufficientPool = errors.New("insufficient leads in pool")
)

// Assignment is one (agent, count) pair of a distribution request.
type Assignment struct {
	AgentID uuid.UUID
	Count   int
}

// Slice is the contiguous run of pool leads cut for one agent.
type Slice struct {
	AgentID uuid.UUID
	LeadIDs []uuid.UUID
}

// TotalRequested sums the assignment counts. Negative counts are invalid and
// poison the total so validation rejects the request.
func TotalRequested(assignments []Assignment) int {
	total := 0
	for _, a := range assignments {
		if a.Count < 0 {
			return -1
		}
		total += a.Count
	}
	return total
}

// SliceAssignments walks the ordered pool once, cutting a contiguous slice of
// exactly Count leads per assignment in list order. Zero-count assignments are
// skipped. The pool must already be in creation order; a short pool fails the
// whole call with ErrInsufficientPool and no partial result.
func SliceAssignments(pool []uuid.UUID, assignments []Assignment) ([]Slice, error) {
	total := TotalRequested(assignments)
	if total <= 0 {
		return nil, ErrNothingRequested
	}
	if len(pool) < total {
		return nil, ErrInsufficientPool
	}

	slices := make([]Slice, 0, len(assignments))
	cursor := 0
	for _, a := range assignments {
		if a.Count == 0 {
			continue
		}
		slices = append(slices, Slice{
			AgentID: a.AgentID,
			LeadIDs: pool[cursor : cursor+a.Count],
		})
		cursor += a.Count
	}

	return slices, nil
}
