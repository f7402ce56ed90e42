package domain

import (
	"testing"

	"github.com/google/uuid"
)

func makePool(n int) []uuid.UUID {
	pool := make([]uuid.UUID, n)
	for i := range pool {
		pool[i] = uuid.New()
	}
	return pool
}

func TestSliceAssignmentsWaterfallOrder(t *testing.T) {
	pool := makePool(3)
	agentA := uuid.New()
	agentB := uuid.New()

	slices, err := SliceAssignments(pool, []Assignment{
		{AgentID: agentA, Count: 2},
		{AgentID: agentB, Count: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(slices))
	}
	if slices[0].AgentID != agentA || len(slices[0].LeadIDs) != 2 {
		t.Fatalf("agent A slice wrong: %+v", slices[0])
	}
	if slices[0].LeadIDs[0] != pool[0] || slices[0].LeadIDs[1] != pool[1] {
		t.Fatal("agent A should receive the first two pool leads in order")
	}
	if slices[1].AgentID != agentB || len(slices[1].LeadIDs) != 1 || slices[1].LeadIDs[0] != pool[2] {
		t.Fatal("agent B should receive the third pool lead")
	}
}

func TestSliceAssignmentsConservation(t *testing.T) {
	pool := makePool(10)
	assignments := []Assignment{
		{AgentID: uuid.New(), Count: 4},
		{AgentID: uuid.New(), Count: 3},
		{AgentID: uuid.New(), Count: 3},
	}

	slices, err := SliceAssignments(pool, assignments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[uuid.UUID]int)
	total := 0
	for _, s := range slices {
		for _, id := range s.LeadIDs {
			seen[id]++
			total++
		}
	}

	if total != 10 {
		t.Fatalf("distributed %d leads, want 10", total)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("lead %s assigned %d times", id, n)
		}
	}
}

func TestSliceAssignmentsInsufficientPool(t *testing.T) {
	pool := makePool(5)
	_, err := SliceAssignments(pool, []Assignment{{AgentID: uuid.New(), Count: 10}})
	if err != ErrInsufficientPool {
		t.Fatalf("err = %v, want ErrInsufficientPool", err)
	}
}

func TestSliceAssignmentsZeroTotal(t *testing.T) {
	pool := makePool(5)

	_, err := SliceAssignments(pool, nil)
	if err != ErrNothingRequested {
		t.Fatalf("err = %v, want ErrNothingRequested", err)
	}

	_, err = SliceAssignments(pool, []Assignment{{AgentID: uuid.New(), Count: 0}})
	if err != ErrNothingRequested {
		t.Fatalf("all-zero assignments: err = %v, want ErrNothingRequested", err)
	}
}

func TestSliceAssignmentsNegativeCount(t *testing.T) {
	pool := makePool(5)
	_, err := SliceAssignments(pool, []Assignment{
		{AgentID: uuid.New(), Count: 3},
		{AgentID: uuid.New(), Count: -1},
	})
	if err != ErrNothingRequested {
		t.Fatalf("negative count: err = %v, want ErrNothingRequested", err)
	}
}

func TestSliceAssignmentsSkipsZeroCounts(t *testing.T) {
	pool := makePool(2)
	agentA := uuid.New()
	agentB := uuid.New()

	slices, err := SliceAssignments(pool, []Assignment{
		{AgentID: agentA, Count: 0},
		{AgentID: agentB, Count: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slices) != 1 || slices[0].AgentID != agentB {
		t.Fatalf("zero-count agent should be skipped, got %+v", slices)
	}
}
