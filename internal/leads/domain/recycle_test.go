package domain

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
)

func TestExclusionSetIncludesCaller(t *testing.T) {
	a, b, caller := uuid.New(), uuid.New(), uuid.New()

	excluded := ExclusionSet([]uuid.UUID{a, b, a}, caller)
	if len(excluded) != 3 {
		t.Fatalf("expected 3 distinct exclusions, got %d", len(excluded))
	}

	want := map[uuid.UUID]bool{a: true, b: true, caller: true}
	for _, id := range excluded {
		if !want[id] {
			t.Fatalf("unexpected exclusion %s", id)
		}
	}
}

func TestExclusionSetCallerAlreadyInChain(t *testing.T) {
	caller := uuid.New()
	excluded := ExclusionSet([]uuid.UUID{caller}, caller)
	if len(excluded) != 1 {
		t.Fatalf("caller duplicated in exclusion set: %v", excluded)
	}
}

func TestPickFreshAgentFromEligible(t *testing.T) {
	fresh := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	eligible := map[uuid.UUID]bool{}
	for _, id := range fresh {
		eligible[id] = true
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		picked, ok := PickFreshAgent(fresh, rng)
		if !ok {
			t.Fatal("expected a pick from a non-empty set")
		}
		if !eligible[picked] {
			t.Fatalf("picked %s outside the eligible set", picked)
		}
	}
}

func TestPickFreshAgentExhausted(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, ok := PickFreshAgent(nil, rng); ok {
		t.Fatal("empty fresh set must report exhaustion")
	}
}
