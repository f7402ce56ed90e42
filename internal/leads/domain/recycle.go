package domain

import (
	"math/rand"

	"github.com/google/uuid"
)

// RecycleRole is the directory role leads are recycled among.
const RecycleRole = "Employee"

// ExclusionSet is every distinct agent recorded in a lead's custody chain plus
// the current caller. No agent in this set may receive the lead again.
func ExclusionSet(custodyOwners []uuid.UUID, caller uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(custodyOwners)+1)
	excluded := make([]uuid.UUID, 0, len(custodyOwners)+1)
	for _, owner := range custodyOwners {
		if _, ok := seen[owner]; ok {
			continue
		}
		seen[owner] = struct{}{}
		excluded = append(excluded, owner)
	}
	if _, ok := seen[caller]; !ok {
		excluded = append(excluded, caller)
	}
	return excluded
}

// PickFreshAgent selects one agent uniformly at random from the eligible set.
// The rand source is injected so tests can pin the selection. Returns false
// when no fresh agent remains and the lead must be archived as exhausted.
func PickFreshAgent(fresh []uuid.UUID, rng *rand.Rand) (uuid.UUID, bool) {
	if len(fresh) == 0 {
		return uuid.Nil, false
	}
	return fresh[rng.Intn(len(fresh))], true
}
