// Package domain provides core business rules for the leads bounded context.
// Everything here is pure: no storage, no clock, no randomness beyond what the
// caller injects.
package domain

import "fmt"

// Status is the closed set of lead lifecycle states.
type Status string

const (
	StatusNew        Status = "New"
	StatusContacted  Status = "Contacted"
	StatusInterested Status = "Interested"
	StatusBusy       Status = "Busy"
	StatusCallback   Status = "Callback"
	StatusRinging    Status = "Ringing"
	StatusArchived   Status = "Archived"
)

// Call outcome vocabulary. Anything outside this set maps to Contacted.
const (
	OutcomeInterested  = "Connected - Interested"
	OutcomeBusy        = "Busy"
	OutcomeCallback    = "Callback"
	OutcomeRinging     = "Ringing"
	OutcomeDND         = "DND"
	OutcomeWrongNumber = "Wrong Number"
)

// ExhaustedReason is the archive reason recorded when no fresh agent remains.
const ExhaustedReason = "Exhausted: Attempted by all available employees."

// StatusForOutcome maps a call outcome to the resulting lead status.
func StatusForOutcome(outcome string) Status {
	switch outcome {
	case OutcomeInterested:
		return StatusInterested
	case OutcomeBusy:
		return StatusBusy
	case OutcomeCallback:
		return StatusCallback
	case OutcomeRinging:
		return StatusRinging
	default:
		return StatusContacted
	}
}

// IsImmediateKill reports whether the outcome archives the lead
// unconditionally, bypassing the touch budget.
func IsImmediateKill(outcome string) bool {
	return outcome == OutcomeDND || outcome == OutcomeWrongNumber
}

// NeedsFollowUp reports whether the outcome should schedule a callback
// reminder for the calling agent.
func NeedsFollowUp(outcome string) bool {
	switch outcome {
	case OutcomeBusy, OutcomeCallback, OutcomeRinging:
		return true
	}
	return false
}

// KillReason formats the archive reason for an immediate-kill outcome.
func KillReason(outcome string) string {
	return fmt.Sprintf("Permanently Dead: %s (Marked by Agent)", outcome)
}

// CallResult describes the transition a single call-log event produces.
type CallResult struct {
	// TouchCount is the owner-scoped attempt counter after this call.
	TouchCount int
	// Status is the lead status after the outcome mapping (before any
	// kill or recycle supersedes it).
	Status Status
	// HistoryAction is the timeline entry text. The "Call" prefix is
	// counted as a contact attempt by reporting and must stay stable.
	HistoryAction string
	// Kill is set for DND / Wrong Number: archive now, skip recycling.
	Kill bool
	// NeedsRecycle is set when the touch budget is exhausted without the
	// lead turning Interested.
	NeedsRecycle bool
	// FollowUp requests a callback reminder for the calling agent.
	FollowUp bool
}

// ApplyCallOutcome computes the transition for one call-log event against a
// lead currently at touchCount attempts by its owner. touchBudget is the
// maximum number of attempts one owner may spend before the lead is recycled.
func ApplyCallOutcome(touchCount int, outcome string, touchBudget int) CallResult {
	touches := touchCount + 1
	status := StatusForOutcome(outcome)

	result := CallResult{
		TouchCount:    touches,
		Status:        status,
		HistoryAction: fmt.Sprintf("Call Attempt #%d: %s", touches, outcome),
	}

	if IsImmediateKill(outcome) {
		result.Kill = true
		result.Status = StatusArchived
		return result
	}

	result.FollowUp = NeedsFollowUp(outcome)
	result.NeedsRecycle = touches >= touchBudget && status != StatusInterested
	return result
}
