package domain

import (
	"fmt"
	"strings"
	"testing"
)

func TestStatusForOutcomeMapping(t *testing.T) {
	cases := []struct {
		outcome string
		want    Status
	}{
		{OutcomeInterested, StatusInterested},
		{OutcomeBusy, StatusBusy},
		{OutcomeCallback, StatusCallback},
		{OutcomeRinging, StatusRinging},
		{"Connected - Not Interested", StatusContacted},
		{"Switched Off", StatusContacted},
		{"", StatusContacted},
	}

	for _, tc := range cases {
		if got := StatusForOutcome(tc.outcome); got != tc.want {
			t.Fatalf("StatusForOutcome(%q) = %s, want %s", tc.outcome, got, tc.want)
		}
	}
}

func TestApplyCallOutcomeIncrementsTouches(t *testing.T) {
	result := ApplyCallOutcome(2, OutcomeBusy, 8)

	if result.TouchCount != 3 {
		t.Fatalf("touch count = %d, want 3", result.TouchCount)
	}
	if result.Status != StatusBusy {
		t.Fatalf("status = %s, want Busy", result.Status)
	}
	if result.Kill || result.NeedsRecycle {
		t.Fatalf("unexpected kill=%v recycle=%v before budget", result.Kill, result.NeedsRecycle)
	}
	if !result.FollowUp {
		t.Fatal("Busy outcome should request a follow-up reminder")
	}
}

func TestApplyCallOutcomeHistoryActionHasCallPrefix(t *testing.T) {
	// Downstream reporting counts history actions beginning with "Call"
	// as contact attempts, so the action text must keep that prefix.
	for _, outcome := range []string{OutcomeBusy, OutcomeInterested, OutcomeDND, "Switched Off"} {
		result := ApplyCallOutcome(0, outcome, 8)
		if !strings.HasPrefix(result.HistoryAction, "Call") {
			t.Fatalf("history action %q lost the Call prefix", result.HistoryAction)
		}
		want := fmt.Sprintf("Call Attempt #1: %s", outcome)
		if result.HistoryAction != want {
			t.Fatalf("history action = %q, want %q", result.HistoryAction, want)
		}
	}
}

func TestApplyCallOutcomeImmediateKill(t *testing.T) {
	for _, outcome := range []string{OutcomeDND, OutcomeWrongNumber} {
		result := ApplyCallOutcome(0, outcome, 8)
		if !result.Kill {
			t.Fatalf("%s should be an immediate kill", outcome)
		}
		if result.Status != StatusArchived {
			t.Fatalf("%s kill status = %s, want Archived", outcome, result.Status)
		}
		if result.NeedsRecycle {
			t.Fatalf("%s kill must skip recycling", outcome)
		}
		if result.FollowUp {
			t.Fatalf("%s kill must not schedule a follow-up", outcome)
		}
	}
}

func TestApplyCallOutcomeKillOverridesBudget(t *testing.T) {
	// A kill on the budget-crossing touch still archives rather than recycles.
	result := ApplyCallOutcome(7, OutcomeDND, 8)
	if !result.Kill || result.NeedsRecycle {
		t.Fatalf("kill=%v recycle=%v, want kill only", result.Kill, result.NeedsRecycle)
	}
}

func TestApplyCallOutcomeTouchBudget(t *testing.T) {
	// The 8th attempt without an Interested outcome triggers recycling;
	// there is never a 9th Contacted state under the same owner.
	result := ApplyCallOutcome(7, "Switched Off", 8)
	if result.TouchCount != 8 {
		t.Fatalf("touch count = %d, want 8", result.TouchCount)
	}
	if !result.NeedsRecycle {
		t.Fatal("8th touch should trigger a recycle")
	}

	// Interested on the 8th touch keeps the lead with its owner.
	result = ApplyCallOutcome(7, OutcomeInterested, 8)
	if result.NeedsRecycle {
		t.Fatal("Interested lead must not be recycled")
	}

	// One short of the budget never recycles.
	result = ApplyCallOutcome(6, "Switched Off", 8)
	if result.NeedsRecycle {
		t.Fatal("7th touch must not trigger a recycle")
	}
}

func TestKillReasonNamesOutcome(t *testing.T) {
	reason := KillReason(OutcomeWrongNumber)
	if !strings.Contains(reason, OutcomeWrongNumber) {
		t.Fatalf("kill reason %q should name the outcome", reason)
	}
}
