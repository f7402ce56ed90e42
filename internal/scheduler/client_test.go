package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"salesops_backend/internal/leads/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func TestScheduleFollowUpEnqueuesDelayedTask(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	opt := asynq.RedisClientOpt{Addr: mr.Addr()}
	client := &Client{client: asynq.NewClient(opt), queue: "default"}
	defer client.Close()

	leadID := uuid.New()
	agentID := uuid.New()
	due := time.Now().Add(24 * time.Hour)

	err = client.ScheduleFollowUp(context.Background(), ports.FollowUp{
		LeadID:  leadID,
		AgentID: agentID,
		Outcome: "Busy",
		DueAt:   due,
	})
	if err != nil {
		t.Fatalf("ScheduleFollowUp: %v", err)
	}

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	scheduled, err := inspector.ListScheduledTasks("default")
	if err != nil {
		t.Fatalf("ListScheduledTasks: %v", err)
	}
	if len(scheduled) != 1 {
		t.Fatalf("expected 1 scheduled task, got %d", len(scheduled))
	}

	task := scheduled[0]
	if task.Type != TaskLeadFollowUp {
		t.Fatalf("expected task type %q, got %q", TaskLeadFollowUp, task.Type)
	}

	var payload LeadFollowUpPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.LeadID != leadID.String() || payload.AgentID != agentID.String() {
		t.Fatalf("payload mismatch: %+v", payload)
	}
	if payload.Outcome != "Busy" {
		t.Fatalf("expected outcome Busy, got %q", payload.Outcome)
	}

	if task.NextProcessAt.Before(time.Now().Add(23 * time.Hour)) {
		t.Fatalf("task due too soon: %v", task.NextProcessAt)
	}
}

func TestLeadFollowUpPayloadRoundTrip(t *testing.T) {
	in := LeadFollowUpPayload{
		LeadID:  uuid.NewString(),
		AgentID: uuid.NewString(),
		Outcome: "Callback",
	}

	task, err := NewLeadFollowUpTask(in)
	if err != nil {
		t.Fatalf("NewLeadFollowUpTask: %v", err)
	}
	out, err := ParseLeadFollowUpPayload(task)
	if err != nil {
		t.Fatalf("ParseLeadFollowUpPayload: %v", err)
	}
	if out != in {
		t.Fatalf("payload round trip mismatch: %+v != %+v", out, in)
	}
}
