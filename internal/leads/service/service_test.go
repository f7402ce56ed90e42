package service

import (
	"context"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"salesops_backend/internal/leads/domain"
	"salesops_backend/internal/leads/ports"
	"salesops_backend/internal/leads/repository"
	"salesops_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeStore struct {
	leads         map[uuid.UUID]repository.Lead
	custodyOwners map[uuid.UUID][]uuid.UUID
	batches       map[uuid.UUID]repository.Batch

	appliedTransitions []repository.CallTransition
	listLimit          int
	distributeErr      error
	distributed        *repository.DistributeParams
	deletedBatches     []uuid.UUID
	insertedLeads      []repository.NewLead
	finalizedCount     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:         make(map[uuid.UUID]repository.Lead),
		custodyOwners: make(map[uuid.UUID][]uuid.UUID),
		batches:       make(map[uuid.UUID]repository.Batch),
	}
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) GetByPhone(_ context.Context, phone string) (repository.Lead, error) {
	for _, lead := range f.leads {
		if lead.PhoneNumber == phone {
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (f *fakeStore) ListByOwner(_ context.Context, _ uuid.UUID, limit int) ([]repository.Lead, error) {
	f.listLimit = limit
	return nil, nil
}
func (f *fakeStore) ListByBatch(context.Context, uuid.UUID) ([]repository.Lead, error) {
	return nil, nil
}
func (f *fakeStore) ListArchived(context.Context) ([]repository.Lead, error) { return nil, nil }
func (f *fakeStore) CountPool(context.Context, uuid.UUID) (int, error)       { return 0, nil }
func (f *fakeStore) CountCallsSince(context.Context, uuid.UUID, time.Time, time.Time) (int, error) {
	return 0, nil
}

func (f *fakeStore) BulkInsert(_ context.Context, leads []repository.NewLead) (int, error) {
	f.insertedLeads = leads
	return len(leads), nil
}

func (f *fakeStore) Distribute(_ context.Context, params repository.DistributeParams) (int, error) {
	if f.distributeErr != nil {
		return 0, f.distributeErr
	}
	f.distributed = &params
	total := 0
	for _, a := range params.Assignments {
		total += a.Count
	}
	return total, nil
}

func (f *fakeStore) ApplyCallTransition(_ context.Context, t repository.CallTransition) error {
	lead, ok := f.leads[t.LeadID]
	if !ok {
		return repository.ErrNotFound
	}
	if lead.TouchCount != t.ExpectedTouchCount {
		return repository.ErrStale
	}
	f.appliedTransitions = append(f.appliedTransitions, t)

	lead.TouchCount = t.TouchCount
	lead.Status = t.Status
	lead.LastCallOutcome = &t.LastCallOutcome
	if t.Archive {
		lead.IsArchived = true
		lead.ArchiveReason = t.ArchiveReason
	}
	if t.SetOwner {
		lead.AssignedTo = t.NewOwner
	}
	f.leads[t.LeadID] = lead
	return nil
}

func (f *fakeStore) AdminReassign(_ context.Context, leadID, newOwner, _ uuid.UUID) error {
	lead, ok := f.leads[leadID]
	if !ok {
		return repository.ErrNotFound
	}
	lead.AssignedTo = &newOwner
	lead.Status = "New"
	lead.TouchCount = 0
	lead.IsArchived = false
	lead.ArchiveReason = nil
	f.leads[leadID] = lead
	return nil
}

func (f *fakeStore) CreateBatch(_ context.Context, fileName string, uploadedBy uuid.UUID) (uuid.UUID, error) {
	id := uuid.New()
	f.batches[id] = repository.Batch{ID: id, FileName: fileName, UploadedBy: uploadedBy}
	return id, nil
}

func (f *fakeStore) FinalizeBatch(_ context.Context, _ uuid.UUID, totalCount int) error {
	f.finalizedCount = totalCount
	return nil
}

func (f *fakeStore) SetBatchFileKey(context.Context, uuid.UUID, string) error { return nil }

func (f *fakeStore) DeleteBatchRecord(_ context.Context, batchID uuid.UUID) error {
	f.deletedBatches = append(f.deletedBatches, batchID)
	delete(f.batches, batchID)
	return nil
}

func (f *fakeStore) GetBatch(_ context.Context, batchID uuid.UUID) (repository.Batch, error) {
	batch, ok := f.batches[batchID]
	if !ok {
		return repository.Batch{}, repository.ErrNotFound
	}
	return batch, nil
}

func (f *fakeStore) ListBatches(context.Context) ([]repository.BatchSummary, error) {
	return nil, nil
}

func (f *fakeStore) SafeDeleteBatch(_ context.Context, batchID uuid.UUID) (repository.SafeDeleteResult, error) {
	if _, ok := f.batches[batchID]; !ok {
		return repository.SafeDeleteResult{}, repository.ErrNotFound
	}
	delete(f.batches, batchID)
	return repository.SafeDeleteResult{Deleted: 2, Retained: 1}, nil
}

func (f *fakeStore) ListCustody(context.Context, uuid.UUID) ([]repository.CustodyEntry, error) {
	return nil, nil
}
func (f *fakeStore) ListHistory(context.Context, uuid.UUID) ([]repository.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeStore) CustodyOwners(_ context.Context, leadID uuid.UUID) ([]uuid.UUID, error) {
	return f.custodyOwners[leadID], nil
}

type fakeAgents struct {
	agents map[uuid.UUID]ports.Agent
}

func (f *fakeAgents) AgentByID(_ context.Context, id uuid.UUID) (ports.Agent, error) {
	agent, ok := f.agents[id]
	if !ok {
		return ports.Agent{}, repository.ErrNotFound
	}
	return agent, nil
}

func (f *fakeAgents) AgentsByRoleExcluding(_ context.Context, role string, exclude []uuid.UUID) ([]ports.Agent, error) {
	excluded := make(map[uuid.UUID]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	var out []ports.Agent
	for _, agent := range f.agents {
		if agent.Role != role {
			continue
		}
		if _, skip := excluded[agent.ID]; skip {
			continue
		}
		out = append(out, agent)
	}
	return out, nil
}

type fakeScheduler struct {
	scheduled []ports.FollowUp
}

func (f *fakeScheduler) ScheduleFollowUp(_ context.Context, fu ports.FollowUp) error {
	f.scheduled = append(f.scheduled, fu)
	return nil
}

func testService(store *fakeStore, agents *fakeAgents, scheduler *fakeScheduler) *Service {
	return New(store, agents, scheduler, nil, slog.Default(), Options{
		TouchBudget:   8,
		FollowUpDelay: 24 * time.Hour,
		Rand:          rand.New(rand.NewSource(1)),
	})
}

func employee(name string) ports.Agent {
	return ports.Agent{ID: uuid.New(), Name: name, Role: "Employee"}
}

func seedLead(store *fakeStore, owner uuid.UUID, touchCount int) uuid.UUID {
	id := uuid.New()
	store.leads[id] = repository.Lead{
		ID:          id,
		PhoneNumber: "9876543210",
		Name:        "Asha",
		Status:      "Contacted",
		TouchCount:  touchCount,
		AssignedTo:  &owner,
	}
	return id
}

func TestLogCallRecycleExcludesCustodyChainAndCaller(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}

	previous := employee("Previous")
	caller := employee("Caller")
	freshA := employee("Fresh A")
	freshB := employee("Fresh B")
	for _, a := range []ports.Agent{previous, caller, freshA, freshB} {
		agents.agents[a.ID] = a
	}

	leadID := seedLead(store, caller.ID, 7)
	store.custodyOwners[leadID] = []uuid.UUID{previous.ID}

	svc := testService(store, agents, &fakeScheduler{})
	report, err := svc.LogCall(context.Background(), Actor{ID: caller.ID, Role: "Employee"}, CallLog{
		LeadID:  leadID,
		Outcome: domain.OutcomeBusy,
	})
	if err != nil {
		t.Fatalf("LogCall: %v", err)
	}

	if !report.Recycled {
		t.Fatalf("expected recycle on touch 8, got report %+v", report)
	}
	if report.RecycledTo == nil {
		t.Fatalf("expected a recycle target")
	}
	if *report.RecycledTo != freshA.ID && *report.RecycledTo != freshB.ID {
		t.Fatalf("recycle target %s is not a fresh agent", *report.RecycledTo)
	}

	lead := store.leads[leadID]
	if lead.TouchCount != 0 {
		t.Fatalf("expected touch count reset to 0, got %d", lead.TouchCount)
	}
	if lead.Status != "New" {
		t.Fatalf("expected status New after recycle, got %q", lead.Status)
	}

	transition := store.appliedTransitions[0]
	if transition.Custody == nil {
		t.Fatalf("recycle must append a custody entry")
	}
	if transition.Custody.AssignedTo == nil || *transition.Custody.AssignedTo != caller.ID {
		t.Fatalf("custody entry must record the outgoing agent")
	}
}

func TestLogCallExhaustionArchivesWhenNoFreshAgent(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}

	previous := employee("Previous")
	caller := employee("Caller")
	agents.agents[previous.ID] = previous
	agents.agents[caller.ID] = caller

	leadID := seedLead(store, caller.ID, 7)
	store.custodyOwners[leadID] = []uuid.UUID{previous.ID}

	svc := testService(store, agents, &fakeScheduler{})
	report, err := svc.LogCall(context.Background(), Actor{ID: caller.ID, Role: "Employee"}, CallLog{
		LeadID:  leadID,
		Outcome: domain.OutcomeBusy,
	})
	if err != nil {
		t.Fatalf("LogCall: %v", err)
	}

	if !report.Archived {
		t.Fatalf("expected archive when every employee has tried the lead")
	}
	lead := store.leads[leadID]
	if !lead.IsArchived {
		t.Fatalf("expected lead archived")
	}
	if lead.ArchiveReason == nil || *lead.ArchiveReason != domain.ExhaustedReason {
		t.Fatalf("expected exhausted archive reason, got %v", lead.ArchiveReason)
	}
	if lead.AssignedTo != nil {
		t.Fatalf("archived lead must be unassigned")
	}
}

func TestLogCallImmediateKillBypassesBudget(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	caller := employee("Caller")
	agents.agents[caller.ID] = caller

	leadID := seedLead(store, caller.ID, 0)

	svc := testService(store, agents, &fakeScheduler{})
	report, err := svc.LogCall(context.Background(), Actor{ID: caller.ID, Role: "Employee"}, CallLog{
		LeadID:  leadID,
		Outcome: domain.OutcomeWrongNumber,
	})
	if err != nil {
		t.Fatalf("LogCall: %v", err)
	}

	if !report.Archived {
		t.Fatalf("expected immediate archive for Wrong Number")
	}
	lead := store.leads[leadID]
	if lead.ArchiveReason == nil || *lead.ArchiveReason != "Permanently Dead: Wrong Number (Marked by Agent)" {
		t.Fatalf("unexpected archive reason %v", lead.ArchiveReason)
	}
}

func TestLogCallRejectsArchivedLead(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	caller := employee("Caller")
	agents.agents[caller.ID] = caller

	leadID := seedLead(store, caller.ID, 3)
	lead := store.leads[leadID]
	lead.IsArchived = true
	lead.AssignedTo = nil
	store.leads[leadID] = lead

	svc := testService(store, agents, &fakeScheduler{})
	_, err := svc.LogCall(context.Background(), Actor{ID: caller.ID, Role: "Employee"}, CallLog{
		LeadID:  leadID,
		Outcome: domain.OutcomeBusy,
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for archived lead, got %v", err)
	}
	if len(store.appliedTransitions) != 0 {
		t.Fatalf("archived lead must not accept transitions")
	}
}

func TestLogCallRejectsForeignLead(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	owner := employee("Owner")
	intruder := employee("Intruder")
	agents.agents[owner.ID] = owner
	agents.agents[intruder.ID] = intruder

	leadID := seedLead(store, owner.ID, 0)

	svc := testService(store, agents, &fakeScheduler{})
	_, err := svc.LogCall(context.Background(), Actor{ID: intruder.ID, Role: "Employee"}, CallLog{
		LeadID:  leadID,
		Outcome: domain.OutcomeBusy,
	})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for foreign lead, got %v", err)
	}
}

func TestLogCallSchedulesFollowUpForBusy(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	caller := employee("Caller")
	agents.agents[caller.ID] = caller

	leadID := seedLead(store, caller.ID, 0)

	scheduler := &fakeScheduler{}
	svc := testService(store, agents, scheduler)
	if _, err := svc.LogCall(context.Background(), Actor{ID: caller.ID, Role: "Employee"}, CallLog{
		LeadID:  leadID,
		Outcome: domain.OutcomeBusy,
	}); err != nil {
		t.Fatalf("LogCall: %v", err)
	}

	if len(scheduler.scheduled) != 1 {
		t.Fatalf("expected one follow-up, got %d", len(scheduler.scheduled))
	}
	fu := scheduler.scheduled[0]
	if fu.LeadID != leadID || fu.AgentID != caller.ID {
		t.Fatalf("follow-up targets wrong lead or agent: %+v", fu)
	}
	if time.Until(fu.DueAt) < 23*time.Hour {
		t.Fatalf("follow-up due too soon: %v", fu.DueAt)
	}
}

func TestLogCallNoFollowUpForInterested(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	caller := employee("Caller")
	agents.agents[caller.ID] = caller

	leadID := seedLead(store, caller.ID, 0)

	scheduler := &fakeScheduler{}
	svc := testService(store, agents, scheduler)
	report, err := svc.LogCall(context.Background(), Actor{ID: caller.ID, Role: "Employee"}, CallLog{
		LeadID:  leadID,
		Outcome: domain.OutcomeInterested,
	})
	if err != nil {
		t.Fatalf("LogCall: %v", err)
	}
	if report.Status != "Interested" {
		t.Fatalf("expected Interested status, got %q", report.Status)
	}
	if len(scheduler.scheduled) != 0 {
		t.Fatalf("no follow-up expected for interested outcome")
	}
}

func TestLogCallInterestedSurvivesTouchBudget(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	caller := employee("Caller")
	fresh := employee("Fresh")
	agents.agents[caller.ID] = caller
	agents.agents[fresh.ID] = fresh

	leadID := seedLead(store, caller.ID, 7)

	svc := testService(store, agents, &fakeScheduler{})
	report, err := svc.LogCall(context.Background(), Actor{ID: caller.ID, Role: "Employee"}, CallLog{
		LeadID:  leadID,
		Outcome: domain.OutcomeInterested,
	})
	if err != nil {
		t.Fatalf("LogCall: %v", err)
	}
	if report.Recycled || report.Archived {
		t.Fatalf("interested lead must stay with its owner, got %+v", report)
	}
	lead := store.leads[leadID]
	if lead.TouchCount != 8 {
		t.Fatalf("expected touch count 8, got %d", lead.TouchCount)
	}
	if lead.AssignedTo == nil || *lead.AssignedTo != caller.ID {
		t.Fatalf("interested lead must keep its owner")
	}
}

func TestDistributeMapsPoolErrors(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	distributor := employee("Distributor")
	target := employee("Target")
	agents.agents[distributor.ID] = distributor
	agents.agents[target.ID] = target

	store.distributeErr = domain.ErrInsufficientPool

	svc := testService(store, agents, &fakeScheduler{})
	_, err := svc.Distribute(context.Background(), Actor{ID: distributor.ID, Role: "TeamLead"}, nil,
		[]domain.Assignment{{AgentID: target.ID, Count: 10}})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for insufficient pool, got %v", err)
	}
}

func TestDistributeRejectsUnknownAgent(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	distributor := employee("Distributor")
	agents.agents[distributor.ID] = distributor

	svc := testService(store, agents, &fakeScheduler{})
	_, err := svc.Distribute(context.Background(), Actor{ID: distributor.ID, Role: "TeamLead"}, nil,
		[]domain.Assignment{{AgentID: uuid.New(), Count: 1}})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown agent, got %v", err)
	}
	if store.distributed != nil {
		t.Fatalf("nothing must move when validation fails")
	}
}

func TestDeleteBatchPermissions(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	uploader := employee("Uploader")
	stranger := employee("Stranger")

	svc := testService(store, agents, &fakeScheduler{})
	ctx := context.Background()

	batchID, err := store.CreateBatch(ctx, "leads.xlsx", uploader.ID)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	if _, err := svc.DeleteBatch(ctx, Actor{ID: stranger.ID, Role: "BranchManager"}, batchID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for foreign batch, got %v", err)
	}

	result, err := svc.DeleteBatch(ctx, Actor{ID: stranger.ID, Role: "Admin"}, batchID)
	if err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if result.Deleted != 2 || result.Retained != 1 {
		t.Fatalf("unexpected delete result %+v", result)
	}
}

func TestAdminReassignResurrectsArchivedLead(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	admin := ports.Agent{ID: uuid.New(), Name: "Root", Role: "Admin"}
	target := employee("Target")
	agents.agents[admin.ID] = admin
	agents.agents[target.ID] = target

	leadID := seedLead(store, admin.ID, 8)
	lead := store.leads[leadID]
	lead.IsArchived = true
	lead.AssignedTo = nil
	reason := domain.ExhaustedReason
	lead.ArchiveReason = &reason
	store.leads[leadID] = lead

	svc := testService(store, agents, &fakeScheduler{})
	if err := svc.AdminReassign(context.Background(), Actor{ID: admin.ID, Role: "Admin"}, leadID, target.ID); err != nil {
		t.Fatalf("AdminReassign: %v", err)
	}

	lead = store.leads[leadID]
	if lead.IsArchived {
		t.Fatalf("reassigned lead must be unarchived")
	}
	if lead.TouchCount != 0 || lead.Status != "New" {
		t.Fatalf("reassigned lead must reset, got touch=%d status=%q", lead.TouchCount, lead.Status)
	}
	if lead.AssignedTo == nil || *lead.AssignedTo != target.ID {
		t.Fatalf("reassigned lead must belong to the target")
	}
}

func TestCheckDuplicateNormalizesBeforeLookup(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	owner := employee("Owner")
	seedLead(store, owner.ID, 2)

	svc := testService(store, agents, &fakeScheduler{})
	ctx := context.Background()

	result, err := svc.CheckDuplicate(ctx, "+91 98765 43210")
	if err != nil {
		t.Fatalf("CheckDuplicate: %v", err)
	}
	if !result.IsDuplicate || result.Existing == nil {
		t.Fatalf("expected duplicate hit, got %+v", result)
	}
	if result.Existing.PhoneNumber != "9876543210" {
		t.Fatalf("unexpected lead %q", result.Existing.PhoneNumber)
	}

	result, err = svc.CheckDuplicate(ctx, "8123456789")
	if err != nil {
		t.Fatalf("CheckDuplicate miss: %v", err)
	}
	if result.IsDuplicate {
		t.Fatalf("expected no duplicate for unseen number")
	}

	if _, err := svc.CheckDuplicate(ctx, "12345"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for short number, got %v", err)
	}
}

func TestBatchFileURLRequiresArchive(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	uploader := employee("Uploader")

	svc := testService(store, agents, &fakeScheduler{})
	ctx := context.Background()

	batchID, err := store.CreateBatch(ctx, "leads.xlsx", uploader.ID)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	if _, err := svc.BatchFileURL(ctx, batchID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found without an archived file, got %v", err)
	}
}

type fakeGate struct{ allow bool }

func (g fakeGate) MayOperate(context.Context, uuid.UUID) (bool, error) { return g.allow, nil }

func TestLogCallRespectsActorGate(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	caller := employee("Caller")
	leadID := seedLead(store, caller.ID, 1)

	svc := New(store, agents, &fakeScheduler{}, nil, slog.Default(), Options{
		TouchBudget:   8,
		FollowUpDelay: 24 * time.Hour,
		Gate:          fakeGate{allow: false},
		Rand:          rand.New(rand.NewSource(1)),
	})

	_, err := svc.LogCall(context.Background(), Actor{ID: caller.ID, Role: "Employee"}, CallLog{
		LeadID:  leadID,
		Outcome: domain.OutcomeBusy,
	})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden from closed gate, got %v", err)
	}
	if len(store.appliedTransitions) != 0 {
		t.Fatalf("gated call must not touch the lead")
	}
}

func TestMyLeadsClampsLimit(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	owner := employee("Owner")

	svc := testService(store, agents, &fakeScheduler{})
	ctx := context.Background()
	actor := Actor{ID: owner.ID, Role: "Employee"}

	for _, tc := range []struct {
		requested int
		want      int
	}{
		{requested: 0, want: 200},
		{requested: 50, want: 50},
		{requested: 9999, want: 200},
	} {
		if _, err := svc.MyLeads(ctx, actor, tc.requested); err != nil {
			t.Fatalf("MyLeads(%d): %v", tc.requested, err)
		}
		if store.listLimit != tc.want {
			t.Fatalf("requested %d: expected limit %d, got %d", tc.requested, tc.want, store.listLimit)
		}
	}
}
