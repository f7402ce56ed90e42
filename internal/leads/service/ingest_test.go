package service

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"salesops_backend/internal/leads/ports"
	"salesops_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestCandidatesFromRowsSpreadsheetScenario(t *testing.T) {
	rows := [][]string{
		{"+91 98765 43210", "Asha"},
		{"9876543210", "dup"},
		{"12345", "bad"},
	}

	candidates := CandidatesFromRows(rows)
	if len(candidates) != 1 {
		t.Fatalf("expected exactly 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Phone != "9876543210" {
		t.Fatalf("expected phone 9876543210, got %q", candidates[0].Phone)
	}
	if candidates[0].Name != "Asha" {
		t.Fatalf("expected name Asha, got %q", candidates[0].Name)
	}
	if candidates[0].OriginalRaw != "+91 98765 43210" {
		t.Fatalf("expected original raw preserved, got %q", candidates[0].OriginalRaw)
	}
}

func TestCandidatesFromRowsScansEveryCell(t *testing.T) {
	candidates := CandidatesFromRows([][]string{{"Asha", "9876543210"}})
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate from phone in second cell, got %d", len(candidates))
	}
	if candidates[0].Phone != "9876543210" {
		t.Fatalf("expected phone 9876543210, got %q", candidates[0].Phone)
	}
	if candidates[0].Name != "Asha" {
		t.Fatalf("expected name Asha, got %q", candidates[0].Name)
	}
}

func TestCandidatesFromRowsAlternateContacts(t *testing.T) {
	candidates := CandidatesFromRows([][]string{
		{"9876543210", "Asha", "8123456789"},
	})
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates from a row with two numbers, got %d", len(candidates))
	}
	if candidates[0].Phone != "9876543210" || candidates[1].Phone != "8123456789" {
		t.Fatalf("unexpected numbers %q %q", candidates[0].Phone, candidates[1].Phone)
	}
	for _, c := range candidates {
		if c.Name != "Asha" {
			t.Fatalf("both contacts should carry the row name, got %q", c.Name)
		}
	}
}

func TestCandidatesFromRowsDefaultsName(t *testing.T) {
	candidates := CandidatesFromRows([][]string{{"09876543210"}})
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Name != "Unknown" {
		t.Fatalf("expected Unknown fallback name, got %q", candidates[0].Name)
	}
}

func TestExtractCandidatesCSV(t *testing.T) {
	data := []byte("phone,name\n+91 98765 43210,Asha\n8123456789,Ravi\n")
	candidates, err := ExtractCandidates("leads.csv", data)
	if err != nil {
		t.Fatalf("ExtractCandidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Phone != "9876543210" || candidates[1].Phone != "8123456789" {
		t.Fatalf("unexpected numbers %q %q", candidates[0].Phone, candidates[1].Phone)
	}
}

func TestExtractCandidatesFreeText(t *testing.T) {
	text := strings.Join([]string{
		"Call list for Monday",
		"Asha mobile 98765 43210",
		"Ravi: +91-8123456789",
		"Invoice total 1234567",
	}, "\n")

	candidates, err := ExtractCandidates("notes.txt", []byte(text))
	if err != nil {
		t.Fatalf("ExtractCandidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Phone != "9876543210" || candidates[0].Name != "Asha" {
		t.Fatalf("unexpected first candidate %+v", candidates[0])
	}
	if candidates[1].Phone != "8123456789" || candidates[1].Name != "Ravi" {
		t.Fatalf("unexpected second candidate %+v", candidates[1])
	}
}

func TestUploadRollsBackEmptyBatch(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	uploader := employee("Uploader")
	agents.agents[uploader.ID] = uploader

	svc := New(store, agents, nil, nil, slog.Default(), Options{TouchBudget: 8})

	_, err := svc.Upload(context.Background(), Actor{ID: uploader.ID, Role: "BranchManager"},
		"empty.csv", []byte("phone,name\nabc,def\n"))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty file, got %v", err)
	}
	if len(store.deletedBatches) != 1 {
		t.Fatalf("empty upload must delete its batch record")
	}
	if len(store.batches) != 0 {
		t.Fatalf("no batch should survive an empty upload")
	}
}

func TestUploadPersistsCandidates(t *testing.T) {
	store := newFakeStore()
	agents := &fakeAgents{agents: make(map[uuid.UUID]ports.Agent)}
	uploader := employee("Uploader")
	agents.agents[uploader.ID] = uploader

	svc := New(store, agents, nil, nil, slog.Default(), Options{TouchBudget: 8})

	result, err := svc.Upload(context.Background(), Actor{ID: uploader.ID, Role: "BranchManager"},
		"leads.csv", []byte("+91 98765 43210,Asha\n9876543210,dup\n12345,bad\n"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("expected 1 imported lead, got %d", result.Imported)
	}
	if store.finalizedCount != 1 {
		t.Fatalf("expected batch total 1, got %d", store.finalizedCount)
	}
	if len(store.insertedLeads) != 1 {
		t.Fatalf("expected 1 inserted row, got %d", len(store.insertedLeads))
	}
	row := store.insertedLeads[0]
	if row.PhoneNumber != "9876543210" || row.Name != "Asha" {
		t.Fatalf("unexpected inserted row %+v", row)
	}
	if row.AssignedTo != uploader.ID {
		t.Fatalf("uploaded lead must start in the uploader's pool")
	}
}
