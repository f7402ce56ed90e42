// Package transport defines request and response DTOs for the leads API.
package transport

import (
	"time"

	"salesops_backend/internal/leads/repository"

	"github.com/google/uuid"
)

type AssignmentRequest struct {
	AgentID uuid.UUID `json:"agentId" validate:"required"`
	Count   int       `json:"count" validate:"min=0"`
}

type DistributeRequest struct {
	BatchID     *uuid.UUID          `json:"batchId"`
	Assignments []AssignmentRequest `json:"assignments" validate:"required,min=1,dive"`
}

type DistributeResponse struct {
	Moved int `json:"moved"`
}

type LogCallRequest struct {
	LeadID      uuid.UUID `json:"leadId" validate:"required"`
	Outcome     string    `json:"outcome" validate:"required,max=64"`
	Notes       string    `json:"notes" validate:"max=2000"`
	Duration    int       `json:"duration" validate:"min=0"`
	MessageSent *string   `json:"messageSent"`
}

type LogCallResponse struct {
	Status     string     `json:"status"`
	Archived   bool       `json:"archived"`
	Recycled   bool       `json:"recycled"`
	RecycledTo *uuid.UUID `json:"recycledTo,omitempty"`
}

type ReassignRequest struct {
	LeadID     uuid.UUID `json:"leadId" validate:"required"`
	NewAgentID uuid.UUID `json:"newAgentId" validate:"required"`
}

type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	PhoneNumber     string     `json:"phoneNumber"`
	Name            string     `json:"name"`
	Status          string     `json:"status"`
	TouchCount      int        `json:"touchCount"`
	CallCount       int        `json:"callCount"`
	LastCallOutcome *string    `json:"lastCallOutcome,omitempty"`
	LastCallAt      *time.Time `json:"lastCallAt,omitempty"`
	IsArchived      bool       `json:"isArchived"`
	ArchiveReason   *string    `json:"archiveReason,omitempty"`
	AssignedTo      *uuid.UUID `json:"assignedTo,omitempty"`
	BatchID         *uuid.UUID `json:"batchId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:              lead.ID,
		PhoneNumber:     lead.PhoneNumber,
		Name:            lead.Name,
		Status:          lead.Status,
		TouchCount:      lead.TouchCount,
		CallCount:       lead.CallCount,
		LastCallOutcome: lead.LastCallOutcome,
		LastCallAt:      lead.LastCallAt,
		IsArchived:      lead.IsArchived,
		ArchiveReason:   lead.ArchiveReason,
		AssignedTo:      lead.AssignedTo,
		BatchID:         lead.BatchID,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

func ToLeadResponses(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, len(leads))
	for i, lead := range leads {
		out[i] = ToLeadResponse(lead)
	}
	return out
}

type DuplicateCheckResponse struct {
	IsDuplicate  bool          `json:"isDuplicate"`
	ExistingLead *LeadResponse `json:"existingLead,omitempty"`
}

type BatchResponse struct {
	ID             uuid.UUID `json:"id"`
	FileName       string    `json:"fileName"`
	UploadedBy     uuid.UUID `json:"uploadedBy"`
	UploaderName   string    `json:"uploaderName,omitempty"`
	UploaderRole   string    `json:"uploaderRole,omitempty"`
	TotalCount     int       `json:"totalCount"`
	RemainingCount int       `json:"remainingCount"`
	FileKey        *string   `json:"fileKey,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func ToBatchSummaryResponses(batches []repository.BatchSummary) []BatchResponse {
	out := make([]BatchResponse, len(batches))
	for i, b := range batches {
		out[i] = BatchResponse{
			ID:             b.ID,
			FileName:       b.FileName,
			UploadedBy:     b.UploadedBy,
			UploaderName:   b.UploaderName,
			UploaderRole:   b.UploaderRole,
			TotalCount:     b.TotalCount,
			RemainingCount: b.RemainingCount,
			FileKey:        b.FileKey,
			CreatedAt:      b.CreatedAt,
		}
	}
	return out
}

type BatchDetailResponse struct {
	Batch BatchResponse  `json:"batch"`
	Leads []LeadResponse `json:"leads"`
}

type DeleteBatchResponse struct {
	Deleted  int `json:"deleted"`
	Retained int `json:"retained"`
}

type CustodyEntryResponse struct {
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
	AssignedBy uuid.UUID  `json:"assignedBy"`
	RoleAtTime string     `json:"roleAtTime"`
	AssignedAt time.Time  `json:"assignedAt"`
}

type HistoryEntryResponse struct {
	Action          string    `json:"action"`
	ActorID         uuid.UUID `json:"actorId"`
	Details         string    `json:"details,omitempty"`
	DurationSeconds int       `json:"durationSeconds"`
	MessageSent     *string   `json:"messageSent,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type LifecycleResponse struct {
	Lead    LeadResponse           `json:"lead"`
	Custody []CustodyEntryResponse `json:"custodyChain"`
	History []HistoryEntryResponse `json:"history"`
}

func ToLifecycleResponse(lead repository.Lead, custody []repository.CustodyEntry, history []repository.HistoryEntry) LifecycleResponse {
	resp := LifecycleResponse{
		Lead:    ToLeadResponse(lead),
		Custody: make([]CustodyEntryResponse, len(custody)),
		History: make([]HistoryEntryResponse, len(history)),
	}
	for i, e := range custody {
		resp.Custody[i] = CustodyEntryResponse{
			AssignedTo: e.AssignedTo,
			AssignedBy: e.AssignedBy,
			RoleAtTime: e.RoleAtTime,
			AssignedAt: e.AssignedAt,
		}
	}
	for i, e := range history {
		resp.History[i] = HistoryEntryResponse{
			Action:          e.Action,
			ActorID:         e.ActorID,
			Details:         e.Details,
			DurationSeconds: e.DurationSeconds,
			MessageSent:     e.MessageSent,
			CreatedAt:       e.CreatedAt,
		}
	}
	return resp
}
