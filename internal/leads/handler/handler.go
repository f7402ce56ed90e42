// Package handler exposes the leads engine over HTTP.
package handler

import (
	"io"
	"net/http"
	"strconv"

	"salesops_backend/internal/leads/domain"
	"salesops_backend/internal/leads/service"
	"salesops_backend/internal/leads/transport"
	"salesops_backend/platform/httpkit"
	"salesops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc           *service.Service
	validate      *validator.Validator
	maxUploadSize int64
}

func New(svc *service.Service, validate *validator.Validator, maxUploadSize int64) *Handler {
	return &Handler{svc: svc, validate: validate, maxUploadSize: maxUploadSize}
}

func actorFrom(c *gin.Context) (service.Actor, bool) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return service.Actor{}, false
	}
	return service.Actor{ID: id.UserID(), Role: id.Role()}, true
}

// Upload ingests a multipart file of phone leads into a new batch.
func (h *Handler) Upload(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "no file uploaded", nil)
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		httpkit.Error(c, http.StatusBadRequest, "file too large", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}
	if int64(len(data)) > h.maxUploadSize {
		httpkit.Error(c, http.StatusBadRequest, "file too large", nil)
		return
	}

	result, err := h.svc.Upload(c.Request.Context(), actor, fileHeader.Filename, data)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) Distribute(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req transport.DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	assignments := make([]domain.Assignment, len(req.Assignments))
	for i, a := range req.Assignments {
		assignments[i] = domain.Assignment{AgentID: a.AgentID, Count: a.Count}
	}

	moved, err := h.svc.Distribute(c.Request.Context(), actor, req.BatchID, assignments)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DistributeResponse{Moved: moved})
}

func (h *Handler) LogCall(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req transport.LogCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	report, err := h.svc.LogCall(c.Request.Context(), actor, service.CallLog{
		LeadID:      req.LeadID,
		Outcome:     req.Outcome,
		Notes:       req.Notes,
		Duration:    req.Duration,
		MessageSent: req.MessageSent,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LogCallResponse{
		Status:     report.Status,
		Archived:   report.Archived,
		Recycled:   report.Recycled,
		RecycledTo: report.RecycledTo,
	})
}

func (h *Handler) Reassign(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req transport.ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.AdminReassign(c.Request.Context(), actor, req.LeadID, req.NewAgentID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"msg": "lead reassigned"})
}

func (h *Handler) MyLeads(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	leads, err := h.svc.MyLeads(c.Request.Context(), actor, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponses(leads))
}

func (h *Handler) Archived(c *gin.Context) {
	leads, err := h.svc.ArchivedLeads(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponses(leads))
}

func (h *Handler) Lifecycle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lifecycle, err := h.svc.LeadLifecycle(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLifecycleResponse(lifecycle.Lead, lifecycle.Custody, lifecycle.History))
}

func (h *Handler) Batches(c *gin.Context) {
	batches, err := h.svc.Batches(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToBatchSummaryResponses(batches))
}

func (h *Handler) BatchDetails(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	batch, leads, err := h.svc.BatchLeads(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BatchDetailResponse{
		Batch: transport.BatchResponse{
			ID:         batch.ID,
			FileName:   batch.FileName,
			UploadedBy: batch.UploadedBy,
			TotalCount: batch.TotalCount,
			FileKey:    batch.FileKey,
			CreatedAt:  batch.CreatedAt,
		},
		Leads: transport.ToLeadResponses(leads),
	})
}

func (h *Handler) CheckDuplicate(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		httpkit.Error(c, http.StatusBadRequest, "phone parameter required", nil)
		return
	}

	result, err := h.svc.CheckDuplicate(c.Request.Context(), phone)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.DuplicateCheckResponse{IsDuplicate: result.IsDuplicate}
	if result.Existing != nil {
		lead := transport.ToLeadResponse(*result.Existing)
		resp.ExistingLead = &lead
	}
	httpkit.OK(c, resp)
}

func (h *Handler) BatchFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	url, err := h.svc.BatchFileURL(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"url": url})
}

func (h *Handler) DeleteBatch(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.DeleteBatch(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DeleteBatchResponse{Deleted: result.Deleted, Retained: result.Retained})
}

func (h *Handler) Stats(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	stats, err := h.svc.MyStats(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}
