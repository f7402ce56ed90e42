package handler

import (
	"net/http"
	"time"

	"salesops_backend/internal/tasks/repository"
	"salesops_backend/internal/tasks/service"
	"salesops_backend/platform/httpkit"
	"salesops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

type taskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Type        string     `json:"type"`
	RelatedLead *uuid.UUID `json:"relatedLead,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     time.Time  `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toTaskResponses(tasks []repository.Task) []taskResponse {
	out := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = taskResponse{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Type:        t.Type,
			RelatedLead: t.RelatedLead,
			Priority:    t.Priority,
			Status:      t.Status,
			DueDate:     t.DueDate,
			CreatedAt:   t.CreatedAt,
		}
	}
	return out
}

func (h *Handler) MyTasks(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	tasks, err := h.svc.MyTasks(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toTaskResponses(tasks))
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Completed"`
}

func (h *Handler) SetStatus(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if err := h.svc.SetStatus(c.Request.Context(), id.UserID(), taskID, req.Status); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"msg": "task updated"})
}
