package handler

import (
	"net/http"
	"time"

	"salesops_backend/internal/directory/repository"
	"salesops_backend/internal/directory/service"
	"salesops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type agentResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAgentResponses(users []repository.User) []agentResponse {
	out := make([]agentResponse, len(users))
	for i, u := range users {
		out[i] = agentResponse{ID: u.ID, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt}
	}
	return out
}

// Agents lists active users, optionally filtered by role. Used by the
// distribution UI to pick waterfall targets.
func (h *Handler) Agents(c *gin.Context) {
	role := c.Query("role")
	if role == "" {
		role = "Employee"
	}

	switch role {
	case "Admin", "BranchManager", "HR", "TeamLead", "Employee":
	default:
		httpkit.Error(c, http.StatusBadRequest, "unknown role", nil)
		return
	}

	users, err := h.svc.AgentsByRole(c.Request.Context(), role)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toAgentResponses(users))
}
