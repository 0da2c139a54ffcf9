package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/services"
)

type AdaptationHandler struct {
	log          *logger.Logger
	orchestrator services.OrchestratorService
	assessor     services.AdaptationService
}

func NewAdaptationHandler(log *logger.Logger, orchestrator services.OrchestratorService, assessor services.AdaptationService) *AdaptationHandler {
	return &AdaptationHandler{
		log:          log.With("handler", "AdaptationHandler"),
		orchestrator: orchestrator,
		assessor:     assessor,
	}
}

// Assess handles POST /api/users/:id/adaptation/assess. Read-only: it
// reports whether the plan should change without changing anything.
func (h *AdaptationHandler) Assess(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("invalid user id"))
		return
	}
	assessment, err := h.assessor.ShouldAdapt(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Assess failed", "error", err, "user_id", userID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assessment": assessment})
}

type applyRequest struct {
	Entitled bool `json:"entitled"`
}

// Apply handles POST /api/users/:id/adaptation/apply. Regenerates the
// active plan when the assessment clears the confidence gate.
func (h *AdaptationHandler) Apply(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("invalid user id"))
		return
	}
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		RespondError(c, http.StatusBadRequest, "validation_failed", err)
		return
	}
	result, err := h.orchestrator.Adapt(c.Request.Context(), userID, services.AdaptOptions{Entitled: req.Entitled})
	if err != nil {
		h.log.Error("Apply failed", "error", err, "user_id", userID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
