package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/strivefit/strivefit-backend/internal/logger"
	"github.com/strivefit/strivefit-backend/internal/repos"
	"github.com/strivefit/strivefit-backend/internal/services"
	"github.com/strivefit/strivefit-backend/internal/types"
)

type GoalHandler struct {
	log          *logger.Logger
	orchestrator services.OrchestratorService
	goals        repos.GoalRepo
}

func NewGoalHandler(log *logger.Logger, orchestrator services.OrchestratorService, goals repos.GoalRepo) *GoalHandler {
	return &GoalHandler{
		log:          log.With("handler", "GoalHandler"),
		orchestrator: orchestrator,
		goals:        goals,
	}
}

// CreateGoal handles POST /api/users/:id/goals. Runs the full creation
// workflow; a 422 means the goal was rejected or rolled back and nothing
// was saved.
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("invalid user id"))
		return
	}
	var draft types.GoalDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		RespondError(c, http.StatusBadRequest, "validation_failed", err)
		return
	}
	result, err := h.orchestrator.CreateGoal(c.Request.Context(), userID, draft)
	if err != nil {
		h.log.Error("CreateGoal failed", "error", err, "user_id", userID)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, result)
}

func (h *GoalHandler) ListGoals(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("invalid user id"))
		return
	}
	var status *types.GoalStatus
	if raw := c.Query("status"); raw != "" {
		st := types.GoalStatus(raw)
		status = &st
	}
	goals, err := h.goals.ListByUser(c.Request.Context(), nil, userID, status)
	if err != nil {
		h.log.Error("ListGoals failed", "error", err, "user_id", userID)
		RespondError(c, http.StatusInternalServerError, "persistence_failed", err)
		return
	}
	RespondOK(c, gin.H{"goals": goals})
}

func (h *GoalHandler) GetProgress(c *gin.Context) {
	goalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("invalid goal id"))
		return
	}
	result, err := h.orchestrator.GetProgress(c.Request.Context(), goalID)
	if err != nil {
		h.log.Error("GetProgress failed", "error", err, "goal_id", goalID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

type measurementRequest struct {
	// Pointer so a measured value of exactly 0 still binds; the required
	// tag on a plain float64 would reject it as the zero value.
	Value      *float64   `json:"value" binding:"required"`
	MeasuredAt *time.Time `json:"measured_at,omitempty"`
	Source     string     `json:"source,omitempty"`
	Note       string     `json:"note,omitempty"`
	WorkoutID  *uuid.UUID `json:"workout_id,omitempty"`
}

func (h *GoalHandler) RecordMeasurement(c *gin.Context) {
	goalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_failed", fmt.Errorf("invalid goal id"))
		return
	}
	var req measurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation_failed", err)
		return
	}
	input := services.MeasurementInput{
		Value:     *req.Value,
		Source:    types.MeasurementSource(req.Source),
		Note:      req.Note,
		WorkoutID: req.WorkoutID,
	}
	if req.MeasuredAt != nil {
		input.MeasuredAt = req.MeasuredAt.UTC()
	}
	result, err := h.orchestrator.RecordMeasurement(c.Request.Context(), goalID, input)
	if err != nil {
		h.log.Error("RecordMeasurement failed", "error", err, "goal_id", goalID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
