package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/coach-ops-api/internal/models"
	"github.com/fitdesk/coach-ops-api/internal/service"
	appErrors "github.com/fitdesk/coach-ops-api/pkg/errors"
	"github.com/fitdesk/coach-ops-api/pkg/response"
)

// WorkoutHandler exposes workout template and assignment endpoints.
type WorkoutHandler struct {
	workouts *service.WorkoutService
}

// NewWorkoutHandler constructs WorkoutHandler.
func NewWorkoutHandler(workouts *service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workouts: workouts}
}

// List godoc
// @Summary List workouts
// @Tags Workouts
// @Produce json
// @Param coach_id query string false "Filter by coach"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /workouts [get]
func (h *WorkoutHandler) List(c *gin.Context) {
	filter := models.WorkoutFilter{
		CoachID: c.Query("coach_id"),
		Search:  strings.TrimSpace(c.Query("search")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}
	workouts, pagination, err := h.workouts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workouts, pagination)
}

// Get godoc
// @Summary Get workout detail
// @Tags Workouts
// @Produce json
// @Param id path string true "Workout ID"
// @Success 200 {object} response.Envelope
// @Router /workouts/{id} [get]
func (h *WorkoutHandler) Get(c *gin.Context) {
	workout, err := h.workouts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workout, nil)
}

// Create godoc
// @Summary Create workout
// @Tags Workouts
// @Accept json
// @Produce json
// @Param payload body service.CreateWorkoutRequest true "Workout payload"
// @Success 201 {object} response.Envelope
// @Router /workouts [post]
func (h *WorkoutHandler) Create(c *gin.Context) {
	var req service.CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil && req.CoachID == "" {
		req.CoachID = claims.UserID
	}
	workout, err := h.workouts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, workout)
}

// Update godoc
// @Summary Update workout
// @Tags Workouts
// @Accept json
// @Produce json
// @Param id path string true "Workout ID"
// @Param payload body service.UpdateWorkoutRequest true "Workout payload"
// @Success 200 {object} response.Envelope
// @Router /workouts/{id} [put]
func (h *WorkoutHandler) Update(c *gin.Context) {
	var req service.UpdateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	workout, err := h.workouts.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workout, nil)
}

// Delete godoc
// @Summary Delete workout
// @Tags Workouts
// @Produce json
// @Param id path string true "Workout ID"
// @Success 204
// @Router /workouts/{id} [delete]
func (h *WorkoutHandler) Delete(c *gin.Context) {
	if err := h.workouts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assign godoc
// @Summary Assign a workout to a member
// @Tags Workouts
// @Accept json
// @Produce json
// @Param id path string true "Workout ID"
// @Param payload body service.AssignWorkoutRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /workouts/{id}/assign [post]
func (h *WorkoutHandler) Assign(c *gin.Context) {
	var req service.AssignWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.WorkoutID = c.Param("id")
	if claims := claimsFromContext(c); claims != nil && req.AssignedBy == "" {
		req.AssignedBy = claims.UserID
	}
	assignment, err := h.workouts.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Assignments godoc
// @Summary List a member's workout assignments
// @Tags Workouts
// @Produce json
// @Param user_id query string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /workouts/assignments [get]
func (h *WorkoutHandler) Assignments(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		if claims := claimsFromContext(c); claims != nil {
			userID = claims.UserID
		}
	}
	if userID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "user_id is required"))
		return
	}
	assignments, err := h.workouts.AssignmentsForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Complete godoc
// @Summary Mark an assignment completed
// @Tags Workouts
// @Produce json
// @Param assignmentId path string true "Assignment ID"
// @Success 204
// @Router /workouts/assignments/{assignmentId}/complete [post]
func (h *WorkoutHandler) Complete(c *gin.Context) {
	if err := h.workouts.Complete(c.Request.Context(), c.Param("assignmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
