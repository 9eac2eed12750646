package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/coach-ops-api/internal/service"
	appErrors "github.com/fitdesk/coach-ops-api/pkg/errors"
	"github.com/fitdesk/coach-ops-api/pkg/response"
)

// ChallengeHandler exposes challenge and enrollment endpoints.
type ChallengeHandler struct {
	challenges *service.ChallengeService
}

// NewChallengeHandler constructs ChallengeHandler.
func NewChallengeHandler(challenges *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges}
}

// List godoc
// @Summary List challenges
// @Description Date filters select challenges whose window overlaps the range at day granularity.
// @Tags Challenges
// @Produce json
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Param user_id query string false "Only challenges the user is enrolled in"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /challenges [get]
func (h *ChallengeHandler) List(c *gin.Context) {
	req := service.ChallengeListRequest{UserID: c.Query("user_id")}
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
			return
		}
		req.From = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
			return
		}
		req.To = &parsed
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		req.PageSize = size
	}

	challenges, pagination, err := h.challenges.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, challenges, pagination)
}

// Active godoc
// @Summary Challenges active today
// @Tags Challenges
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /challenges/active [get]
func (h *ChallengeHandler) Active(c *gin.Context) {
	challenges, err := h.challenges.ActiveToday(c.Request.Context(), time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, challenges, nil)
}

// Get godoc
// @Summary Get challenge detail
// @Tags Challenges
// @Produce json
// @Param id path string true "Challenge ID"
// @Success 200 {object} response.Envelope
// @Router /challenges/{id} [get]
func (h *ChallengeHandler) Get(c *gin.Context) {
	challenge, err := h.challenges.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, challenge, nil)
}

// Create godoc
// @Summary Create challenge
// @Tags Challenges
// @Accept json
// @Produce json
// @Param payload body service.CreateChallengeRequest true "Challenge payload"
// @Success 201 {object} response.Envelope
// @Router /challenges [post]
func (h *ChallengeHandler) Create(c *gin.Context) {
	var req service.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil && req.CreatedBy == "" {
		req.CreatedBy = claims.UserID
	}
	challenge, err := h.challenges.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, challenge)
}

// Update godoc
// @Summary Update challenge
// @Tags Challenges
// @Accept json
// @Produce json
// @Param id path string true "Challenge ID"
// @Param payload body service.UpdateChallengeRequest true "Challenge payload"
// @Success 200 {object} response.Envelope
// @Router /challenges/{id} [put]
func (h *ChallengeHandler) Update(c *gin.Context) {
	var req service.UpdateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	challenge, err := h.challenges.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, challenge, nil)
}

// Delete godoc
// @Summary Delete challenge
// @Tags Challenges
// @Produce json
// @Param id path string true "Challenge ID"
// @Success 204
// @Router /challenges/{id} [delete]
func (h *ChallengeHandler) Delete(c *gin.Context) {
	if err := h.challenges.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type enrollRequest struct {
	UserID string `json:"user_id"`
}

// Enroll godoc
// @Summary Enroll in a challenge
// @Tags Challenges
// @Accept json
// @Produce json
// @Param id path string true "Challenge ID"
// @Param payload body enrollRequest false "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /challenges/{id}/enroll [post]
func (h *ChallengeHandler) Enroll(c *gin.Context) {
	var req enrollRequest
	_ = c.ShouldBindJSON(&req)
	if req.UserID == "" {
		if claims := claimsFromContext(c); claims != nil {
			req.UserID = claims.UserID
		}
	}
	if req.UserID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "user_id is required"))
		return
	}
	enrollment, err := h.challenges.Enroll(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Withdraw godoc
// @Summary Withdraw from a challenge
// @Tags Challenges
// @Accept json
// @Produce json
// @Param id path string true "Challenge ID"
// @Param payload body enrollRequest false "Enrollment payload"
// @Success 204
// @Router /challenges/{id}/enroll [delete]
func (h *ChallengeHandler) Withdraw(c *gin.Context) {
	var req enrollRequest
	_ = c.ShouldBindJSON(&req)
	if req.UserID == "" {
		if claims := claimsFromContext(c); claims != nil {
			req.UserID = claims.UserID
		}
	}
	if req.UserID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "user_id is required"))
		return
	}
	if err := h.challenges.Withdraw(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Enrollments godoc
// @Summary List challenge enrollments
// @Tags Challenges
// @Produce json
// @Param id path string true "Challenge ID"
// @Success 200 {object} response.Envelope
// @Router /challenges/{id}/enrollments [get]
func (h *ChallengeHandler) Enrollments(c *gin.Context) {
	enrollments, err := h.challenges.Enrollments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}
