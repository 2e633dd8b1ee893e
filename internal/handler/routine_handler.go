package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bps-routine/internal/dto"
	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
	"github.com/noah-isme/bps-routine/pkg/response"
)

type routineService interface {
	Current(ctx context.Context, query dto.CurrentQuery) (*dto.CurrentResponse, error)
	Plan(ctx context.Context, query dto.PlanQuery) (*dto.PlanResponse, error)
	Overview(ctx context.Context, query dto.OverviewQuery) (*dto.OverviewResponse, error)
}

// RoutineHandler answers where teachers should be and who can cover for whom.
type RoutineHandler struct {
	service routineService
}

// NewRoutineHandler builds a RoutineHandler.
func NewRoutineHandler(service routineService) *RoutineHandler {
	return &RoutineHandler{service: service}
}

// Current godoc
// @Summary Resolve a teacher's current assignment
// @Description Date and time default to now in the school's timezone.
// @Tags Routine
// @Produce json
// @Param teacher query string true "Teacher code or name"
// @Param date query string false "Date DD-MM-YYYY"
// @Param time query string false "Time HH:MM"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /routine/current [get]
func (h *RoutineHandler) Current(c *gin.Context) {
	var query dto.CurrentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query"))
		return
	}
	resp, err := h.service.Current(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// Plan godoc
// @Summary Rank substitutes for an absent teacher's classes
// @Tags Routine
// @Produce json
// @Param absent query string true "Absent teacher code or name"
// @Param date query string false "Date DD-MM-YYYY"
// @Success 200 {object} response.Envelope
// @Router /routine/plan [get]
func (h *RoutineHandler) Plan(c *gin.Context) {
	var query dto.PlanQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query"))
		return
	}
	resp, err := h.service.Plan(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// Overview godoc
// @Summary Show every class of a date with who takes it
// @Tags Routine
// @Produce json
// @Param date query string false "Date DD-MM-YYYY"
// @Success 200 {object} response.Envelope
// @Router /routine/overview [get]
func (h *RoutineHandler) Overview(c *gin.Context) {
	var query dto.OverviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query"))
		return
	}
	resp, err := h.service.Overview(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp, map[string]interface{}{"summary": resp.Summary})
}
