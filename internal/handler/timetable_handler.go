package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bps-routine/internal/dto"
	"github.com/noah-isme/bps-routine/internal/models"
	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
	"github.com/noah-isme/bps-routine/pkg/response"
)

type timetableService interface {
	ScheduledFor(ctx context.Context, query dto.TimetableQuery) (*dto.TimetableResponse, error)
	BusyAt(ctx context.Context, query dto.BusyQuery) (*dto.BusyResponse, error)
	Import(ctx context.Context, filename string, r io.Reader) (*dto.TimetableImportResponse, error)
	Revision() *models.TimetableImport
}

// TimetableHandler serves timetable lookups and uploads.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler builds a TimetableHandler.
func NewTimetableHandler(service timetableService) *TimetableHandler {
	return &TimetableHandler{service: service}
}

// ScheduledFor godoc
// @Summary List a teacher's classes on a weekday
// @Tags Timetable
// @Produce json
// @Param teacher query string true "Teacher code or name"
// @Param day query string true "Weekday, e.g. Monday"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) ScheduledFor(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil || query.Teacher == "" || query.Day == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teacher and day are required"))
		return
	}
	resp, err := h.service.ScheduledFor(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// BusyAt godoc
// @Summary List teachers whose class starts at a time
// @Tags Timetable
// @Produce json
// @Param day query string true "Weekday"
// @Param start query string true "Start time HH:MM"
// @Success 200 {object} response.Envelope
// @Router /timetable/busy [get]
func (h *TimetableHandler) BusyAt(c *gin.Context) {
	var query dto.BusyQuery
	if err := c.ShouldBindQuery(&query); err != nil || query.Day == "" || query.Start == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "day and start are required"))
		return
	}
	resp, err := h.service.BusyAt(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// Import godoc
// @Summary Replace the timetable from a CSV, XLSX or XLS upload
// @Tags Timetable
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Timetable spreadsheet"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/import [post]
func (h *TimetableHandler) Import(c *gin.Context) {
	fileHeader, src, err := openUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close()

	resp, err := h.service.Import(c.Request.Context(), fileHeader.Filename, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Revision godoc
// @Summary Describe the active timetable upload
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetable/revision [get]
func (h *TimetableHandler) Revision(c *gin.Context) {
	rev := h.service.Revision()
	if rev == nil {
		response.Error(c, appErrors.ErrTimetableNotLoaded)
		return
	}
	response.OK(c, rev)
}
