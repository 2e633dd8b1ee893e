package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bps-routine/internal/dto"
	"github.com/noah-isme/bps-routine/internal/models"
	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
	"github.com/noah-isme/bps-routine/pkg/response"
)

type absenceService interface {
	Record(ctx context.Context, req dto.RecordAbsenceRequest) (*dto.AbsenceResponse, error)
	List(ctx context.Context, query dto.AbsenceQuery) ([]models.AbsenceRecord, *models.Pagination, error)
	Import(ctx context.Context, filename string, r io.Reader) (*dto.AbsenceImportResponse, error)
}

// AbsenceHandler records and lists teacher absences.
type AbsenceHandler struct {
	service absenceService
}

// NewAbsenceHandler builds an AbsenceHandler.
func NewAbsenceHandler(service absenceService) *AbsenceHandler {
	return &AbsenceHandler{service: service}
}

// List godoc
// @Summary List absences
// @Tags Absences
// @Produce json
// @Param date query string false "Single date DD-MM-YYYY"
// @Param from query string false "Range start DD-MM-YYYY"
// @Param to query string false "Range end DD-MM-YYYY"
// @Param teacher query string false "Teacher code or name"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /absences [get]
func (h *AbsenceHandler) List(c *gin.Context) {
	var query dto.AbsenceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid absence filters"))
		return
	}
	records, page, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, page)
}

// Record godoc
// @Summary Record an absence with its substitutions
// @Tags Absences
// @Accept json
// @Produce json
// @Param payload body dto.RecordAbsenceRequest true "Absence payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /absences [post]
func (h *AbsenceHandler) Record(c *gin.Context) {
	var req dto.RecordAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid absence payload"))
		return
	}
	resp, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(resp.Warnings) > 0 {
		response.JSON(c, http.StatusCreated, resp, nil, map[string]interface{}{"warnings": len(resp.Warnings)})
		return
	}
	response.Created(c, resp)
}

// Import godoc
// @Summary Import a legacy leave log
// @Tags Absences
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Leave log CSV, XLSX or XLS"
// @Success 201 {object} response.Envelope
// @Router /absences/import [post]
func (h *AbsenceHandler) Import(c *gin.Context) {
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
