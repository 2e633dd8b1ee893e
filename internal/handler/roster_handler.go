package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bps-routine/internal/models"
	"github.com/noah-isme/bps-routine/pkg/response"
)

type rosterService interface {
	List() []models.TeacherRef
	Lookup(nameOrCode string) (models.TeacherRef, error)
}

// RosterHandler exposes the teacher registry.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler builds a RosterHandler.
func NewRosterHandler(service rosterService) *RosterHandler {
	return &RosterHandler{service: service}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *RosterHandler) List(c *gin.Context) {
	teachers := h.service.List()
	response.JSON(c, http.StatusOK, teachers, &models.Pagination{Page: 1, PageSize: len(teachers), TotalCount: len(teachers)})
}

// Get godoc
// @Summary Resolve a teacher by code or name
// @Tags Teachers
// @Produce json
// @Param code path string true "Teacher code or display name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{code} [get]
func (h *RosterHandler) Get(c *gin.Context) {
	ref, err := h.service.Lookup(c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ref)
}
