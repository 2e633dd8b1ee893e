package dto

import "github.com/noah-isme/bps-routine/internal/models"

// TimetableQuery captures GET /timetable filters.
type TimetableQuery struct {
	Teacher string `form:"teacher" validate:"required"`
	Day     string `form:"day" validate:"required"`
}

// BusyQuery captures GET /timetable/busy filters.
type BusyQuery struct {
	Day   string `form:"day" validate:"required"`
	Start string `form:"start" validate:"required"`
}

// TimetableResponse lists one teacher's entries for a day.
type TimetableResponse struct {
	Teacher models.TeacherRef      `json:"teacher"`
	Day     models.Weekday         `json:"day"`
	Entries []models.ScheduleEntry `json:"entries"`
}

// BusyResponse lists teachers whose class starts at the given time.
type BusyResponse struct {
	Day      models.Weekday      `json:"day"`
	Start    models.ClockTime    `json:"start"`
	Teachers []models.TeacherRef `json:"teachers"`
}

// TimetableImportResponse summarises an accepted timetable upload.
type TimetableImportResponse struct {
	ImportID   string         `json:"importId"`
	Filename   string         `json:"filename"`
	EntryCount int            `json:"entryCount"`
	Teachers   int            `json:"teachers"`
	PerDay     map[string]int `json:"perDay"`
}

// AssignmentInput maps one vacated slot to a substitute.
type AssignmentInput struct {
	Slot       string `json:"slot" validate:"required"`
	Substitute string `json:"substitute" validate:"required"`
}

// RecordAbsenceRequest captures POST /absences. Assignments may be given either as a list
// or as the "HH:MM: Name | HH:MM: Name" log string, not both.
type RecordAbsenceRequest struct {
	Date        string            `json:"date" validate:"required"`
	Teacher     string            `json:"teacher" validate:"required"`
	LeaveType   string            `json:"leaveType" validate:"required"`
	Assignments []AssignmentInput `json:"assignments" validate:"omitempty,dive"`
	Log         string            `json:"log"`
}

// AbsenceResponse returns a stored absence and any double-booking warnings.
type AbsenceResponse struct {
	Absence  models.AbsenceRecord `json:"absence"`
	Log      string               `json:"log"`
	Warnings []string             `json:"warnings,omitempty"`
}

// AbsenceQuery captures GET /absences filters. Date selects one day; From/To a range.
type AbsenceQuery struct {
	Date     string `form:"date"`
	From     string `form:"from"`
	To       string `form:"to"`
	Teacher  string `form:"teacher"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

// AbsenceImportResponse summarises an imported leave log.
type AbsenceImportResponse struct {
	Imported int      `json:"imported"`
	Dates    []string `json:"dates"`
}

// CurrentQuery captures GET /routine/current. Date and time default to now.
type CurrentQuery struct {
	Teacher string `form:"teacher" validate:"required"`
	Date    string `form:"date"`
	Time    string `form:"time"`
}

// CurrentResponse answers "where should this teacher be now".
type CurrentResponse struct {
	Teacher    models.TeacherRef         `json:"teacher"`
	Date       string                    `json:"date"`
	Day        models.Weekday            `json:"day"`
	Time       models.ClockTime          `json:"time"`
	Assignment models.ResolvedAssignment `json:"assignment"`
}

// PlanQuery captures GET /routine/plan.
type PlanQuery struct {
	Absent string `form:"absent" validate:"required"`
	Date   string `form:"date"`
}

// PlanResponse lists ranked candidates per vacated slot.
type PlanResponse struct {
	Absent models.TeacherRef `json:"absent"`
	Date   string            `json:"date"`
	Day    models.Weekday    `json:"day"`
	Slots  []models.SlotPlan `json:"slots"`
}

// OverviewQuery captures GET /routine/overview.
type OverviewQuery struct {
	Date string `form:"date"`
}

// CoverageSummary counts overview rows by status.
type CoverageSummary struct {
	Regular     int `json:"regular"`
	Substituted int `json:"substituted"`
	Uncovered   int `json:"uncovered"`
}

// OverviewResponse is the bird's-eye view of a day.
type OverviewResponse struct {
	Date    string                `json:"date"`
	Day     models.Weekday        `json:"day"`
	Rows    []models.SlotCoverage `json:"rows"`
	Summary CoverageSummary       `json:"summary"`
}

// ExportRequest captures POST /exports.
type ExportRequest struct {
	Date   string              `json:"date"`
	Format models.ExportFormat `json:"format" validate:"required"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Date      string              `json:"date"`
	Format    models.ExportFormat `json:"format"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
