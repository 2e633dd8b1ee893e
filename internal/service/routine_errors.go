package service

import (
	"errors"

	"github.com/noah-isme/bps-routine/internal/importer"
	"github.com/noah-isme/bps-routine/internal/routine"
	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
)

// translateRoutineError maps core and ingestion errors onto API errors. Errors that are
// already *appErrors.Error pass through; anything unrecognised becomes an internal error
// carrying fallback as its message.
func translateRoutineError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	var (
		malformed *routine.MalformedScheduleError
		conflict  *routine.ConflictError
		unknown   *routine.UnknownTeacherError
		invalid   *routine.InvalidAssignmentError
		leaveRow  *importer.LeaveRowError
	)
	switch {
	case errors.As(err, &malformed):
		return wrapAs(err, appErrors.ErrMalformedSchedule)
	case errors.As(err, &conflict):
		return wrapAs(err, appErrors.ErrResolutionConflict)
	case errors.As(err, &unknown):
		return wrapAs(err, appErrors.ErrUnknownTeacher)
	case errors.As(err, &invalid), errors.As(err, &leaveRow):
		return wrapAs(err, appErrors.ErrValidation)
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return wrapAs(err, appErrors.ErrValidation)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}

func wrapAs(err error, kind *appErrors.Error) *appErrors.Error {
	return appErrors.Wrap(err, kind.Code, kind.Status, err.Error())
}

func unknownTeacher(raw string) error {
	return wrapAs(&routine.UnknownTeacherError{Code: raw}, appErrors.ErrUnknownTeacher)
}

func validationError(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}
