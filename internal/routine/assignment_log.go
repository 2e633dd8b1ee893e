package routine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/noah-isme/bps-routine/internal/models"
)

const logSeparator = " | "

var logItemPattern = regexp.MustCompile(`^(\d{1,2}:\d{2}(?:\s*[AaPp][Mm])?)\s*:\s*(.+)$`)

// FormatAssignmentLog renders assignments as "HH:MM: Name | HH:MM: Name".
func FormatAssignmentLog(assignments models.Assignments) string {
	parts := make([]string, 0, len(assignments))
	for _, a := range assignments {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Slot, a.Substitute))
	}
	return strings.Join(parts, logSeparator)
}

// ParseAssignmentLog reads the text form back into assignments, resolving each name (or code)
// through the roster. A slot listed twice keeps its first position and the last substitute.
func ParseAssignmentLog(raw string, roster *models.Roster) (models.Assignments, error) {
	assignments := models.Assignments{}
	if strings.TrimSpace(raw) == "" {
		return assignments, nil
	}
	for _, item := range strings.Split(raw, "|") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		match := logItemPattern.FindStringSubmatch(item)
		if match == nil {
			return nil, fmt.Errorf("assignment %q: expected \"HH:MM: Name\"", item)
		}
		slot, err := models.ParseClock(match[1])
		if err != nil {
			return nil, fmt.Errorf("assignment %q: %w", item, err)
		}
		name := strings.TrimSpace(match[2])
		ref, ok := roster.Resolve(name)
		if !ok {
			return nil, &UnknownTeacherError{Code: name, Source: "assignment log"}
		}
		assignments = assignments.With(slot, ref)
	}
	return assignments, nil
}
