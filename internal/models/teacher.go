package models

import (
	"fmt"
	"strings"
)

// TeacherRef identifies a staff member by the short code used in the timetable.
type TeacherRef struct {
	Code        string `db:"code" json:"code" mapstructure:"code"`
	DisplayName string `db:"display_name" json:"display_name" mapstructure:"name"`
	Email       string `db:"email" json:"email,omitempty" mapstructure:"email"`
}

func (t TeacherRef) String() string {
	if t.DisplayName == "" {
		return t.Code
	}
	return t.DisplayName
}

// Roster is the read-only registry of known teachers, kept in load order.
type Roster struct {
	refs   []TeacherRef
	byCode map[string]int
	byName map[string]int
}

// NewRoster validates and indexes the provided teachers.
func NewRoster(refs []TeacherRef) (*Roster, error) {
	r := &Roster{
		refs:   make([]TeacherRef, 0, len(refs)),
		byCode: make(map[string]int, len(refs)),
		byName: make(map[string]int, len(refs)),
	}
	for i, ref := range refs {
		ref.Code = strings.TrimSpace(ref.Code)
		ref.DisplayName = strings.TrimSpace(ref.DisplayName)
		ref.Email = strings.TrimSpace(ref.Email)
		if ref.Code == "" {
			return nil, fmt.Errorf("roster entry %d: code is required", i+1)
		}
		codeKey := normalizeKey(ref.Code)
		if _, exists := r.byCode[codeKey]; exists {
			return nil, fmt.Errorf("roster entry %d: duplicate code %q", i+1, ref.Code)
		}
		if ref.DisplayName == "" {
			ref.DisplayName = ref.Code
		}
		if strings.Contains(ref.Code, "|") || strings.Contains(ref.DisplayName, "|") {
			return nil, fmt.Errorf("roster entry %d: %q must not contain \"|\"", i+1, ref.DisplayName)
		}
		nameKey := normalizeKey(ref.DisplayName)
		if other, exists := r.byName[nameKey]; exists && r.refs[other].Code != ref.Code {
			return nil, fmt.Errorf("roster entry %d: duplicate name %q", i+1, ref.DisplayName)
		}
		// names and codes share one lookup space in assignment logs
		if _, exists := r.byCode[nameKey]; exists {
			return nil, fmt.Errorf("roster entry %d: name %q is another teacher's code", i+1, ref.DisplayName)
		}
		if _, exists := r.byName[codeKey]; exists {
			return nil, fmt.Errorf("roster entry %d: code %q is another teacher's name", i+1, ref.Code)
		}
		r.byCode[codeKey] = len(r.refs)
		r.byName[nameKey] = len(r.refs)
		r.refs = append(r.refs, ref)
	}
	return r, nil
}

// Len returns the number of teachers.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.refs)
}

// All returns a copy of the teachers in roster order.
func (r *Roster) All() []TeacherRef {
	if r == nil {
		return nil
	}
	out := make([]TeacherRef, len(r.refs))
	copy(out, r.refs)
	return out
}

// Lookup finds a teacher by code.
func (r *Roster) Lookup(code string) (TeacherRef, bool) {
	if r == nil {
		return TeacherRef{}, false
	}
	idx, ok := r.byCode[normalizeKey(code)]
	if !ok {
		return TeacherRef{}, false
	}
	return r.refs[idx], true
}

// Resolve finds a teacher by code first, then by display name.
func (r *Roster) Resolve(nameOrCode string) (TeacherRef, bool) {
	if ref, ok := r.Lookup(nameOrCode); ok {
		return ref, true
	}
	if r == nil {
		return TeacherRef{}, false
	}
	idx, ok := r.byName[normalizeKey(nameOrCode)]
	if !ok {
		return TeacherRef{}, false
	}
	return r.refs[idx], true
}

// Position returns the roster order of a code, or -1 when unknown.
func (r *Roster) Position(code string) int {
	if r == nil {
		return -1
	}
	idx, ok := r.byCode[normalizeKey(code)]
	if !ok {
		return -1
	}
	return idx
}

func normalizeKey(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}
