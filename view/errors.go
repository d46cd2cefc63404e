package view

import (
	"errors"
	"sort"
	"strings"
)

// ErrEnvironmentUnavailable is returned by mutating operations when the
// persistence medium cannot be reached. In-memory state is left untouched.
var ErrEnvironmentUnavailable = errors.New("view storage is unavailable in this environment, try again later")

// Field names used in ValidationError.Fields.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldCapacity    = "capacity"
)

// ValidationError reports the caller-side rules a save or rename broke.
type ValidationError struct {
	Fields map[string]string

	// Duplicate is set when the name is already taken.
	Duplicate bool
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid view: " + strings.Join(parts, "; ")
}

// DuplicateOnly reports whether a taken name is the only problem.
func (e *ValidationError) DuplicateOnly() bool {
	return e.Duplicate && len(e.Fields) == 1
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
