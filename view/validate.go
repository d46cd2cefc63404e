package view

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names so errors line up with request bodies.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// SaveValidated checks the caller-side rules and saves in one step, so no
// other save can slip in between the check and the insert.
func (s *Store) SaveValidated(ctx context.Context, input SavedViewInput) (SavedView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureWritable(ctx); err != nil {
		return SavedView{}, err
	}
	if err := s.validateInputLocked(input); err != nil {
		return SavedView{}, err
	}
	v := s.insertLocked(ctx, input)
	s.publishLocked()
	return v, nil
}

// RenameValidated is Rename with the name rules applied. The view's own
// current name does not count as a duplicate.
func (s *Store) RenameValidated(ctx context.Context, id, name string) (bool, error) {
	_, ok, err := s.UpdateValidated(ctx, id, ViewPatch{Name: &name})
	return ok, err
}

// UpdateValidated is Update with the name and description rules applied to
// the fields the patch sets. It returns the view as stored after the update.
func (s *Store) UpdateValidated(ctx context.Context, id string, patch ViewPatch) (SavedView, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureWritable(ctx); err != nil {
		return SavedView{}, false, err
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.log.Debug().Str("id", id).Msg("update: view not found")
		return SavedView{}, false, nil
	}
	verr := &ValidationError{}
	if patch.Name != nil {
		s.checkNameLocked(verr, *patch.Name, id)
	}
	if patch.Description != nil && len([]rune(*patch.Description)) > MaxDescriptionLength {
		verr.add(FieldDescription, fmt.Sprintf("must not exceed %d characters", MaxDescriptionLength))
	}
	if err := verr.orNil(); err != nil {
		return SavedView{}, true, err
	}
	s.updateLocked(id, patch)
	s.modified = false
	s.persistLocked(ctx)
	s.publishLocked()
	return s.views[i].clone(), true, nil
}

func (s *Store) validateInputLocked(input SavedViewInput) error {
	verr := &ValidationError{}
	if err := validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			verr.add(fe.Field(), fieldMessage(fe))
		}
	}
	s.checkNameLocked(verr, input.Name, "")
	if len(s.views) >= StorageLimit {
		verr.add(FieldCapacity, fmt.Sprintf("limit of %d views reached", StorageLimit))
	}
	return verr.orNil()
}

func (s *Store) checkNameLocked(verr *ValidationError, name, excludeID string) {
	switch {
	case strings.TrimSpace(name) == "":
		verr.add(FieldName, "is required")
	case len([]rune(name)) > MaxNameLength:
		verr.add(FieldName, fmt.Sprintf("must not exceed %d characters", MaxNameLength))
	case s.nameExistsLocked(name, excludeID):
		verr.add(FieldName, "is already in use")
		verr.Duplicate = true
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	default:
		return "is invalid"
	}
}
