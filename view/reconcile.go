package view

import (
	"context"
	"fmt"
)

// CommitRequest carries the live table state a caller wants to keep.
type CommitRequest struct {
	Input SavedViewInput `json:"input"`

	// AsNew forces a new view even when a view is active.
	AsNew bool `json:"asNew"`
}

// Commit resolves the save dialog's update-or-save-new choice. With an active
// view and AsNew unset, the active view takes the new config (name and
// description are kept). Otherwise the input is validated and saved as a new
// view, which becomes the active one. Either way the active view is clean
// afterwards.
func (s *Store) Commit(ctx context.Context, req CommitRequest) (SavedView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureWritable(ctx); err != nil {
		return SavedView{}, err
	}

	if !req.AsNew && s.activeID != "" {
		cfg := req.Input.Config
		if s.updateLocked(s.activeID, ViewPatch{Config: &cfg}) {
			s.modified = false
			s.persistLocked(ctx)
			s.publishLocked()
			return s.views[s.indexLocked(s.activeID)].clone(), nil
		}
	}

	if err := s.validateInputLocked(req.Input); err != nil {
		return SavedView{}, err
	}
	v := s.insertLocked(ctx, req.Input)
	s.activeID = v.ID
	s.modified = false
	s.publishLocked()
	return v, nil
}

// Duplicate saves a copy of the view under the first free "(copy)" name.
// The copy starts with no usage. It fails with a ValidationError when the
// storage limit is reached.
func (s *Store) Duplicate(ctx context.Context, id string) (SavedView, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureWritable(ctx); err != nil {
		return SavedView{}, false, err
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.log.Debug().Str("id", id).Msg("duplicate: view not found")
		return SavedView{}, false, nil
	}
	if len(s.views) >= StorageLimit {
		verr := &ValidationError{}
		verr.add(FieldCapacity, fmt.Sprintf("limit of %d views reached", StorageLimit))
		return SavedView{}, true, verr
	}
	src := s.views[i]
	v := s.insertLocked(ctx, SavedViewInput{
		Name:          s.copyNameLocked(src.Name),
		Description:   src.Description,
		Config:        src.Config,
		OriginalQuery: src.OriginalQuery,
	})
	s.publishLocked()
	return v, true, nil
}

func (s *Store) copyNameLocked(name string) string {
	for n := 1; ; n++ {
		suffix := " (copy)"
		if n > 1 {
			suffix = fmt.Sprintf(" (copy %d)", n)
		}
		candidate := truncateRunes(name, MaxNameLength-len([]rune(suffix))) + suffix
		if !s.nameExistsLocked(candidate, "") {
			return candidate
		}
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
