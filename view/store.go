package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Medium is where the serialized collection lives. The whole collection is
// one value: Read returns it (nil when never written) and Write replaces it.
type Medium interface {
	Available(ctx context.Context) error
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Store owns the saved views and the transient active-view state. The
// in-memory collection is the cache of record; the medium is only read once,
// when the store is created.
type Store struct {
	mu       sync.RWMutex
	medium   Medium
	views    []SavedView
	activeID string
	modified bool

	now   func() time.Time
	newID func() string
	log   zerolog.Logger

	subs    map[int]chan Snapshot
	nextSub int
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// NewStore loads the collection from medium. A nil medium means there is no
// storage in this environment: mutations fail with ErrEnvironmentUnavailable
// and reads return empty results. Unreadable content is logged and treated
// as an empty collection.
func NewStore(ctx context.Context, medium Medium, opts ...Option) *Store {
	s := &Store{
		medium: medium,
		views:  []SavedView{},
		now:    time.Now,
		newID:  uuid.NewString,
		log:    zerolog.Nop(),
		subs:   make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.views = s.readAll(ctx)
	return s
}

func (s *Store) readAll(ctx context.Context) []SavedView {
	if s.medium == nil {
		s.log.Warn().Msg("no view storage available, starting empty")
		return []SavedView{}
	}
	if err := s.medium.Available(ctx); err != nil {
		s.log.Warn().Err(err).Msg("view storage unavailable, starting empty")
		return []SavedView{}
	}
	data, err := s.medium.Read(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read saved views")
		return []SavedView{}
	}
	views, err := decodeViews(data)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to parse saved views, starting empty")
		return []SavedView{}
	}
	s.log.Debug().Int("count", len(views)).Msg("loaded saved views")
	return views
}

// Save creates a view from input. It does not check name uniqueness or the
// storage limit; use NameExists and StorageStats first, or SaveValidated.
func (s *Store) Save(ctx context.Context, input SavedViewInput) (SavedView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureWritable(ctx); err != nil {
		return SavedView{}, err
	}
	v := s.insertLocked(ctx, input)
	s.publishLocked()
	return v, nil
}

// Load marks the view as used and makes it the active view.
func (s *Store) Load(ctx context.Context, id string) (SavedView, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureWritable(ctx); err != nil {
		return SavedView{}, false, err
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.log.Debug().Str("id", id).Msg("load: view not found")
		return SavedView{}, false, nil
	}
	v := &s.views[i]
	v.UsageCount++
	v.LastUsed = max(v.LastUsed, s.nowMillis())
	s.activeID = id
	s.modified = false
	s.persistLocked(ctx)
	s.publishLocked()
	return v.clone(), true, nil
}

// Update replaces the fields set in patch and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id string, patch ViewPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureWritable(ctx); err != nil {
		return false, err
	}
	if !s.updateLocked(id, patch) {
		s.log.Debug().Str("id", id).Msg("update: view not found")
		return false, nil
	}
	s.modified = false
	s.persistLocked(ctx)
	s.publishLocked()
	return true, nil
}

// Rename sets a new name. The name is not validated.
func (s *Store) Rename(ctx context.Context, id, name string) (bool, error) {
	return s.Update(ctx, id, ViewPatch{Name: &name})
}

// Delete removes the view. Deleting the active view clears it.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureWritable(ctx); err != nil {
		return false, err
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.log.Debug().Str("id", id).Msg("delete: view not found")
		return false, nil
	}
	s.views = append(s.views[:i], s.views[i+1:]...)
	if s.activeID == id {
		s.activeID = ""
		s.modified = false
	}
	s.persistLocked(ctx)
	s.publishLocked()
	return true, nil
}

// MarkModified records that the live table diverged from the active view.
func (s *Store) MarkModified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modified = true
	s.publishLocked()
}

func (s *Store) ClearActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = ""
	s.modified = false
	s.publishLocked()
}

// NameExists reports whether any view other than excludeID has exactly name.
func (s *Store) NameExists(name, excludeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nameExistsLocked(name, excludeID)
}

func (s *Store) StorageStats() StorageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return statsFor(len(s.views))
}

func (s *Store) Views() []SavedView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneViews(s.views)
}

// Get looks a view up without counting it as used.
func (s *Store) Get(id string) (SavedView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return SavedView{}, false
	}
	return s.views[i].clone(), true
}

func (s *Store) ActiveViewID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

func (s *Store) ActiveViewModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

func (s *Store) ActiveView() (SavedView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := activeView(s.views, s.activeID)
	if v == nil {
		return SavedView{}, false
	}
	return *v, true
}

func (s *Store) RecentViews() []SavedView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return recentViews(s.views, s.nowMillis())
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Views:              cloneViews(s.views),
		Recent:             recentViews(s.views, s.nowMillis()),
		Active:             activeView(s.views, s.activeID),
		ActiveViewID:       s.activeID,
		ActiveViewModified: s.modified,
		Stats:              statsFor(len(s.views)),
	}
}

func (s *Store) ensureWritable(ctx context.Context) error {
	if s.medium == nil {
		return ErrEnvironmentUnavailable
	}
	if err := s.medium.Available(ctx); err != nil {
		s.log.Warn().Err(err).Msg("view storage unavailable")
		return fmt.Errorf("%w: %w", ErrEnvironmentUnavailable, err)
	}
	return nil
}

func (s *Store) insertLocked(ctx context.Context, input SavedViewInput) SavedView {
	now := s.nowMillis()
	v := SavedView{
		ID:            s.uniqueIDLocked(),
		Name:          input.Name,
		Description:   input.Description,
		Config:        input.Config.clone(),
		OriginalQuery: input.OriginalQuery,
		CreatedAt:     now,
		UpdatedAt:     now,
		UsageCount:    0,
		LastUsed:      now,
	}
	s.views = append(s.views, v)
	s.persistLocked(ctx)
	return v.clone()
}

func (s *Store) updateLocked(id string, patch ViewPatch) bool {
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	v := &s.views[i]
	if patch.Name != nil {
		v.Name = *patch.Name
	}
	if patch.Description != nil {
		v.Description = *patch.Description
	}
	if patch.Config != nil {
		v.Config = patch.Config.clone()
	}
	if patch.OriginalQuery != nil {
		v.OriginalQuery = *patch.OriginalQuery
	}
	v.UpdatedAt = max(s.nowMillis(), v.CreatedAt)
	return true
}

// uniqueIDLocked retries the generator on the off chance it repeats an id.
func (s *Store) uniqueIDLocked() string {
	for {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id
		}
	}
}

// persistLocked writes the whole collection. A failed write is logged and
// the in-memory collection stays authoritative until the next mutation
// writes again.
func (s *Store) persistLocked(ctx context.Context) {
	data, err := encodeViews(s.views)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode saved views")
		return
	}
	if err := s.medium.Write(ctx, data); err != nil {
		s.log.Error().Err(err).Int("count", len(s.views)).Msg("failed to persist saved views")
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.views {
		if s.views[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) nameExistsLocked(name, excludeID string) bool {
	for _, v := range s.views {
		if v.Name == name && (excludeID == "" || v.ID != excludeID) {
			return true
		}
	}
	return false
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}
