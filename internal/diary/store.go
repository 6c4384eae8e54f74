// Package diary holds the in-memory domain store: profiles, products, sets,
// diary entries and measurements, the UI selection state and the per-collection
// dirty flags the auto-sync scheduler flushes from.
package diary

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotReady        = errors.New("store not ready")
	ErrNotFound        = errors.New("not found")
	ErrInvalidWeight   = errors.New("invalid weight")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidCategory = errors.New("invalid meal category")
	ErrNoActiveProfile = errors.New("no active profile")
	ErrNilSnapshot     = errors.New("nil snapshot")
)

type Collection string

const (
	CollectionProfiles     Collection = "profiles"
	CollectionProducts     Collection = "products"
	CollectionSets         Collection = "sets"
	CollectionEntries      Collection = "entries"
	CollectionMeasurements Collection = "measurements"
	CollectionSettings     Collection = "settings"
)

// Collections in sync priority order.
var Collections = []Collection{
	CollectionProfiles,
	CollectionProducts,
	CollectionSets,
	CollectionEntries,
	CollectionMeasurements,
	CollectionSettings,
}

type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PendingChanges mirrors the dirty flags of every collection.
type PendingChanges struct {
	Collections    map[Collection]bool `json:"collections"`
	UnsavedChanges bool                `json:"unsavedChanges"`
}

// Count returns the number of dirty collections.
func (p PendingChanges) Count() int {
	n := 0
	for _, dirty := range p.Collections {
		if dirty {
			n++
		}
	}
	return n
}

// DirtySet is what a sync flushes: the dirty collections in priority order,
// the collection versions they were captured at and a copy of the data.
type DirtySet struct {
	Collections []Collection
	Versions    map[Collection]uint64
	Data        *Snapshot
}

func (d DirtySet) Has(c Collection) bool {
	for _, dc := range d.Collections {
		if dc == c {
			return true
		}
	}
	return false
}

func (d DirtySet) IsEmpty() bool {
	return len(d.Collections) == 0
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// Store is the single source of truth for all collections. Every mutation is
// atomic under the store lock and marks the touched collections dirty.
type Store struct {
	mu sync.RWMutex

	status  Status
	loadErr error

	data      *Snapshot
	selection Selection

	pending  map[Collection]bool
	versions map[Collection]uint64
	unsaved  bool
	revision uint64

	observers []func()

	now   func() time.Time
	newID func() string
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.status = StatusLoading
	s.loadErr = nil
	s.data = DefaultSnapshot()
	s.selection = Selection{
		ActiveProfileID: s.data.ActiveProfileID,
		Date:            s.now().Format(DateLayout),
	}
	s.pending = make(map[Collection]bool, len(Collections))
	s.versions = make(map[Collection]uint64, len(Collections))
	s.unsaved = false
	s.revision++
}

// Reset brings the store back to its freshly constructed state (built-in
// defaults, loading). Observers stay subscribed.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Subscribe registers fn to be called after every mutation, outside the store lock.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Hydrate replaces all collections with a loaded snapshot and makes the store
// ready. An empty snapshot falls back to the built-in defaults.
func (s *Store) Hydrate(snapshot *Snapshot) error {
	if snapshot == nil {
		return ErrNilSnapshot
	}

	s.mu.Lock()

	if snapshot.IsEmpty() {
		snapshot = DefaultSnapshot()
	}
	s.data = snapshot.clone()
	// entries may outlive their profiles in the backend, the default profile
	// is seeded back and saved on the next sync
	seeded := len(s.data.Profiles) == 0
	if seeded {
		s.data.Profiles = DefaultSnapshot().Profiles
	}
	if s.data.ActiveProfileID != "" && s.profileIndex(s.data.ActiveProfileID) < 0 {
		s.data.ActiveProfileID = ""
	}
	if s.data.ActiveProfileID == "" && len(s.data.Profiles) > 0 {
		s.data.ActiveProfileID = s.data.Profiles[0].ID
	}
	s.selection.ActiveProfileID = s.data.ActiveProfileID

	s.pending = make(map[Collection]bool, len(Collections))
	s.unsaved = false
	s.status = StatusReady
	s.loadErr = nil
	s.revision++
	if !seeded {
		s.mu.Unlock()
		return nil
	}

	s.markDirty(CollectionProfiles, CollectionSettings)
	observers := s.observers
	s.mu.Unlock()
	for _, notify := range observers {
		notify()
	}
	return nil
}

// MarkFailed flags a connection error for the session. A failed store rejects
// mutations and never falls back to defaults on its own.
func (s *Store) MarkFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
	s.loadErr = err
}

func (s *Store) Status() (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.loadErr
}

func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Store) Pending() PendingChanges {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flags := make(map[Collection]bool, len(Collections))
	for _, c := range Collections {
		flags[c] = s.pending[c]
	}
	return PendingChanges{
		Collections:    flags,
		UnsavedChanges: s.unsaved,
	}
}

func (s *Store) HasPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unsaved
}

// Snapshot returns a deep copy of all persisted collections.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

// DirtySnapshot captures the dirty collections and their versions for a sync.
func (s *Store) DirtySnapshot() DirtySet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := DirtySet{
		Versions: make(map[Collection]uint64),
		Data:     s.data.clone(),
	}
	for _, c := range Collections {
		if s.pending[c] {
			d.Collections = append(d.Collections, c)
			d.Versions[c] = s.versions[c]
		}
	}
	return d
}

// MarkSynced clears the flag of every written collection that was not
// modified again after the snapshot was taken.
func (s *Store) MarkSynced(d DirtySet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range d.Collections {
		if s.versions[c] == d.Versions[c] {
			s.pending[c] = false
		}
	}
	s.unsaved = false
	for _, c := range Collections {
		if s.pending[c] {
			s.unsaved = true
			break
		}
	}
}

// mutate runs fn under the write lock. fn returns the collections it touched;
// those are marked dirty in the same critical section.
func (s *Store) mutate(fn func() ([]Collection, error)) error {
	s.mu.Lock()
	if s.status != StatusReady {
		s.mu.Unlock()
		return ErrNotReady
	}

	touched, err := fn()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.markDirty(touched...)
	observers := s.observers
	s.mu.Unlock()

	for _, notify := range observers {
		notify()
	}
	return nil
}

func (s *Store) markDirty(collections ...Collection) {
	if len(collections) == 0 {
		return
	}
	for _, c := range collections {
		s.pending[c] = true
		s.versions[c]++
	}
	s.unsaved = true
	s.revision++
}

func validDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}
