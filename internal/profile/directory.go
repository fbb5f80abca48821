// Package profile provides cached access to the student directory and the
// projection of stored students onto the fields that take part in matching.
package profile

import (
	"fmt"
	"sync"
	"time"

	"github.com/kalambet/studymatch/internal/matching"
	"github.com/kalambet/studymatch/internal/storage"
)

// StudentStore defines the storage operations the Directory needs.
// Implemented by storage.Store.
type StudentStore interface {
	GetStudent(id string) (storage.Student, error)
	ListStudents(limit, offset int) ([]storage.Student, error)
	SaveStudent(st storage.Student) error
	DeleteStudent(id string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// DefaultTTL bounds how stale a candidate pool may be when writes bypass the Directory.
const DefaultTTL = 30 * time.Second

// Directory provides cached access to every student in the store. The whole
// directory is loaded at once because partner matching always scores against
// the full pool.
type Directory struct {
	store StudentStore
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   []storage.Student
	cachedAt time.Time
}

// NewDirectory creates a Directory with DefaultTTL.
func NewDirectory(store StudentStore) *Directory {
	return &Directory{
		store: store,
		clock: realClock{},
		ttl:   DefaultTTL,
	}
}

// NewDirectoryWithClock creates a Directory with a custom clock (for testing).
func NewDirectoryWithClock(store StudentStore, clock Clock, ttl time.Duration) *Directory {
	return &Directory{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// All returns a snapshot of every student in creation order.
func (d *Directory) All() ([]storage.Student, error) {
	return d.snapshot("")
}

// Candidates returns every student except excludeID, in creation order.
// The subject never appears in its own candidate pool.
func (d *Directory) Candidates(excludeID string) ([]storage.Student, error) {
	return d.snapshot(excludeID)
}

func (d *Directory) snapshot(excludeID string) ([]storage.Student, error) {
	// Fast path: read lock for cache hit.
	d.mu.RLock()
	if d.cached != nil && d.clock.Now().Before(d.cachedAt.Add(d.ttl)) {
		out := deepCopyStudents(d.cached, excludeID)
		d.mu.RUnlock()
		return out, nil
	}
	d.mu.RUnlock()

	// Slow path: write lock for cache miss.
	d.mu.Lock()
	defer d.mu.Unlock()

	// Double-check after acquiring write lock.
	if d.cached != nil && d.clock.Now().Before(d.cachedAt.Add(d.ttl)) {
		return deepCopyStudents(d.cached, excludeID), nil
	}

	students, err := d.store.ListStudents(0, 0)
	if err != nil {
		return nil, fmt.Errorf("loading students: %w", err)
	}
	if students == nil {
		students = []storage.Student{}
	}
	d.cached = students
	d.cachedAt = d.clock.Now()
	return deepCopyStudents(students, excludeID), nil
}

// Get returns a single student. It always reads through to the store so a
// freshly created student is visible before the cache expires.
func (d *Directory) Get(id string) (storage.Student, error) {
	return d.store.GetStudent(id)
}

// Save persists st and invalidates the cache.
func (d *Directory) Save(st storage.Student) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.store.SaveStudent(st); err != nil {
		return fmt.Errorf("saving student %s: %w", st.ID, err)
	}
	d.cached = nil
	return nil
}

// Delete removes a student and invalidates the cache.
func (d *Directory) Delete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.store.DeleteStudent(id); err != nil {
		return fmt.Errorf("deleting student %s: %w", id, err)
	}
	d.cached = nil
	return nil
}

// FromStudent projects a stored student onto the fields used for matching.
// Slices are copied so the result never aliases the record.
func FromStudent(st storage.Student) matching.Profile {
	return matching.Profile{
		Subjects:            copyStrings(st.Subjects),
		PreferredStudyTimes: copyStrings(st.PreferredStudyTimes),
		AcademicLevel:       st.AcademicLevel,
		LearningStyle:       st.LearningStyle,
	}
}

func deepCopyStudents(in []storage.Student, excludeID string) []storage.Student {
	out := make([]storage.Student, 0, len(in))
	for _, st := range in {
		if excludeID != "" && st.ID == excludeID {
			continue
		}
		cp := st
		cp.Subjects = copyStrings(st.Subjects)
		cp.PreferredStudyTimes = copyStrings(st.PreferredStudyTimes)
		out = append(out, cp)
	}
	return out
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
