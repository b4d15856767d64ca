package schedule

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Store persists schedules in a single YAML file keyed by schedule
// name. The file is the source of truth; every operation reloads it so
// external edits are picked up.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a Store backed by the given schedules file.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the schedules file path.
func (s *Store) Path() string {
	return s.path
}

// Add persists a new schedule under the given name. It fails with a
// collision error if the name is already taken.
func (s *Store) Add(name string, sched Schedule) error {
	if name == "" {
		return NewValidationError("schedule name cannot be empty")
	}
	if err := sched.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schedules, err := s.load()
	if err != nil {
		return err
	}
	if _, exists := schedules[name]; exists {
		return NewCollisionError(name)
	}

	schedules[name] = sched
	return s.save(schedules)
}

// Get retrieves a schedule by name.
func (s *Store) Get(name string) (Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedules, err := s.load()
	if err != nil {
		return Schedule{}, err
	}
	sched, ok := schedules[name]
	if !ok {
		return Schedule{}, NewNotFoundError(name)
	}
	return sched, nil
}

// List returns all schedules keyed by name, plus the names in sorted
// order for stable display.
func (s *Store) List() (map[string]Schedule, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedules, err := s.load()
	if err != nil {
		return nil, nil, err
	}

	names := make([]string, 0, len(schedules))
	for name := range schedules {
		names = append(names, name)
	}
	sort.Strings(names)
	return schedules, names, nil
}

// Delete removes a schedule by name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedules, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := schedules[name]; !ok {
		return NewNotFoundError(name)
	}

	delete(schedules, name)
	return s.save(schedules)
}

// PruneExpired removes non-repeating schedules whose window has fully
// passed, returning the names removed. Repeating schedules are pruned
// too once past their end date; they can never fire again either.
func (s *Store) PruneExpired(now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedules, err := s.load()
	if err != nil {
		return nil, err
	}

	var pruned []string
	for name, sched := range schedules {
		if sched.Expired(now) {
			delete(schedules, name)
			pruned = append(pruned, name)
		}
	}
	if len(pruned) == 0 {
		return nil, nil
	}

	sort.Strings(pruned)
	return pruned, s.save(schedules)
}

// load reads the schedules file. A missing file is an empty store.
func (s *Store) load() (map[string]Schedule, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]Schedule), nil
	}
	if err != nil {
		return nil, NewIOError(fmt.Sprintf("failed to read schedules file %s", s.path), err)
	}

	schedules := make(map[string]Schedule)
	if err := yaml.Unmarshal(data, &schedules); err != nil {
		return nil, NewIOError(fmt.Sprintf("failed to parse schedules file %s", s.path), err)
	}
	if schedules == nil {
		schedules = make(map[string]Schedule)
	}
	return schedules, nil
}

// save writes the full schedule set back to the file.
func (s *Store) save(schedules map[string]Schedule) error {
	data, err := yaml.Marshal(schedules)
	if err != nil {
		return NewIOError("failed to encode schedules", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return NewIOError(fmt.Sprintf("failed to create schedules directory for %s", s.path), err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return NewIOError(fmt.Sprintf("failed to write schedules file %s", s.path), err)
	}
	return nil
}
