package playbook

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MaskedValue replaces parameter values in exports that exclude params,
// so secrets are not leaked in shared playbook files.
const MaskedValue = "<masked>"

// Store persists playbooks as YAML files in a directory. The on-disk file
// is the single source of truth; loaded playbooks are transient views.
type Store struct {
	dir       string
	exportDir string
	logger    *slog.Logger
}

// NewStore creates a playbook store rooted at dir, writing exports to
// exportDir. A nil logger falls back to slog.Default().
func NewStore(dir, exportDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, exportDir: exportDir, logger: logger}
}

// Dir returns the directory playbook files live in.
func (s *Store) Dir() string {
	return s.dir
}

// Create constructs a new empty playbook and persists it immediately.
// Fails with a name collision error if a playbook file with the derived
// name already exists.
func (s *Store) Create(name, author, description string, references []string) (*Playbook, error) {
	p, err := New(name, author, description, references)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, p.FileName())
	if _, err := os.Stat(path); err == nil {
		return nil, NewNameCollisionError(name)
	}

	if err := s.write(p, path); err != nil {
		return nil, err
	}

	s.logger.Info("created playbook", "name", name, "file", p.FileName())
	return p, nil
}

// Save writes the playbook's current in-memory state to its backing file,
// fully overwriting prior content.
func (s *Store) Save(p *Playbook) error {
	if err := p.Validate(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, p.FileName())
	if err := s.write(p, path); err != nil {
		return err
	}

	s.logger.Debug("saved playbook", "name", p.Name, "steps", p.StepCount())
	return nil
}

// Load reads a playbook by its on-disk file name.
func (s *Store) Load(fileName string) (*Playbook, error) {
	if filepath.Base(fileName) != fileName {
		return nil, NewValidationError(fmt.Sprintf("invalid playbook file name: %s", fileName))
	}

	data, err := os.ReadFile(filepath.Join(s.dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewNotFoundError(fileName)
		}
		return nil, WrapPlaybookError(ErrPlaybookIO, "failed to read playbook file", err)
	}

	return Decode(data)
}

// LoadByName reads a playbook by its logical name.
func (s *Store) LoadByName(name string) (*Playbook, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return s.Load(FileNameFor(name))
}

// List returns all playbooks in the store, sorted by name. Files that
// fail to parse are skipped with a warning so one corrupt file does not
// hide the rest of the catalog.
func (s *Store) List() ([]*Playbook, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Playbook{}, nil
		}
		return nil, WrapPlaybookError(ErrPlaybookIO, "failed to read playbook directory", err)
	}

	var playbooks []*Playbook
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}

		p, err := s.Load(entry.Name())
		if err != nil {
			s.logger.Warn("skipping unreadable playbook file", "file", entry.Name(), "error", err)
			continue
		}
		playbooks = append(playbooks, p)
	}

	sort.Slice(playbooks, func(i, j int) bool { return playbooks[i].Name < playbooks[j].Name })
	return playbooks, nil
}

// Delete removes a playbook's backing file by logical name.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	path := filepath.Join(s.dir, FileNameFor(name))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return NewNotFoundError(name)
		}
		return WrapPlaybookError(ErrPlaybookIO, "failed to delete playbook file", err)
	}

	s.logger.Info("deleted playbook", "name", name)
	return nil
}

// Export serializes the named playbook to a portable file in the export
// directory. When includeParams is false, every parameter value is
// replaced with MaskedValue. Returns the path of the written file.
func (s *Store) Export(name string, includeParams bool) (string, error) {
	p, err := s.LoadByName(name)
	if err != nil {
		return "", err
	}

	if !includeParams {
		p = maskParams(p)
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", WrapPlaybookError(ErrPlaybookIO, "failed to create export directory", err)
	}

	path := filepath.Join(s.exportDir, p.FileName())
	if err := s.write(p, path); err != nil {
		return "", err
	}

	s.logger.Info("exported playbook", "name", name, "path", path, "params_included", includeParams)
	return path, nil
}

// Import deserializes playbook file contents into a new on-disk playbook.
// Fails with a parse error on malformed input and with a name collision
// error if the imported name already exists; the caller must rename
// before importing again (no silent overwrite).
func (s *Store) Import(contents []byte) (*Playbook, error) {
	p, err := Decode(contents)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, p.FileName())
	if _, err := os.Stat(path); err == nil {
		return nil, NewNameCollisionError(p.Name)
	}

	if err := s.write(p, path); err != nil {
		return nil, err
	}

	s.logger.Info("imported playbook", "name", p.Name, "steps", p.StepCount())
	return p, nil
}

// write encodes and writes the playbook to path, creating the store
// directory on first use.
func (s *Store) write(p *Playbook, path string) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return WrapPlaybookError(ErrPlaybookIO, "failed to create playbook directory", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return WrapPlaybookError(ErrPlaybookIO, "failed to write playbook file", err)
	}
	return nil
}

// maskParams returns a copy of the playbook with every parameter value
// replaced by MaskedValue.
func maskParams(p *Playbook) *Playbook {
	masked := *p
	masked.Steps = make([]Step, len(p.Steps))
	for i, step := range p.Steps {
		maskedParams := make(map[string]any, len(step.Params))
		for key := range step.Params {
			maskedParams[key] = MaskedValue
		}
		masked.Steps[i] = Step{Module: step.Module, Params: maskedParams, Wait: step.Wait}
	}
	return &masked
}
