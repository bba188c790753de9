// Package checkpoint persists which installation steps have completed so a
// re-invoked run resumes just past the last successful step. The store is a
// plain append-only key=value file, one per phase identity, so the state
// survives process restarts and the chroot into the new root.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const passedPrefix = "PASSED_"

// Store is the durable record of completed steps and carried values for
// one phase. Records are appended, never rewritten; on load, later entries
// win over earlier ones for the same key.
type Store struct {
	path      string
	completed map[string]bool
	carried   map[string]string
}

// New creates a store backed by the file at path. Call Load before use.
func New(path string) *Store {
	return &Store{
		path:      path,
		completed: make(map[string]bool),
		carried:   make(map[string]string),
	}
}

// DefaultPath returns the store location for a phase identity, next to the
// running binary so the file travels with the tree during stage handoff.
func DefaultPath(phase string) string {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Sprintf("archon-%s.state", phase)
	}
	return filepath.Join(filepath.Dir(exe), fmt.Sprintf("archon-%s.state", phase))
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Load hydrates the completed set and carried values from the backing
// file. A missing file is a first run, not an error.
func (s *Store) Load() error {
	env, err := godotenv.Read(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("loading checkpoint store %s: %w", s.path, err)
	}
	for k, v := range env {
		if name, ok := strings.CutPrefix(k, passedPrefix); ok {
			s.completed[name] = v == "yes"
			continue
		}
		s.carried[k] = v
	}
	return nil
}

// IsComplete reports whether the named step has a completion record.
func (s *Store) IsComplete(step string) bool {
	return s.completed[Key(step)]
}

// MarkComplete appends a completion record for step plus any carried
// key/values, and flushes it durably before returning. It must only be
// called after the step body has succeeded.
func (s *Store) MarkComplete(step string, extra map[string]string) error {
	lines := []string{fmt.Sprintf("%s%s=yes", passedPrefix, Key(step))}
	for k, v := range extra {
		lines = append(lines, fmt.Sprintf("%s=%s", k, v))
	}
	if err := s.append(lines); err != nil {
		return fmt.Errorf("recording checkpoint for %s: %w", step, err)
	}
	s.completed[Key(step)] = true
	for k, v := range extra {
		s.carried[k] = v
	}
	return nil
}

// Carry appends a carried key/value without completing a step. Used for
// values phase two needs before its own steps run (chosen device, mode).
func (s *Store) Carry(key, value string) error {
	if err := s.append([]string{fmt.Sprintf("%s=%s", key, value)}); err != nil {
		return fmt.Errorf("recording carried value %s: %w", key, err)
	}
	s.carried[key] = value
	return nil
}

// Carried returns a value persisted by a previous run or phase.
func (s *Store) Carried(key string) (string, bool) {
	v, ok := s.carried[key]
	return v, ok
}

// Reset removes the backing file and clears in-memory state. Used by the
// clean operation.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("resetting checkpoint store %s: %w", s.path, err)
	}
	s.completed = make(map[string]bool)
	s.carried = make(map[string]string)
	return nil
}

func (s *Store) append(lines []string) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		return err
	}
	// Flush before the caller tears anything down, so a kill after this
	// point never loses the completion record.
	return f.Sync()
}

// Key normalizes a step name into a checkpoint key: upper-case with
// underscores, so "luks-format" and "LUKS_FORMAT" name the same record.
func Key(step string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(step))
}
