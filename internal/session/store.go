// Package session persists the studio working state under the project's
// data directory.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

// Store reads and writes the per-project session file
type Store struct {
	projectRoot string
	logger      arbor.ILogger
}

// NewStore creates a session store rooted at the project directory
func NewStore(projectRoot string, logger arbor.ILogger) *Store {
	return &Store{projectRoot: projectRoot, logger: logger}
}

// Path returns the session file location
func (s *Store) Path() string {
	return filepath.Join(s.projectRoot, ".ostendo", "session.json")
}

// Load reads the session file. A missing or unreadable file yields a
// fresh session rather than an error so the studio always starts.
func (s *Store) Load() *models.Session {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return s.newSession()
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		s.logger.Warn().Err(err).Str("path", s.Path()).Msg("Discarding corrupt session file")
		return s.newSession()
	}
	if session.ID == "" {
		session.ID = common.NewSessionID()
	}
	session.ProjectPath = s.projectRoot
	if len(session.Snapshots) > models.MaxSnapshots {
		session.Snapshots = session.Snapshots[len(session.Snapshots)-models.MaxSnapshots:]
	}
	return &session
}

// Save writes the session atomically via a temp file rename
func (s *Store) Save(session *models.Session) error {
	session.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return common.NewAppError(common.CodeRuntimeError, "failed to encode session", err)
	}

	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return common.NewAppError(common.CodeRuntimeError, "failed to create session directory", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return common.NewAppError(common.CodeRuntimeError, "failed to write session", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return common.NewAppError(common.CodeRuntimeError, "failed to replace session file", err)
	}
	return nil
}

func (s *Store) newSession() *models.Session {
	return &models.Session{
		ID:          common.NewSessionID(),
		ProjectPath: s.projectRoot,
	}
}
