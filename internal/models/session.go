package models

import "time"

// MaxSnapshots bounds the per-session snapshot ring
const MaxSnapshots = 20

// Snapshot is one saved point-in-time copy of the working payload
type Snapshot struct {
	SavedAt time.Time `json:"saved_at"`
	Label   string    `json:"label,omitempty"`
	Payload Payload   `json:"payload"`
}

// Session is the studio working state persisted to .ostendo/session.json
type Session struct {
	ID          string     `json:"id"`
	ProjectPath string     `json:"project_path"`
	SavedAt     time.Time  `json:"saved_at"`
	Payload     Payload    `json:"payload"`
	Snapshots   []Snapshot `json:"snapshots,omitempty"`
}

// PushSnapshot records a snapshot of the current payload, dropping the
// oldest entries beyond MaxSnapshots.
func (s *Session) PushSnapshot(label string, now time.Time) {
	s.Snapshots = append(s.Snapshots, Snapshot{
		SavedAt: now,
		Label:   label,
		Payload: s.Payload,
	})
	if len(s.Snapshots) > MaxSnapshots {
		s.Snapshots = s.Snapshots[len(s.Snapshots)-MaxSnapshots:]
	}
}
