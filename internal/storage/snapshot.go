package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/steebapp/steebd/internal/model"
)

// Keys preserved in the kv store. The backup worker copies exactly these
// into the backups partition.
const (
	KeyTasksBackup  = "steeb_tasks_backup"
	KeyTasksText    = "steeb_tasks_file"
	KeyLastReminder = "steeb-last-reminder-date"
	KeyUserProfile  = "steeb_user_profile"
	KeySyncedIDs    = "steeb_synced_ids"
)

// PreserveKeys lists every key the backup worker protects.
func PreserveKeys() []string {
	return []string{KeyTasksBackup, KeyTasksText, KeyLastReminder, KeyUserProfile, KeySyncedIDs}
}

const snapshotVersion = "1.0"

type taskEnvelope struct {
	Tasks       []model.Task `json:"tasks"`
	LastUpdated string       `json:"last_updated"`
	Version     string       `json:"version"`
}

// Snapshot persists the task list to the local kv store. Saves are
// best-effort: storage failures are logged and swallowed so a full or
// disabled store never breaks the in-memory state.
type Snapshot struct {
	kv  KV
	log *logrus.Entry
	now func() time.Time
}

func NewSnapshot(kv KV, log *logrus.Logger) *Snapshot {
	return &Snapshot{
		kv:  kv,
		log: log.WithField("component", "snapshot"),
		now: time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *Snapshot) WithClock(now func() time.Time) *Snapshot {
	s.now = now
	return s
}

// SaveSyncedIDs records which task ids are known to exist on the remote.
// Best-effort, like Save.
func (s *Snapshot) SaveSyncedIDs(ctx context.Context, ids []string) {
	payload, err := json.Marshal(ids)
	if err != nil {
		s.log.WithError(err).Warn("could not encode synced ids")
		return
	}
	if err := s.kv.Set(ctx, KeySyncedIDs, string(payload)); err != nil {
		s.log.WithError(err).Warn("could not persist synced ids")
	}
}

// LoadSyncedIDs returns the persisted synced-id set, empty when absent or
// corrupt.
func (s *Snapshot) LoadSyncedIDs(ctx context.Context) []string {
	raw, err := s.kv.Get(ctx, KeySyncedIDs)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.WithError(err).Warn("could not read synced ids")
		}
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.log.WithError(err).Warn("synced ids corrupt, treating as empty")
		return nil
	}
	return ids
}

// Save writes the JSON envelope and the readable text rendering.
func (s *Snapshot) Save(ctx context.Context, tasks []model.Task) {
	payload, err := json.Marshal(taskEnvelope{
		Tasks:       tasks,
		LastUpdated: s.now().UTC().Format(time.RFC3339),
		Version:     snapshotVersion,
	})
	if err != nil {
		s.log.WithError(err).Warn("marshal task snapshot")
		return
	}
	if err := s.kv.Set(ctx, KeyTasksBackup, string(payload)); err != nil {
		s.log.WithError(err).Warn("save task snapshot")
		return
	}
	if err := s.kv.Set(ctx, KeyTasksText, FormatTasksAsText(tasks, s.now())); err != nil {
		s.log.WithError(err).Warn("save task text rendering")
		return
	}
	s.log.WithField("tasks", len(tasks)).Debug("task snapshot saved")
}

// Load returns the persisted task list. Absent or corrupt data is treated as
// absent: the result is an empty list, never an error.
func (s *Snapshot) Load(ctx context.Context) []model.Task {
	raw, err := s.kv.Get(ctx, KeyTasksBackup)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.WithError(err).Warn("load task snapshot")
		}
		return []model.Task{}
	}
	var envelope taskEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		s.log.WithError(err).Warn("corrupt task snapshot, starting empty")
		return []model.Task{}
	}
	if envelope.Tasks == nil {
		return []model.Task{}
	}
	return envelope.Tasks
}

// TasksText returns the stored readable rendering.
func (s *Snapshot) TasksText(ctx context.Context) string {
	raw, err := s.kv.Get(ctx, KeyTasksText)
	if err != nil {
		return "No hay tareas guardadas"
	}
	return raw
}

// Clear drops both the snapshot and its text rendering.
func (s *Snapshot) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, KeyTasksBackup); err != nil {
		s.log.WithError(err).Warn("clear task snapshot")
	}
	if err := s.kv.Delete(ctx, KeyTasksText); err != nil {
		s.log.WithError(err).Warn("clear task text rendering")
	}
}

// SaveProfile stores the locally-owned user profile.
func (s *Snapshot) SaveProfile(ctx context.Context, profile model.UserProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, KeyUserProfile, string(payload))
}

// LoadProfile returns the stored profile; ok is false when none exists or
// the payload is unreadable.
func (s *Snapshot) LoadProfile(ctx context.Context) (model.UserProfile, bool) {
	raw, err := s.kv.Get(ctx, KeyUserProfile)
	if err != nil {
		return model.UserProfile{}, false
	}
	var profile model.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		s.log.WithError(err).Warn("corrupt user profile")
		return model.UserProfile{}, false
	}
	return profile, true
}

// ResetProfile removes the stored profile.
func (s *Snapshot) ResetProfile(ctx context.Context) error {
	return s.kv.Delete(ctx, KeyUserProfile)
}
