package remote

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/steebapp/steebd/internal/model"
)

var ErrNoOwner = errors.New("remote: owner id is required")

// DocumentStore is the remote document-store contract the sync layer depends
// on. Every document carries the owner id; access control is enforced
// server-side by the store itself.
type DocumentStore interface {
	ListTasks(ctx context.Context, ownerID string) ([]model.Task, error)
	UpsertTask(ctx context.Context, task model.Task) error
	DeleteTask(ctx context.Context, ownerID, id string) error
}

// TaskDocument is the wire shape of a task row in the remote store.
type TaskDocument struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Title         string          `json:"title"`
	Type          string          `json:"type"`
	Priority      string          `json:"priority,omitempty"`
	Completed     bool            `json:"completed"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	ScheduledDate string          `json:"scheduled_date,omitempty"`
	ScheduledTime string          `json:"scheduled_time,omitempty"`
	Subtasks      json.RawMessage `json:"subtasks,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	TargetMinutes int             `json:"target_minutes,omitempty"`
	ActualMinutes int             `json:"actual_minutes,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	Recurrence    json.RawMessage `json:"recurrence,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DocumentFromTask stamps the owner and packs nested structures for the
// remote row.
func DocumentFromTask(task model.Task) (TaskDocument, error) {
	if task.OwnerID == "" {
		return TaskDocument{}, ErrNoOwner
	}
	doc := TaskDocument{
		ID:            task.ID,
		UserID:        task.OwnerID,
		Title:         task.Title,
		Type:          string(task.Type),
		Priority:      string(task.Priority),
		Completed:     task.Completed,
		CompletedAt:   task.CompletedAt,
		ScheduledDate: task.ScheduledDate,
		ScheduledTime: task.ScheduledTime,
		Notes:         task.Notes,
		TargetMinutes: task.TargetMinutes,
		ActualMinutes: task.ActualMinutes,
		Tags:          task.Tags,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}
	if len(task.Subtasks) > 0 {
		raw, err := json.Marshal(task.Subtasks)
		if err != nil {
			return TaskDocument{}, err
		}
		doc.Subtasks = raw
	}
	if task.Recurrence != nil {
		raw, err := json.Marshal(task.Recurrence)
		if err != nil {
			return TaskDocument{}, err
		}
		doc.Recurrence = raw
	}
	return doc, nil
}

// ToTask converts a remote row back into the domain shape. Unreadable nested
// payloads are dropped rather than failing the whole snapshot.
func (d TaskDocument) ToTask() model.Task {
	task := model.Task{
		ID:            d.ID,
		OwnerID:       d.UserID,
		Title:         d.Title,
		Type:          model.TaskType(d.Type),
		Priority:      model.Priority(d.Priority),
		Completed:     d.Completed,
		CompletedAt:   d.CompletedAt,
		ScheduledDate: d.ScheduledDate,
		ScheduledTime: d.ScheduledTime,
		Notes:         d.Notes,
		TargetMinutes: d.TargetMinutes,
		ActualMinutes: d.ActualMinutes,
		Tags:          d.Tags,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if len(d.Subtasks) > 0 {
		var subtasks []model.Subtask
		if err := json.Unmarshal(d.Subtasks, &subtasks); err == nil {
			task.Subtasks = subtasks
		}
	}
	if len(d.Recurrence) > 0 {
		var rec model.Recurrence
		if err := json.Unmarshal(d.Recurrence, &rec); err == nil {
			task.Recurrence = &rec
		}
	}
	return task
}
