package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidType     = errors.New("model: invalid task type")
	ErrInvalidPriority = errors.New("model: invalid task priority")
)

// DateLayout is the calendar-day format used for scheduled and completed
// dates throughout the app.
const DateLayout = "2006-01-02"

// TimeLayout is the wall-clock format for ScheduledTime.
const TimeLayout = "15:04"

// TagPrincipal marks a task as the day's main mission, independent of Type.
const TagPrincipal = "principal"

type TaskType string

const (
	TypeProductividad   TaskType = "productividad"
	TypeCreatividad     TaskType = "creatividad"
	TypeAprendizaje     TaskType = "aprendizaje"
	TypeOrganizacion    TaskType = "organizacion"
	TypeSalud           TaskType = "salud"
	TypeSocial          TaskType = "social"
	TypeEntretenimiento TaskType = "entretenimiento"
	TypeExtra           TaskType = "extra"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TypeProductividad, TypeCreatividad, TypeAprendizaje, TypeOrganizacion,
		TypeSalud, TypeSocial, TypeEntretenimiento, TypeExtra:
		return true
	default:
		return false
	}
}

// Types lists every valid task type in display order.
func Types() []TaskType {
	return []TaskType{
		TypeProductividad, TypeCreatividad, TypeAprendizaje, TypeOrganizacion,
		TypeSalud, TypeSocial, TypeEntretenimiento, TypeExtra,
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Task is the central entity. ID is assigned at creation and immutable.
type Task struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Type          TaskType    `json:"type"`
	Priority      Priority    `json:"priority,omitempty"`
	Completed     bool        `json:"completed"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	ScheduledDate string      `json:"scheduled_date,omitempty"`
	ScheduledTime string      `json:"scheduled_time,omitempty"`
	Subtasks      []Subtask   `json:"subtasks,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	TargetMinutes int         `json:"target_minutes,omitempty"`
	ActualMinutes int         `json:"actual_minutes,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
	Recurrence    *Recurrence `json:"recurrence,omitempty"`
	OwnerID       string      `json:"owner_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	if t.Completed && t.CompletedAt == nil {
		return errors.New("model: completed_at is required when task is completed")
	}
	if t.ScheduledDate != "" {
		if _, err := time.Parse(DateLayout, t.ScheduledDate); err != nil {
			return fmt.Errorf("model: bad scheduled_date %q: %w", t.ScheduledDate, err)
		}
	}
	if t.ScheduledTime != "" {
		if _, err := time.Parse(TimeLayout, t.ScheduledTime); err != nil {
			return fmt.Errorf("model: bad scheduled_time %q: %w", t.ScheduledTime, err)
		}
	}
	return nil
}

// AllSubtasksDone reports whether every subtask is completed. It is false
// when the task has no subtasks.
func (t Task) AllSubtasksDone() bool {
	if len(t.Subtasks) == 0 {
		return false
	}
	for _, st := range t.Subtasks {
		if !st.Completed {
			return false
		}
	}
	return true
}

func (t Task) HasTag(tag string) bool {
	for _, candidate := range t.Tags {
		if strings.EqualFold(candidate, tag) {
			return true
		}
	}
	return false
}

// IsPrincipal reports whether the task is tagged as the day's main mission.
func (t Task) IsPrincipal() bool {
	return t.HasTag(TagPrincipal)
}

// CompletedOn reports whether the task's completion falls on the given
// calendar day.
func (t Task) CompletedOn(day string) bool {
	if t.CompletedAt == nil {
		return false
	}
	return t.CompletedAt.Format(DateLayout) == day
}

// Clone returns a deep copy so callers can hand tasks across goroutine
// boundaries without sharing slices.
func (t Task) Clone() Task {
	out := t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		out.CompletedAt = &at
	}
	if t.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(out.Subtasks, t.Subtasks)
	}
	if t.Tags != nil {
		out.Tags = make([]string, len(t.Tags))
		copy(out.Tags, t.Tags)
	}
	if t.Recurrence != nil {
		rec := *t.Recurrence
		if t.Recurrence.DaysOfWeek != nil {
			rec.DaysOfWeek = make([]time.Weekday, len(t.Recurrence.DaysOfWeek))
			copy(rec.DaysOfWeek, t.Recurrence.DaysOfWeek)
		}
		out.Recurrence = &rec
	}
	return out
}

// CloneTasks deep-copies a task list.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Clone())
	}
	return out
}
