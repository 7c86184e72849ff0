package model

import (
	"errors"
	"testing"
	"time"
)

func TestTaskValidateSuccess(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:            "task-1",
		Title:         "Escribir resumen semanal",
		Type:          TypeProductividad,
		Priority:      PriorityHigh,
		ScheduledDate: "2026-08-28",
		ScheduledTime: "09:30",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateCompletedRequiresCompletedAt(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:        "task-1",
		Title:     "Tarea completada",
		Type:      TypeSalud,
		Completed: true,
		CreatedAt: now,
	}
	err := task.Validate()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "model: completed_at is required when task is completed" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTaskValidateInvalidEnums(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:        "task-1",
		Title:     "Tipo inválido",
		Type:      TaskType("gaming"),
		CreatedAt: now,
	}
	err := task.Validate()
	if err == nil || !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got: %v", err)
	}

	task.Type = TypeExtra
	task.Priority = Priority("whenever")
	err = task.Validate()
	if err == nil || !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got: %v", err)
	}
}

func TestTaskValidateBadScheduledDate(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:            "task-1",
		Title:         "Fecha rota",
		Type:          TypeExtra,
		ScheduledDate: "28/08/2026",
		CreatedAt:     now,
	}
	if err := task.Validate(); err == nil {
		t.Fatal("expected error for malformed scheduled date")
	}
}

func TestAllSubtasksDone(t *testing.T) {
	task := Task{Subtasks: []Subtask{
		{ID: "st-1", Title: "a", Completed: true},
		{ID: "st-2", Title: "b", Completed: false},
	}}
	if task.AllSubtasksDone() {
		t.Fatal("expected false while a subtask is incomplete")
	}
	task.Subtasks[1].Completed = true
	if !task.AllSubtasksDone() {
		t.Fatal("expected true once every subtask is completed")
	}
	if (Task{}).AllSubtasksDone() {
		t.Fatal("expected false for a task without subtasks")
	}
}

func TestIsPrincipalTag(t *testing.T) {
	task := Task{Tags: []string{"urgente", "Principal"}}
	if !task.IsPrincipal() {
		t.Fatal("expected principal match to be case-insensitive")
	}
	if (Task{Tags: []string{"extra"}}).IsPrincipal() {
		t.Fatal("unexpected principal tag")
	}
}

func TestCompletedOn(t *testing.T) {
	at := time.Date(2026, 8, 27, 23, 15, 0, 0, time.UTC)
	task := Task{Completed: true, CompletedAt: &at}
	if !task.CompletedOn("2026-08-27") {
		t.Fatal("expected completion day match")
	}
	if task.CompletedOn("2026-08-28") {
		t.Fatal("unexpected completion day match")
	}
	if (Task{}).CompletedOn("2026-08-27") {
		t.Fatal("task without completed_at cannot match a day")
	}
}

func TestCloneIsDeep(t *testing.T) {
	at := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	task := Task{
		ID:          "task-1",
		Title:       "Original",
		Type:        TypeCreatividad,
		Completed:   true,
		CompletedAt: &at,
		Subtasks:    []Subtask{{ID: "st-1", Title: "parte", Completed: false}},
		Tags:        []string{"principal"},
	}
	clone := task.Clone()
	clone.Subtasks[0].Completed = true
	clone.Tags[0] = "otro"
	*clone.CompletedAt = at.AddDate(0, 0, 1)

	if task.Subtasks[0].Completed {
		t.Fatal("clone shares subtask slice with original")
	}
	if task.Tags[0] != "principal" {
		t.Fatal("clone shares tag slice with original")
	}
	if !task.CompletedAt.Equal(at) {
		t.Fatal("clone shares completed_at pointer with original")
	}
}
