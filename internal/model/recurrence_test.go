package model

import (
	"testing"
	"time"
)

func TestRecurrenceNextDateDaily(t *testing.T) {
	rule := &Recurrence{Frequency: FrequencyDaily, Interval: 3}
	next, err := rule.NextDate("2026-08-28")
	if err != nil {
		t.Fatalf("next date: %v", err)
	}
	if next != "2026-08-31" {
		t.Fatalf("expected 2026-08-31, got %s", next)
	}
}

func TestRecurrenceNextDateWeeklyWithDays(t *testing.T) {
	// 2026-08-28 is a Friday; next selected day is Monday.
	rule := &Recurrence{
		Frequency:  FrequencyWeekly,
		Interval:   1,
		DaysOfWeek: []time.Weekday{time.Monday, time.Friday},
	}
	next, err := rule.NextDate("2026-08-28")
	if err != nil {
		t.Fatalf("next date: %v", err)
	}
	if next != "2026-08-31" {
		t.Fatalf("expected Monday 2026-08-31, got %s", next)
	}
}

func TestRecurrenceNextDateWeeklyNoDays(t *testing.T) {
	rule := &Recurrence{Frequency: FrequencyWeekly, Interval: 2}
	next, err := rule.NextDate("2026-08-28")
	if err != nil {
		t.Fatalf("next date: %v", err)
	}
	if next != "2026-09-11" {
		t.Fatalf("expected 2026-09-11, got %s", next)
	}
}

func TestRecurrenceNextDateMonthlyClampsDay(t *testing.T) {
	rule := &Recurrence{Frequency: FrequencyMonthly, Interval: 1}
	next, err := rule.NextDate("2026-01-31")
	if err != nil {
		t.Fatalf("next date: %v", err)
	}
	if next != "2026-02-28" {
		t.Fatalf("expected clamp to 2026-02-28, got %s", next)
	}
}

func TestRecurrenceNextDateRespectsEndDate(t *testing.T) {
	rule := &Recurrence{Frequency: FrequencyDaily, Interval: 1, EndDate: "2026-08-28"}
	next, err := rule.NextDate("2026-08-28")
	if err != nil {
		t.Fatalf("next date: %v", err)
	}
	if next != "" {
		t.Fatalf("expected no occurrence past end date, got %s", next)
	}
}

func TestRecurrenceNone(t *testing.T) {
	var rule *Recurrence
	if rule.Repeats() {
		t.Fatal("nil rule must not repeat")
	}
	next, err := rule.NextDate("2026-08-28")
	if err != nil || next != "" {
		t.Fatalf("expected empty next for nil rule, got %q err %v", next, err)
	}
}
