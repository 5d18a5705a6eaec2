package service

import (
	"errors"
	"testing"
	"time"

	"github.com/servicer-desk/backend/internal/models"
)

func TestResolveStatus(t *testing.T) {
	status, custom, err := ResolveStatus(models.StatusCustom, "  Awaiting meter read ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != models.StatusCustom || custom != "Awaiting meter read" {
		t.Fatalf("got %q/%q", status, custom)
	}

	if _, _, err := ResolveStatus(models.StatusCustom, " "); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for empty custom label, got %v", err)
	}
	if _, _, err := ResolveStatus("", ""); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for empty status, got %v", err)
	}

	status, custom, err = ResolveStatus(models.StatusInProgress, "left over")
	if err != nil || status != models.StatusInProgress || custom != "" {
		t.Fatalf("got %q/%q/%v", status, custom, err)
	}
}

func TestApplyStatusLifecycle(t *testing.T) {
	t0 := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	task := models.Task{ID: "t", Status: models.StatusNotStarted}

	task = ApplyStatus(task, models.StatusNotStarted, "", t0)
	if task.StartedAt != nil {
		t.Fatalf("started_at must stay empty while Not Started")
	}

	t1 := t0.Add(time.Hour)
	task = ApplyStatus(task, models.StatusInProgress, "", t1)
	if task.StartedAt == nil || !task.StartedAt.Equal(t1) {
		t.Fatalf("started_at = %v, want %v", task.StartedAt, t1)
	}
	if task.CompletedAt != nil {
		t.Fatalf("completed_at must be empty while not Complete")
	}

	t2 := t1.Add(time.Hour)
	task = ApplyStatus(task, models.StatusComplete, "", t2)
	if task.CompletedAt == nil || !task.CompletedAt.Equal(t2) {
		t.Fatalf("completed_at = %v, want %v", task.CompletedAt, t2)
	}
	if !task.StartedAt.Equal(t1) {
		t.Fatalf("started_at moved to %v", task.StartedAt)
	}

	t3 := t2.Add(time.Hour)
	task = ApplyStatus(task, models.StatusComplete, "", t3)
	if !task.CompletedAt.Equal(t2) {
		t.Fatalf("re-completing must keep the original completed_at, got %v", task.CompletedAt)
	}

	task = ApplyStatus(task, models.StatusNotStarted, "", t3)
	if task.CompletedAt != nil {
		t.Fatalf("completed_at must clear when leaving Complete")
	}
	if task.StartedAt == nil {
		t.Fatalf("started_at is never cleared")
	}
	if !task.LastUpdated.Equal(t3) {
		t.Fatalf("last_updated = %v, want %v", task.LastUpdated, t3)
	}
}

func TestApplyStatusCustomLabel(t *testing.T) {
	now := time.Now()
	task := ApplyStatus(models.Task{}, models.StatusCustom, "Chasing bank", now)
	if task.DisplayStatus() != "Chasing bank" {
		t.Fatalf("display status = %q", task.DisplayStatus())
	}
	task = ApplyStatus(task, models.StatusSentInfo, "", now)
	if task.CustomStatus != "" {
		t.Fatalf("custom label should be cleared, got %q", task.CustomStatus)
	}
}
