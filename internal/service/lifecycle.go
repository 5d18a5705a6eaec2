package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/servicer-desk/backend/internal/models"
)

// ResolveStatus validates a requested status. Choosing Custom... needs a
// non-empty custom label. Any other status, predefined or not, is accepted
// as given and clears the custom label.
func ResolveStatus(status, custom string) (string, string, error) {
	status = strings.TrimSpace(status)
	custom = strings.TrimSpace(custom)
	if status == "" {
		return "", "", fmt.Errorf("%w: status is required", ErrInvalidStatus)
	}
	if status == models.StatusCustom {
		if custom == "" {
			return "", "", fmt.Errorf("%w: custom_status is required for %s", ErrInvalidStatus, models.StatusCustom)
		}
		return status, custom, nil
	}
	return status, "", nil
}

// ApplyStatus moves task to status at now. started_at is stamped once, the
// first time the task leaves Not Started. completed_at is set while the
// status is Complete and cleared otherwise.
func ApplyStatus(task models.Task, status, custom string, now time.Time) models.Task {
	task.Status = status
	task.CustomStatus = custom
	ts := now
	task.LastUpdated = &ts

	if task.StartedAt == nil && status != models.StatusNotStarted {
		started := now
		task.StartedAt = &started
	}
	if status == models.StatusComplete {
		if task.CompletedAt == nil {
			done := now
			task.CompletedAt = &done
		}
	} else {
		task.CompletedAt = nil
	}
	return task
}
