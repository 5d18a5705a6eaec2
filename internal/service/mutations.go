package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/servicer-desk/backend/internal/metrics"
	"github.com/servicer-desk/backend/internal/models"
)

// MutationService is the write side. Writes are last-write-wins: there is
// no version check, so two operators editing one task overwrite each other.
type MutationService struct {
	Store     Store
	Coalescer *Coalescer
	Guard     *SubmitGuard
	Logger    zerolog.Logger
	Now       func() time.Time
	Loc       *time.Location
}

func (s *MutationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MutationService) today() string {
	loc := s.Loc
	if loc == nil {
		loc = time.UTC
	}
	return s.now().In(loc).Format(DateLayout)
}

// record logs and counts a write outcome. Postgres errors are logged with
// their code and detail.
func (s *MutationService) record(op string, err error) error {
	if err == nil {
		metrics.IncWriteSucceeded()
		return nil
	}
	if errors.Is(err, ErrSuperseded) {
		return err
	}
	metrics.IncWriteFailed()
	ev := s.Logger.Error().Err(err).Str("op", op)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		ev = ev.Str("pg_code", pgErr.Code).Str("pg_detail", pgErr.Detail).Str("pg_hint", pgErr.Hint)
	}
	ev.Msg("write failed")
	return err
}

// debounced routes a write through the coalescer when one is configured and
// waits for its outcome.
func (s *MutationService) debounced(ctx context.Context, key string, fn WriteFunc) error {
	if s.Coalescer == nil {
		return fn(ctx)
	}
	select {
	case err := <-s.Coalescer.Submit(ctx, key, fn):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type StatusChange struct {
	TaskID              string
	Status              string
	CustomStatus        string
	Notes               *string
	Communicated        bool
	CommunicationMethod string
	NoCommReason        string
	UpdatedBy           string
}

// UpdateTaskStatus applies the status lifecycle and appends an audit row in
// the same transaction. The updater defaults to the customer's servicer.
func (s *MutationService) UpdateTaskStatus(ctx context.Context, change StatusChange) (models.Task, error) {
	status, custom, err := ResolveStatus(change.Status, change.CustomStatus)
	if err != nil {
		return models.Task{}, err
	}
	if change.Communicated && change.CommunicationMethod != "" && !contains(models.CommunicationMethods, change.CommunicationMethod) {
		return models.Task{}, fmt.Errorf("%w: unknown communication method %q", ErrInvalidInput, change.CommunicationMethod)
	}

	task, err := s.Store.GetTask(ctx, change.TaskID)
	if err != nil {
		return models.Task{}, s.record("update_task_status", err)
	}

	prev := task
	next := ApplyStatus(task, status, custom, s.now())
	next.Communicated = change.Communicated
	next.CommunicationMethod = change.CommunicationMethod
	next.NoCommReason = change.NoCommReason
	if change.Notes != nil {
		next.Notes = *change.Notes
	}
	next.UpdatedBy = change.UpdatedBy
	if next.UpdatedBy == "" {
		next.UpdatedBy = task.ServicerID()
	}

	audit := &models.DailyUpdate{
		TaskID:              next.ID,
		UpdateDate:          s.today(),
		PreviousStatus:      prev.DisplayStatus(),
		NewStatus:           next.DisplayStatus(),
		PreviousNotes:       prev.Notes,
		NewNotes:            next.Notes,
		Communicated:        next.Communicated,
		CommunicationMethod: next.CommunicationMethod,
		NoCommReason:        next.NoCommReason,
		UpdatedBy:           next.UpdatedBy,
		CreatedAt:           *next.LastUpdated,
	}
	if err := s.Store.SaveTask(ctx, next, audit); err != nil {
		return models.Task{}, s.record("update_task_status", err)
	}
	s.record("update_task_status", nil)
	return next, nil
}

// ToggleTaskComplete flips a task between Complete and Not Started.
func (s *MutationService) ToggleTaskComplete(ctx context.Context, taskID, updatedBy string) (models.Task, error) {
	task, err := s.Store.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, s.record("toggle_task_complete", err)
	}
	status := models.StatusComplete
	if task.Status == models.StatusComplete {
		status = models.StatusNotStarted
	}
	return s.UpdateTaskStatus(ctx, StatusChange{
		TaskID:              taskID,
		Status:              status,
		Communicated:        task.Communicated,
		CommunicationMethod: task.CommunicationMethod,
		NoCommReason:        task.NoCommReason,
		UpdatedBy:           updatedBy,
	})
}

func (s *MutationService) UpdateTaskNotes(ctx context.Context, taskID, notes string) error {
	return s.debounced(ctx, "task-notes:"+taskID, func(ctx context.Context) error {
		task, err := s.Store.GetTask(ctx, taskID)
		if err != nil {
			return s.record("update_task_notes", err)
		}
		task.Notes = notes
		now := s.now()
		task.LastUpdated = &now
		return s.record("update_task_notes", s.Store.SaveTask(ctx, task, nil))
	})
}

// UpdateTaskCompletedDate corrects the completion time of a Complete task
// and marks the task as updated now.
func (s *MutationService) UpdateTaskCompletedDate(ctx context.Context, taskID string, at time.Time) (models.Task, error) {
	task, err := s.Store.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, s.record("update_completed_date", err)
	}
	if task.Status != models.StatusComplete {
		return models.Task{}, fmt.Errorf("%w: completed date can only be set on a %s task", ErrInvalidStatus, models.StatusComplete)
	}
	now := s.now()
	task.CompletedAt = &at
	task.LastUpdated = &now
	if err := s.Store.SaveTask(ctx, task, nil); err != nil {
		return models.Task{}, s.record("update_completed_date", err)
	}
	s.record("update_completed_date", nil)
	return task, nil
}

func (s *MutationService) TouchTaskLastUpdated(ctx context.Context, taskID string, at time.Time) (models.Task, error) {
	task, err := s.Store.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, s.record("touch_last_updated", err)
	}
	task.LastUpdated = &at
	if err := s.Store.SaveTask(ctx, task, nil); err != nil {
		return models.Task{}, s.record("touch_last_updated", err)
	}
	s.record("touch_last_updated", nil)
	return task, nil
}

// UpdateSubCategoryMoneySaved is debounced per sub-category. For a bundle
// member the amount becomes the bundle total.
func (s *MutationService) UpdateSubCategoryMoneySaved(ctx context.Context, subID string, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%w: money saved cannot be negative", ErrInvalidInput)
	}
	return s.debounced(ctx, "sub-money:"+subID, func(ctx context.Context) error {
		sub, err := s.Store.GetSubCategory(ctx, subID)
		if err != nil {
			return s.record("update_money_saved", err)
		}
		now := s.now()
		if sub.BundleGroup != "" {
			return s.record("update_money_saved", s.Store.SetBundleSavings(ctx, sub.BundleGroup, amount, now))
		}
		sub.MoneySaved = amount
		sub.LastUpdate = &now
		return s.record("update_money_saved", s.Store.SaveSubCategory(ctx, sub))
	})
}

func (s *MutationService) UpdateSubCategoryStatus(ctx context.Context, subID, overall string) (models.SubCategory, error) {
	if !contains(models.SubCategoryStatuses, overall) {
		return models.SubCategory{}, fmt.Errorf("%w: unknown overall status %q", ErrInvalidStatus, overall)
	}
	sub, err := s.Store.GetSubCategory(ctx, subID)
	if err != nil {
		return models.SubCategory{}, s.record("update_sub_status", err)
	}
	now := s.now()
	sub.OverallStatus = overall
	sub.LastUpdate = &now
	if err := s.Store.SaveSubCategory(ctx, sub); err != nil {
		return models.SubCategory{}, s.record("update_sub_status", err)
	}
	s.record("update_sub_status", nil)
	return sub, nil
}

// SetBundleSavings stores total for the bundle: the lowest member id holds
// it and the other members hold zero.
func (s *MutationService) SetBundleSavings(ctx context.Context, group string, total float64) error {
	if strings.TrimSpace(group) == "" {
		return fmt.Errorf("%w: bundle group is required", ErrInvalidInput)
	}
	if total < 0 {
		return fmt.Errorf("%w: money saved cannot be negative", ErrInvalidInput)
	}
	return s.record("set_bundle_savings", s.Store.SetBundleSavings(ctx, group, total, s.now()))
}

func (s *MutationService) UpdateCustomerNotes(ctx context.Context, phone, notes string) error {
	return s.debounced(ctx, "customer-notes:"+phone, func(ctx context.Context) error {
		return s.updateCustomer(ctx, "update_customer_notes", phone, func(c *models.Customer) error {
			c.Notes = notes
			return nil
		})
	})
}

func (s *MutationService) UpdateCustomerDescription(ctx context.Context, phone, description string) error {
	return s.debounced(ctx, "customer-description:"+phone, func(ctx context.Context) error {
		return s.updateCustomer(ctx, "update_customer_description", phone, func(c *models.Customer) error {
			c.Description = description
			return nil
		})
	})
}

// ToggleCustomerFlag adds flag when absent and removes it when present.
func (s *MutationService) ToggleCustomerFlag(ctx context.Context, phone, flag string) (models.Customer, error) {
	if !contains(models.CustomerFlags, flag) {
		return models.Customer{}, fmt.Errorf("%w: unknown flag %q", ErrInvalidInput, flag)
	}
	var out models.Customer
	err := s.updateCustomer(ctx, "toggle_customer_flag", phone, func(c *models.Customer) error {
		flags := make([]string, 0, len(c.Flags)+1)
		found := false
		for _, f := range c.Flags {
			if f == flag {
				found = true
				continue
			}
			flags = append(flags, f)
		}
		if !found {
			flags = append(flags, flag)
		}
		c.Flags = flags
		out = *c
		return nil
	})
	return out, err
}

func (s *MutationService) updateCustomer(ctx context.Context, op, phone string, mutate func(*models.Customer) error) error {
	c, err := s.Store.GetCustomer(ctx, phone)
	if err != nil {
		return s.record(op, err)
	}
	if err := mutate(&c); err != nil {
		return err
	}
	c.UpdatedAt = s.now()
	return s.record(op, s.Store.SaveCustomer(ctx, c))
}

// LogCommunication stamps the customer's last contact and, when the customer
// has any task, appends a Communication Logged audit row against the first
// one so the contact shows up in the daily report.
func (s *MutationService) LogCommunication(ctx context.Context, phone, method string) (models.Customer, error) {
	if !contains(models.CommunicationMethods, method) {
		return models.Customer{}, fmt.Errorf("%w: unknown communication method %q", ErrInvalidInput, method)
	}
	c, err := s.Store.GetCustomer(ctx, phone)
	if err != nil {
		return models.Customer{}, s.record("log_communication", err)
	}
	tasks, err := s.Store.FetchTasks(ctx, models.TaskFilter{CustomerPhone: c.Phone})
	if err != nil {
		return models.Customer{}, s.record("log_communication", err)
	}

	now := s.now()
	c.LastContactAt = &now
	c.LastContactMethod = method
	c.UpdatedAt = now

	var audit *models.DailyUpdate
	if len(tasks) > 0 {
		first := tasks[0]
		audit = &models.DailyUpdate{
			TaskID:              first.ID,
			UpdateDate:          s.today(),
			PreviousStatus:      first.DisplayStatus(),
			NewStatus:           models.StatusCommunicationLogged,
			Communicated:        true,
			CommunicationMethod: method,
			UpdatedBy:           c.AssignedTo,
			CreatedAt:           now,
		}
	}
	if err := s.Store.LogCommunication(ctx, c, audit); err != nil {
		return models.Customer{}, s.record("log_communication", err)
	}
	s.record("log_communication", nil)
	return c, nil
}

type NewSubCategory struct {
	CustomerPhone string
	Category      string
	Name          string
	Tasks         []string
}

// CreateSubCategory adds a service to a customer together with its task
// checklist. A second call for the same customer while one is running fails
// with ErrSubmissionInFlight.
func (s *MutationService) CreateSubCategory(ctx context.Context, req NewSubCategory) (models.SubCategory, error) {
	category := strings.TrimSpace(req.Category)
	name := strings.TrimSpace(req.Name)
	if category == "" || name == "" {
		return models.SubCategory{}, fmt.Errorf("%w: category and name are required", ErrInvalidInput)
	}
	taskNames := req.Tasks
	if len(taskNames) == 0 {
		taskNames = models.PredefinedTasks[name]
	}

	guard := s.Guard
	if guard == nil {
		guard = &SubmitGuard{}
	}
	var out models.SubCategory
	err := guard.Do("create-sub-category:"+req.CustomerPhone, func() error {
		if _, err := s.Store.GetCustomer(ctx, req.CustomerPhone); err != nil {
			return err
		}
		var err error
		out, err = s.Store.CreateSubCategory(ctx, req.CustomerPhone, category, name, taskNames, s.now())
		return err
	})
	if errors.Is(err, ErrSubmissionInFlight) {
		return models.SubCategory{}, err
	}
	if err != nil {
		return models.SubCategory{}, s.record("create_sub_category", err)
	}
	s.record("create_sub_category", nil)
	return out, nil
}

// DeleteSubCategory removes the sub-category and its tasks.
func (s *MutationService) DeleteSubCategory(ctx context.Context, subID string) error {
	return s.record("delete_sub_category", s.Store.DeleteSubCategory(ctx, subID))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
