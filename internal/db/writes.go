package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/servicer-desk/backend/internal/models"
)

// SaveTask writes every mutable task column and, when audit is non-nil,
// appends the audit row in the same transaction.
func (s *Store) SaveTask(ctx context.Context, task models.Task, audit *models.DailyUpdate) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE tasks SET
				status = $1,
				custom_status = NULLIF($2, ''),
				notes = NULLIF($3, ''),
				started_at = $4,
				last_updated = $5,
				completed_at = $6,
				updated_by = NULLIF($7, '')::uuid,
				communicated = $8,
				communication_method = NULLIF($9, ''),
				no_comm_reason = NULLIF($10, ''),
				money_saved = $11
			WHERE id::text = $12
		`, task.Status, task.CustomStatus, task.Notes, task.StartedAt, task.LastUpdated, task.CompletedAt,
			task.UpdatedBy, task.Communicated, task.CommunicationMethod, task.NoCommReason, task.MoneySaved, task.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		if audit == nil {
			return nil
		}
		return insertDailyUpdate(ctx, tx, *audit)
	})
}

func insertDailyUpdate(ctx context.Context, tx pgx.Tx, u models.DailyUpdate) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO daily_updates (task_id, update_date, previous_status, new_status, previous_notes, new_notes,
			communicated, communication_method, no_comm_reason, updated_by, created_at)
		VALUES ($1::uuid, $2::date, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''),
			$7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, '')::uuid, $11)
	`, u.TaskID, u.UpdateDate, u.PreviousStatus, u.NewStatus, u.PreviousNotes, u.NewNotes,
		u.Communicated, u.CommunicationMethod, u.NoCommReason, u.UpdatedBy, created)
	return err
}

func (s *Store) SaveCustomer(ctx context.Context, c models.Customer) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE tbl_customer SET
			display_name = $1,
			email = NULLIF($2, ''),
			notes = $3,
			description = $4,
			flags = $5,
			last_contact_at = $6,
			last_contact_method = NULLIF($7, ''),
			updated_at = $8
		WHERE phone = $9
	`, c.DisplayName, c.Email, c.Notes, c.Description, nonNil(c.Flags), c.LastContactAt, c.LastContactMethod, c.UpdatedAt, c.Phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) SaveSubCategory(ctx context.Context, sc models.SubCategory) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sub_categories SET
			status = NULLIF($1, ''),
			overall_status = NULLIF($2, ''),
			money_saved = $3,
			bundle_group = NULLIF($4, ''),
			bundle_name = NULLIF($5, ''),
			is_complete = $6,
			completed_at = $7,
			last_update = $8
		WHERE id::text = $9
	`, sc.Status, sc.OverallStatus, sc.MoneySaved, sc.BundleGroup, sc.BundleName, sc.IsComplete, sc.CompletedAt, sc.LastUpdate, sc.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetBundleSavings puts total on the member with the lowest id and zero on
// the others. Members are locked for the duration.
func (s *Store) SetBundleSavings(ctx context.Context, group string, total float64, at time.Time) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		var canonical string
		err := tx.QueryRow(ctx, `
			SELECT id::text FROM sub_categories
			WHERE bundle_group = $1
			ORDER BY id::text ASC
			LIMIT 1
			FOR UPDATE
		`, group).Scan(&canonical)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrNotFound
			}
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE sub_categories
			SET money_saved = CASE WHEN id::text = $2 THEN $3::numeric ELSE 0 END,
				last_update = $4
			WHERE bundle_group = $1
		`, group, canonical, total, at)
		return err
	})
}

// CreateSubCategory finds or creates the named category for the customer,
// then inserts the sub-category and its tasks in one transaction.
func (s *Store) CreateSubCategory(ctx context.Context, customerPhone, categoryName, name string, taskNames []string, at time.Time) (models.SubCategory, error) {
	var out models.SubCategory
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		var categoryID string
		err := tx.QueryRow(ctx, `
			SELECT id::text FROM categories
			WHERE customer_phone = $1 AND name = $2
			ORDER BY id LIMIT 1
		`, customerPhone, categoryName).Scan(&categoryID)
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.QueryRow(ctx, `
				INSERT INTO categories (customer_phone, name, status, start_time, last_update)
				VALUES ($1, $2, $3, $4, $4)
				RETURNING id::text
			`, customerPhone, categoryName, models.StatusNotStarted, at).Scan(&categoryID)
		}
		if err != nil {
			return fmt.Errorf("category: %w", err)
		}

		var subID string
		err = tx.QueryRow(ctx, `
			INSERT INTO sub_categories (category_id, name, status, overall_status, money_saved, is_complete, last_update)
			VALUES ($1::uuid, $2, $3, $4, 0, false, $5)
			RETURNING id::text
		`, categoryID, name, models.StatusNotStarted, models.OverallNotStarted, at).Scan(&subID)
		if err != nil {
			return fmt.Errorf("sub-category: %w", err)
		}
		subUUID, err := uuid.Parse(subID)
		if err != nil {
			return fmt.Errorf("sub-category id: %w", err)
		}

		out = models.SubCategory{
			ID:            subID,
			CategoryID:    categoryID,
			Name:          name,
			Status:        models.StatusNotStarted,
			OverallStatus: models.OverallNotStarted,
			LastUpdate:    &at,
			Category:      &models.Category{ID: categoryID, CustomerPhone: customerPhone, Name: categoryName},
			Tasks:         make([]models.Task, 0, len(taskNames)),
		}
		if len(taskNames) == 0 {
			return nil
		}

		rows := make([][]any, 0, len(taskNames))
		for _, tn := range taskNames {
			id := uuid.New()
			rows = append(rows, []any{id, subUUID, tn, models.StatusNotStarted, false, 0.0, at})
			out.Tasks = append(out.Tasks, models.Task{
				ID:            id.String(),
				SubCategoryID: subID,
				Name:          tn,
				Status:        models.StatusNotStarted,
				CreatedAt:     at,
			})
		}
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"tasks"},
			[]string{"id", "sub_category_id", "name", "status", "communicated", "money_saved", "created_at"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("tasks: %w", err)
		}
		return nil
	})
	return out, err
}

// DeleteSubCategory removes the sub-category's tasks before the row itself.
func (s *Store) DeleteSubCategory(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE sub_category_id::text = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM sub_categories WHERE id::text = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

// LogCommunication stores the customer's last contact and the optional
// audit row together.
func (s *Store) LogCommunication(ctx context.Context, c models.Customer, audit *models.DailyUpdate) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE tbl_customer
			SET last_contact_at = $1, last_contact_method = $2, updated_at = $3
			WHERE phone = $4
		`, c.LastContactAt, c.LastContactMethod, c.UpdatedAt, c.Phone)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		if audit == nil {
			return nil
		}
		return insertDailyUpdate(ctx, tx, *audit)
	})
}
