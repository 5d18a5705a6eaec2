package service

import (
	"time"

	"github.com/servicer-desk/backend/internal/models"
)

var refNow = time.Date(2024, 1, 21, 12, 0, 0, 0, time.UTC)

func at(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			panic(err)
		}
	}
	return &t
}

func daysAgo(n float64) *time.Time {
	t := refNow.Add(-time.Duration(n * float64(24*time.Hour)))
	return &t
}

type taskOpt func(*models.Task)

func withCustomer(phone, name, servicer string) taskOpt {
	return func(t *models.Task) {
		t.SubCategory.Category.Customer = &models.Customer{Phone: phone, DisplayName: name, AssignedTo: servicer}
		t.SubCategory.Category.CustomerPhone = phone
	}
}

func withSub(id, name, category string) taskOpt {
	return func(t *models.Task) {
		t.SubCategoryID = id
		t.SubCategory.ID = id
		t.SubCategory.Name = name
		t.SubCategory.Category.Name = category
	}
}

func withSavings(amount float64, group string) taskOpt {
	return func(t *models.Task) {
		t.SubCategory.MoneySaved = amount
		t.SubCategory.BundleGroup = group
	}
}

func withCreated(ts time.Time) taskOpt {
	return func(t *models.Task) { t.CreatedAt = ts }
}

// mkTask builds a task with a full ownership chain.
func mkTask(id, status string, lastUpdated *time.Time, opts ...taskOpt) models.Task {
	t := models.Task{
		ID:            id,
		Name:          "task " + id,
		Status:        status,
		LastUpdated:   lastUpdated,
		SubCategoryID: "sub-" + id,
		SubCategory: &models.SubCategory{
			ID:   "sub-" + id,
			Name: "Sub " + id,
			Category: &models.Category{
				ID:   "cat-" + id,
				Name: "Insurance",
			},
		},
	}
	for _, o := range opts {
		o(&t)
	}
	return t
}
