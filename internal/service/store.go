package service

import (
	"context"
	"errors"
	"time"

	"github.com/servicer-desk/backend/internal/models"
)

var (
	ErrFetchFailed        = errors.New("fetch failed")
	ErrSuperseded         = errors.New("superseded by a newer edit")
	ErrSubmissionInFlight = errors.New("submission already in flight")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidInput       = errors.New("invalid input")
)

// Store is the entity store as seen by the services. Both the Postgres
// store and the read-only demo store satisfy it.
type Store interface {
	Ping(ctx context.Context) error

	FetchTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)

	ListTeamMembers(ctx context.Context) ([]models.TeamMember, error)
	FindTeamMemberIDByName(ctx context.Context, name string) (string, error)

	ListCustomers(ctx context.Context, servicerID string) ([]models.Customer, error)
	GetCustomer(ctx context.Context, phone string) (models.Customer, error)

	ListDailyUpdates(ctx context.Context, filter models.UpdateFilter) ([]models.DailyUpdate, error)
	ListSubCategories(ctx context.Context, customerPhone string) ([]models.SubCategory, error)
	GetSubCategory(ctx context.Context, id string) (models.SubCategory, error)

	SaveTask(ctx context.Context, task models.Task, audit *models.DailyUpdate) error
	SaveCustomer(ctx context.Context, customer models.Customer) error
	SaveSubCategory(ctx context.Context, sub models.SubCategory) error
	SetBundleSavings(ctx context.Context, group string, total float64, at time.Time) error
	CreateSubCategory(ctx context.Context, customerPhone, categoryName, name string, taskNames []string, at time.Time) (models.SubCategory, error)
	DeleteSubCategory(ctx context.Context, id string) error
	LogCommunication(ctx context.Context, customer models.Customer, audit *models.DailyUpdate) error
}
