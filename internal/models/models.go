package models

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrReadOnly = errors.New("store is read-only")
)

type Customer struct {
	Phone             string     `json:"phone"`
	DisplayName       string     `json:"display_name"`
	Email             string     `json:"email,omitempty"`
	AssignedTo        string     `json:"assigned_to,omitempty"`
	CustomerType      string     `json:"customer_type,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	Description       string     `json:"description,omitempty"`
	Flags             []string   `json:"flags"`
	LastContactAt     *time.Time `json:"last_contact_at"`
	LastContactMethod string     `json:"last_contact_method,omitempty"`
	LastEmailContact  *time.Time `json:"last_email_contact"`
	LastMessageAt     *time.Time `json:"last_message_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type Category struct {
	ID            string     `json:"id"`
	CustomerPhone string     `json:"customer_phone"`
	Name          string     `json:"name"`
	Status        string     `json:"status,omitempty"`
	StartTime     *time.Time `json:"start_time"`
	LastUpdate    *time.Time `json:"last_update"`
	Customer      *Customer  `json:"customer,omitempty"`
}

type SubCategory struct {
	ID            string     `json:"id"`
	CategoryID    string     `json:"category_id"`
	Name          string     `json:"name"`
	Status        string     `json:"status,omitempty"`
	OverallStatus string     `json:"overall_status,omitempty"`
	MoneySaved    float64    `json:"money_saved"`
	BundleGroup   string     `json:"bundle_group,omitempty"`
	BundleName    string     `json:"bundle_name,omitempty"`
	IsComplete    bool       `json:"is_complete"`
	CompletedAt   *time.Time `json:"completed_at"`
	LastUpdate    *time.Time `json:"last_update"`
	Category      *Category  `json:"category,omitempty"`
	Tasks         []Task     `json:"tasks,omitempty"`
}

// Task is a checklist item. The SubCategory chain is populated by joined
// fetches and any link in it may be missing.
type Task struct {
	ID                  string       `json:"id"`
	SubCategoryID       string       `json:"sub_category_id"`
	Name                string       `json:"name"`
	Status              string       `json:"status"`
	CustomStatus        string       `json:"custom_status,omitempty"`
	Notes               string       `json:"notes,omitempty"`
	StartedAt           *time.Time   `json:"started_at"`
	LastUpdated         *time.Time   `json:"last_updated"`
	CompletedAt         *time.Time   `json:"completed_at"`
	UpdatedBy           string       `json:"updated_by,omitempty"`
	Communicated        bool         `json:"communicated"`
	CommunicationMethod string       `json:"communication_method,omitempty"`
	NoCommReason        string       `json:"no_comm_reason,omitempty"`
	MoneySaved          float64      `json:"money_saved"`
	CreatedAt           time.Time    `json:"created_at"`
	SubCategory         *SubCategory `json:"sub_category,omitempty"`
}

type TeamMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DailyUpdate is an append-only audit row for one task mutation.
type DailyUpdate struct {
	ID                  string    `json:"id"`
	TaskID              string    `json:"task_id"`
	UpdateDate          string    `json:"update_date"`
	PreviousStatus      string    `json:"previous_status,omitempty"`
	NewStatus           string    `json:"new_status"`
	PreviousNotes       string    `json:"previous_notes,omitempty"`
	NewNotes            string    `json:"new_notes,omitempty"`
	Communicated        bool      `json:"communicated"`
	CommunicationMethod string    `json:"communication_method,omitempty"`
	NoCommReason        string    `json:"no_comm_reason,omitempty"`
	UpdatedBy           string    `json:"updated_by,omitempty"`
	UpdaterName         string    `json:"updater_name,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	Task                *Task     `json:"task,omitempty"`
}

// TaskFilter narrows a task fetch at the store boundary. Zero value means all tasks.
type TaskFilter struct {
	ServicerID    string
	CustomerPhone string
	StaleBefore   *time.Time
	OpenOnly      bool
}

type UpdateFilter struct {
	Date             string
	UpdatedBy        string
	CustomerPhone    string
	CommunicatedOnly bool
	Limit            int
}

func (t Task) DisplayStatus() string {
	if t.CustomStatus != "" {
		return t.CustomStatus
	}
	return t.Status
}

func (t Task) category() *Category {
	if t.SubCategory == nil {
		return nil
	}
	return t.SubCategory.Category
}

func (t Task) customer() *Customer {
	c := t.category()
	if c == nil {
		return nil
	}
	return c.Customer
}

func (t Task) SubCategoryName() string {
	if t.SubCategory == nil {
		return ""
	}
	return t.SubCategory.Name
}

func (t Task) CategoryName() string {
	if c := t.category(); c != nil {
		return c.Name
	}
	return ""
}

// CustomerPhone prefers the joined customer row and falls back to the
// category's foreign key when the customer link did not resolve.
func (t Task) CustomerPhone() string {
	if cu := t.customer(); cu != nil && cu.Phone != "" {
		return cu.Phone
	}
	if c := t.category(); c != nil {
		return c.CustomerPhone
	}
	return ""
}

func (t Task) CustomerName() string {
	if cu := t.customer(); cu != nil {
		return cu.DisplayName
	}
	return ""
}

func (t Task) ServicerID() string {
	if cu := t.customer(); cu != nil {
		return cu.AssignedTo
	}
	return ""
}
