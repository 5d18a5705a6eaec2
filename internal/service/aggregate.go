package service

import (
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/servicer-desk/backend/internal/models"
	"github.com/servicer-desk/backend/internal/utils"
)

const (
	DefaultNeedsUpdateDays = 3
	DefaultOverdueDays     = 7
	DefaultRecentLimit     = 10

	day = 24 * time.Hour
)

// StalenessPolicy holds the day thresholds used by the dashboard.
type StalenessPolicy struct {
	NeedsUpdateDays int
	OverdueDays     int
}

func DefaultStalenessPolicy() StalenessPolicy {
	return StalenessPolicy{NeedsUpdateDays: DefaultNeedsUpdateDays, OverdueDays: DefaultOverdueDays}
}

func (p StalenessPolicy) normalized() StalenessPolicy {
	if p.NeedsUpdateDays <= 0 {
		p.NeedsUpdateDays = DefaultNeedsUpdateDays
	}
	if p.OverdueDays <= 0 {
		p.OverdueDays = DefaultOverdueDays
	}
	return p
}

// IsStale reports whether an unfinished task has gone more than
// thresholdDays without an update. A task that was never updated is stale.
func IsStale(task models.Task, thresholdDays int, now time.Time) bool {
	if task.Status == models.StatusComplete {
		return false
	}
	if task.LastUpdated == nil {
		return true
	}
	cutoff := now.Add(-time.Duration(thresholdDays) * day)
	return task.LastUpdated.Before(cutoff)
}

type DashboardStats struct {
	TotalTasks              int `json:"total_tasks"`
	TasksNeedingUpdate      int `json:"tasks_needing_update"`
	OverdueTasks            int `json:"overdue_tasks"`
	CustomersWithStaleTasks int `json:"customers_with_stale_tasks"`
}

func ComputeDashboardStats(tasks []models.Task, policy StalenessPolicy, now time.Time) DashboardStats {
	policy = policy.normalized()
	stats := DashboardStats{TotalTasks: len(tasks)}
	customers := map[string]struct{}{}
	for _, t := range tasks {
		if IsStale(t, policy.NeedsUpdateDays, now) {
			stats.TasksNeedingUpdate++
			if phone := utils.NormalizePhone(t.CustomerPhone()); phone != "" {
				customers[phone] = struct{}{}
			}
		}
		if IsStale(t, policy.OverdueDays, now) {
			stats.OverdueTasks++
		}
	}
	stats.CustomersWithStaleTasks = len(customers)
	return stats
}

// StaleTasks keeps the tasks IsStale accepts, preserving input order.
func StaleTasks(tasks []models.Task, thresholdDays int, now time.Time) []models.Task {
	out := make([]models.Task, 0)
	for _, t := range tasks {
		if IsStale(t, thresholdDays, now) {
			out = append(out, t)
		}
	}
	return out
}

type RecentUpdate struct {
	TaskID          string    `json:"task_id"`
	TaskName        string    `json:"task_name"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CategoryName    string    `json:"category_name"`
	SubCategoryName string    `json:"sub_category_name"`
	Status          string    `json:"status"`
	LastUpdated     time.Time `json:"last_updated"`
	Ago             string    `json:"ago"`
}

// RecentUpdates returns the most recently touched tasks, newest first.
// Tasks without a last_updated timestamp are skipped.
func RecentUpdates(tasks []models.Task, limit int, now time.Time) []RecentUpdate {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	dated := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.LastUpdated != nil {
			dated = append(dated, t)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].LastUpdated.After(*dated[j].LastUpdated)
	})
	if len(dated) > limit {
		dated = dated[:limit]
	}

	out := make([]RecentUpdate, 0, len(dated))
	for _, t := range dated {
		out = append(out, RecentUpdate{
			TaskID:          t.ID,
			TaskName:        orDefault(t.Name, "Unnamed Task"),
			CustomerName:    orDefault(t.CustomerName(), "Unknown Customer"),
			CustomerPhone:   t.CustomerPhone(),
			CategoryName:    orDefault(t.CategoryName(), "Unknown Category"),
			SubCategoryName: orDefault(t.SubCategoryName(), "Unknown Subcategory"),
			Status:          orDefault(t.DisplayStatus(), "pending"),
			LastUpdated:     *t.LastUpdated,
			Ago:             humanize.RelTime(*t.LastUpdated, now, "ago", "from now"),
		})
	}
	return out
}

type ContactChannel struct {
	Channel string     `json:"channel"`
	At      *time.Time `json:"at"`
	Ago     string     `json:"ago"`
	Method  string     `json:"method,omitempty"`
}

// ContactChannels lists the last email, the last message seen by the
// messaging integration, and the last logged contact of any kind.
func ContactChannels(c models.Customer, now time.Time) []ContactChannel {
	return []ContactChannel{
		channel("email", c.LastEmailContact, now, ""),
		channel("message", c.LastMessageAt, now, ""),
		channel("contact", c.LastContactAt, now, c.LastContactMethod),
	}
}

func channel(name string, at *time.Time, now time.Time, method string) ContactChannel {
	ch := ContactChannel{Channel: name, At: at, Ago: "never", Method: method}
	if at != nil {
		ch.Ago = humanize.RelTime(*at, now, "ago", "from now")
	}
	return ch
}

type CustomerStats struct {
	Phone       string     `json:"phone"`
	TotalTasks  int        `json:"total_tasks"`
	StaleTasks  int        `json:"stale_tasks"`
	LastUpdate  *time.Time `json:"last_update"`
	NeedsUpdate bool       `json:"needs_update"`
}

// BatchCustomerStats computes per-customer task counts for every phone in
// phones, keyed by the phone as given. Phones with no tasks get zero stats.
func BatchCustomerStats(tasks []models.Task, phones []string, thresholdDays int, now time.Time) map[string]CustomerStats {
	byPhone := map[string][]models.Task{}
	for _, t := range tasks {
		key := utils.NormalizePhone(t.CustomerPhone())
		byPhone[key] = append(byPhone[key], t)
	}

	out := make(map[string]CustomerStats, len(phones))
	for _, phone := range phones {
		out[phone] = customerStats(phone, byPhone[utils.NormalizePhone(phone)], thresholdDays, now)
	}
	return out
}

func customerStats(phone string, tasks []models.Task, thresholdDays int, now time.Time) CustomerStats {
	st := CustomerStats{Phone: phone, TotalTasks: len(tasks)}
	for _, t := range tasks {
		if IsStale(t, thresholdDays, now) {
			st.StaleTasks++
		}
		if t.LastUpdated != nil && (st.LastUpdate == nil || t.LastUpdated.After(*st.LastUpdate)) {
			lu := *t.LastUpdated
			st.LastUpdate = &lu
		}
	}
	st.NeedsUpdate = st.StaleTasks > 0
	return st
}

// daysSince floors the elapsed time to whole days. A nil timestamp yields NeverDays.
func daysSince(at *time.Time, now time.Time) int {
	if at == nil || at.IsZero() {
		return NeverDays
	}
	return int(now.Sub(*at) / day)
}

// NeverDays stands in for "no timestamp" when sorting by age.
const NeverDays = 999

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
