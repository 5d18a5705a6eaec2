package service

import (
	"sort"
	"time"

	"github.com/servicer-desk/backend/internal/models"
)

const DefaultUpNextLimit = 50

var priorityScores = map[string]int{
	models.StatusWaitingOnInfo:    1,
	models.StatusWaitingOnPartner: 2,
	models.StatusInProgress:       3,
	models.StatusSentInfo:         4,
	models.StatusFollowedUp:       5,
	models.StatusNotStarted:       6,
}

// PriorityScore ranks a status for the Up Next queue; lower is more urgent.
func PriorityScore(status string) int {
	if s, ok := priorityScores[status]; ok {
		return s
	}
	return 99
}

type Urgency string

const (
	UrgencyFresh    Urgency = "fresh"
	UrgencyAging    Urgency = "aging"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
	UrgencyUnknown  Urgency = "unknown"
)

// UrgencyFor buckets the time since the last update: up to 24h fresh,
// up to 48h aging, up to 96h warning, anything older critical.
func UrgencyFor(lastUpdated *time.Time, now time.Time) Urgency {
	if lastUpdated == nil {
		return UrgencyUnknown
	}
	hours := now.Sub(*lastUpdated).Hours()
	if hours < 0 {
		hours = -hours
	}
	switch {
	case hours <= 24:
		return UrgencyFresh
	case hours <= 48:
		return UrgencyAging
	case hours <= 96:
		return UrgencyWarning
	default:
		return UrgencyCritical
	}
}

type UpNextItem struct {
	Task            models.Task `json:"task"`
	DisplayStatus   string      `json:"display_status"`
	PriorityScore   int         `json:"priority_score"`
	DaysSinceUpdate int         `json:"days_since_update"`
	Urgency         Urgency     `json:"urgency"`
	CustomerName    string      `json:"customer_name"`
	CustomerPhone   string      `json:"customer_phone"`
}

// RankUpNext drops finished tasks and orders the rest by priority score,
// then by days since update with the oldest first. Equal keys keep their
// input order.
func RankUpNext(tasks []models.Task, now time.Time) []UpNextItem {
	items := make([]UpNextItem, 0, len(tasks))
	for _, t := range tasks {
		if models.IsTerminal(t.Status) {
			continue
		}
		ref := t.LastUpdated
		if ref == nil && !t.CreatedAt.IsZero() {
			created := t.CreatedAt
			ref = &created
		}
		items = append(items, UpNextItem{
			Task:            t,
			DisplayStatus:   t.DisplayStatus(),
			PriorityScore:   PriorityScore(t.Status),
			DaysSinceUpdate: daysSince(ref, now),
			Urgency:         UrgencyFor(t.LastUpdated, now),
			CustomerName:    t.CustomerName(),
			CustomerPhone:   t.CustomerPhone(),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].PriorityScore != items[j].PriorityScore {
			return items[i].PriorityScore < items[j].PriorityScore
		}
		return items[i].DaysSinceUpdate > items[j].DaysSinceUpdate
	})
	return items
}

// UrgentTasks returns up to limit open tasks untouched for more than
// thresholdDays, oldest first. N/A tasks are left out.
func UrgentTasks(tasks []models.Task, thresholdDays, limit int, now time.Time) []UpNextItem {
	stale := StaleTasks(tasks, thresholdDays, now)
	items := make([]UpNextItem, 0, len(stale))
	for _, t := range stale {
		if t.Status == models.StatusNA {
			continue
		}
		items = append(items, UpNextItem{
			Task:            t,
			DisplayStatus:   t.DisplayStatus(),
			PriorityScore:   PriorityScore(t.Status),
			DaysSinceUpdate: daysSince(t.LastUpdated, now),
			Urgency:         UrgencyFor(t.LastUpdated, now),
			CustomerName:    t.CustomerName(),
			CustomerPhone:   t.CustomerPhone(),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DaysSinceUpdate > items[j].DaysSinceUpdate
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
