package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/servicer-desk/backend/internal/metrics"
	"github.com/servicer-desk/backend/internal/models"
	"github.com/servicer-desk/backend/internal/utils"
)

const DateLayout = "2006-01-02"

type ReportInput struct {
	Date        string
	Now         time.Time
	Updates     []models.DailyUpdate
	Customers   []models.Customer
	TeamMembers []models.TeamMember
	Tasks       []models.Task
}

type ContactGap struct {
	Phone             string     `json:"phone"`
	Name              string     `json:"name"`
	DaysSinceContact  int        `json:"days_since_contact"`
	LastContactAt     *time.Time `json:"last_contact_date,omitempty"`
	LastContactMethod string     `json:"last_contact_method,omitempty"`
}

type TaskUpdateLine struct {
	TaskID              string    `json:"task_id"`
	TaskName            string    `json:"task_name"`
	CustomerName        string    `json:"customer_name"`
	CustomerPhone       string    `json:"customer_phone"`
	PreviousStatus      string    `json:"previous_status,omitempty"`
	NewStatus           string    `json:"new_status"`
	At                  time.Time `json:"at"`
	Communicated        bool      `json:"communicated"`
	CommunicationMethod string    `json:"communication_method,omitempty"`
	Comment             string    `json:"comment,omitempty"`
}

type RemainingTask struct {
	TaskID          string `json:"task_id"`
	TaskName        string `json:"task_name"`
	CustomerName    string `json:"customer_name"`
	Status          string `json:"status"`
	DaysSinceUpdate int    `json:"days_since_update"`
}

type ServicerReport struct {
	ServicerID            string           `json:"servicer_id"`
	ServicerName          string           `json:"servicer_name"`
	TasksUpdated          int              `json:"tasks_updated"`
	TasksCompleted        int              `json:"tasks_completed"`
	TasksInProgress       int              `json:"tasks_in_progress"`
	CustomersContacted    []string         `json:"customers_contacted"`
	CustomersNotContacted []ContactGap     `json:"customers_not_contacted"`
	TaskUpdates           []TaskUpdateLine `json:"task_updates"`
	RemainingTasks        []RemainingTask  `json:"remaining_tasks"`
}

type ReportTotals struct {
	Updates               int `json:"updates"`
	Completed             int `json:"completed"`
	CustomersContacted    int `json:"customers_contacted"`
	CustomersNotContacted int `json:"customers_not_contacted"`
}

type DailyReport struct {
	Date      string           `json:"date"`
	Totals    ReportTotals     `json:"totals"`
	Servicers []ServicerReport `json:"servicers"`
}

// BuildDailyReport partitions the day's audit rows by servicer and checks
// the roster for customers with open work who were not contacted. Every
// servicer with an assigned customer gets a report even with no updates.
func BuildDailyReport(in ReportInput) DailyReport {
	names := map[string]string{}
	for _, m := range in.TeamMembers {
		names[m.ID] = m.Name
	}

	reports := map[string]*ServicerReport{}
	contacted := map[string]map[string]struct{}{}
	newReport := func(id, name string) *ServicerReport {
		r := &ServicerReport{
			ServicerID:            id,
			ServicerName:          name,
			CustomersContacted:    []string{},
			CustomersNotContacted: []ContactGap{},
			TaskUpdates:           []TaskUpdateLine{},
			RemainingTasks:        []RemainingTask{},
		}
		reports[id] = r
		contacted[id] = map[string]struct{}{}
		return r
	}

	for _, c := range in.Customers {
		if c.AssignedTo == "" {
			continue
		}
		name, ok := names[c.AssignedTo]
		if !ok {
			continue
		}
		if _, exists := reports[c.AssignedTo]; !exists {
			newReport(c.AssignedTo, name)
		}
	}

	taskByID := make(map[string]models.Task, len(in.Tasks))
	for _, t := range in.Tasks {
		taskByID[t.ID] = t
	}

	for _, u := range in.Updates {
		task, hasTask := taskByID[u.TaskID]
		if u.Task != nil {
			task, hasTask = *u.Task, true
		}
		servicerID := u.UpdatedBy
		if servicerID == "" && hasTask {
			servicerID = task.ServicerID()
		}
		if servicerID == "" {
			continue
		}

		r, ok := reports[servicerID]
		if !ok {
			name := names[servicerID]
			if name == "" {
				name = orDefault(u.UpdaterName, "Unknown")
			}
			r = newReport(servicerID, name)
		}

		r.TasksUpdated++
		switch u.NewStatus {
		case models.StatusComplete:
			r.TasksCompleted++
		case models.StatusInProgress:
			r.TasksInProgress++
		}

		phone := task.CustomerPhone()
		if u.Communicated && phone != "" {
			contacted[servicerID][utils.NormalizePhone(phone)] = struct{}{}
		}

		r.TaskUpdates = append(r.TaskUpdates, TaskUpdateLine{
			TaskID:              u.TaskID,
			TaskName:            orDefault(task.Name, "Unknown Task"),
			CustomerName:        orDefault(task.CustomerName(), "Unknown"),
			CustomerPhone:       phone,
			PreviousStatus:      u.PreviousStatus,
			NewStatus:           u.NewStatus,
			At:                  u.CreatedAt,
			Communicated:        u.Communicated,
			CommunicationMethod: u.CommunicationMethod,
			Comment:             u.NewNotes,
		})
	}

	active := map[string]bool{}
	for _, t := range in.Tasks {
		if !models.IsTerminal(t.Status) {
			active[utils.NormalizePhone(t.CustomerPhone())] = true
		}
	}

	for _, c := range in.Customers {
		r, ok := reports[c.AssignedTo]
		if c.AssignedTo == "" || !ok {
			continue
		}
		key := utils.NormalizePhone(c.Phone)
		if !active[key] {
			continue
		}
		if _, done := contacted[c.AssignedTo][key]; done {
			continue
		}
		r.CustomersNotContacted = append(r.CustomersNotContacted, ContactGap{
			Phone:             c.Phone,
			Name:              c.DisplayName,
			DaysSinceContact:  daysSince(c.LastContactAt, in.Now),
			LastContactAt:     c.LastContactAt,
			LastContactMethod: c.LastContactMethod,
		})
	}

	for _, t := range in.Tasks {
		if models.IsTerminal(t.Status) {
			continue
		}
		r, ok := reports[t.ServicerID()]
		if !ok {
			continue
		}
		r.RemainingTasks = append(r.RemainingTasks, RemainingTask{
			TaskID:          t.ID,
			TaskName:        t.Name,
			CustomerName:    orDefault(t.CustomerName(), "Unknown"),
			Status:          t.DisplayStatus(),
			DaysSinceUpdate: daysSince(t.LastUpdated, in.Now),
		})
	}

	out := DailyReport{Date: in.Date, Servicers: make([]ServicerReport, 0, len(reports))}
	for id, r := range reports {
		for phone := range contacted[id] {
			r.CustomersContacted = append(r.CustomersContacted, phone)
		}
		sort.Strings(r.CustomersContacted)
		sort.SliceStable(r.CustomersNotContacted, func(i, j int) bool {
			return r.CustomersNotContacted[i].DaysSinceContact > r.CustomersNotContacted[j].DaysSinceContact
		})
		sort.SliceStable(r.TaskUpdates, func(i, j int) bool {
			return r.TaskUpdates[i].At.After(r.TaskUpdates[j].At)
		})
		sort.SliceStable(r.RemainingTasks, func(i, j int) bool {
			return r.RemainingTasks[i].DaysSinceUpdate > r.RemainingTasks[j].DaysSinceUpdate
		})

		out.Totals.Updates += r.TasksUpdated
		out.Totals.Completed += r.TasksCompleted
		out.Totals.CustomersContacted += len(r.CustomersContacted)
		out.Totals.CustomersNotContacted += len(r.CustomersNotContacted)
		out.Servicers = append(out.Servicers, *r)
	}
	sort.Slice(out.Servicers, func(i, j int) bool {
		if out.Servicers[i].ServicerName != out.Servicers[j].ServicerName {
			return out.Servicers[i].ServicerName < out.Servicers[j].ServicerName
		}
		return out.Servicers[i].ServicerID < out.Servicers[j].ServicerID
	})
	return out
}

type ReportService struct {
	Store  Store
	Logger zerolog.Logger
	Now    func() time.Time
	Loc    *time.Location
}

// Daily loads the audit rows for date (YYYY-MM-DD, today when empty) along
// with the roster and open tasks, then builds the report.
func (s *ReportService) Daily(ctx context.Context, date string) (DailyReport, error) {
	now := s.now()
	if date == "" {
		date = now.In(s.location()).Format(DateLayout)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return DailyReport{}, fmt.Errorf("%w: report date %q: %v", ErrInvalidInput, date, err)
	}

	in := ReportInput{Date: date, Now: now}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in.Updates, err = s.Store.ListDailyUpdates(gctx, models.UpdateFilter{Date: date})
		return wrapFetch("daily updates", err)
	})
	g.Go(func() error {
		var err error
		in.Customers, err = s.Store.ListCustomers(gctx, "")
		return wrapFetch("customers", err)
	})
	g.Go(func() error {
		var err error
		in.TeamMembers, err = s.Store.ListTeamMembers(gctx)
		return wrapFetch("team members", err)
	})
	g.Go(func() error {
		var err error
		in.Tasks, err = s.Store.FetchTasks(gctx, models.TaskFilter{OpenOnly: true})
		return wrapFetch("tasks", err)
	})
	if err := g.Wait(); err != nil {
		metrics.IncFetchFailure()
		s.Logger.Error().Err(err).Str("date", date).Msg("daily report fetch failed")
		return DailyReport{Date: date, Servicers: []ServicerReport{}}, err
	}
	return BuildDailyReport(in), nil
}

// Updates returns audit rows newest first. A failed read yields an empty
// slice and an error wrapping ErrFetchFailed.
func (s *ReportService) Updates(ctx context.Context, filter models.UpdateFilter) ([]models.DailyUpdate, error) {
	if filter.Date != "" {
		if _, err := time.Parse(DateLayout, filter.Date); err != nil {
			return []models.DailyUpdate{}, fmt.Errorf("%w: date %q", ErrInvalidInput, filter.Date)
		}
	}
	updates, err := s.Store.ListDailyUpdates(ctx, filter)
	if err != nil {
		metrics.IncFetchFailure()
		s.Logger.Error().Err(err).Msg("daily update fetch failed")
		return []models.DailyUpdate{}, wrapFetch("daily updates", err)
	}
	if updates == nil {
		updates = []models.DailyUpdate{}
	}
	return updates, nil
}

func (s *ReportService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ReportService) location() *time.Location {
	if s.Loc != nil {
		return s.Loc
	}
	return time.UTC
}

func wrapFetch(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrFetchFailed, what, err)
}
