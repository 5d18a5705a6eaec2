// Package demo serves a fixed sample book of work when no store is
// configured. Every write is rejected with models.ErrReadOnly.
package demo

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/servicer-desk/backend/internal/models"
	"github.com/servicer-desk/backend/internal/utils"
)

//go:embed fixture.yaml
var fixtureYAML []byte

// Deterministic ids: the same fixture always yields the same uuids.
var namespace = uuid.MustParse("6f1c2a8e-3d4b-4c5a-9e7f-1a2b3c4d5e6f")

func idFor(parts ...string) string {
	return uuid.NewSHA1(namespace, []byte(strings.Join(parts, "/"))).String()
}

type fixture struct {
	TeamMembers []struct {
		Name string `yaml:"name"`
	} `yaml:"team_members"`
	Customers []fixtureCustomer `yaml:"customers"`
	Updates   []fixtureUpdate   `yaml:"updates"`
}

type fixtureCustomer struct {
	Phone               string            `yaml:"phone"`
	DisplayName         string            `yaml:"display_name"`
	Email               string            `yaml:"email"`
	Servicer            string            `yaml:"servicer"`
	Flags               []string          `yaml:"flags"`
	Notes               string            `yaml:"notes"`
	Description         string            `yaml:"description"`
	LastContactHoursAgo *float64          `yaml:"last_contact_hours_ago"`
	LastContactMethod   string            `yaml:"last_contact_method"`
	LastEmailHoursAgo   *float64          `yaml:"last_email_hours_ago"`
	LastMessageHoursAgo *float64          `yaml:"last_message_hours_ago"`
	Categories          []fixtureCategory `yaml:"categories"`
}

type fixtureCategory struct {
	Name          string `yaml:"name"`
	SubCategories []struct {
		Name          string        `yaml:"name"`
		OverallStatus string        `yaml:"overall_status"`
		MoneySaved    float64       `yaml:"money_saved"`
		BundleGroup   string        `yaml:"bundle_group"`
		BundleName    string        `yaml:"bundle_name"`
		Tasks         []fixtureTask `yaml:"tasks"`
	} `yaml:"sub_categories"`
}

type fixtureTask struct {
	Name              string   `yaml:"name"`
	Status            string   `yaml:"status"`
	CustomStatus      string   `yaml:"custom_status"`
	Notes             string   `yaml:"notes"`
	UpdatedHoursAgo   *float64 `yaml:"updated_hours_ago"`
	CompletedHoursAgo *float64 `yaml:"completed_hours_ago"`
}

type fixtureUpdate struct {
	Customer       string  `yaml:"customer"`
	Task           string  `yaml:"task"`
	PreviousStatus string  `yaml:"previous_status"`
	NewStatus      string  `yaml:"new_status"`
	HoursAgo       float64 `yaml:"hours_ago"`
	Communicated   bool    `yaml:"communicated"`
	Method         string  `yaml:"method"`
	Notes          string  `yaml:"notes"`
}

type Store struct {
	members   []models.TeamMember
	customers []models.Customer
	subs      []models.SubCategory
	tasks     []models.Task
	updates   []models.DailyUpdate
}

// Load builds the demo store from the embedded fixture, resolving relative
// times against now and calendar dates in loc.
func Load(now time.Time, loc *time.Location) (*Store, error) {
	return Parse(fixtureYAML, now, loc)
}

func Parse(data []byte, now time.Time, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.UTC
	}
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("demo fixture: %w", err)
	}

	ago := func(h *float64) *time.Time {
		if h == nil {
			return nil
		}
		t := now.Add(-time.Duration(*h * float64(time.Hour)))
		return &t
	}
	created := now.Add(-30 * 24 * time.Hour)

	s := &Store{}
	memberIDs := map[string]string{}
	for _, m := range f.TeamMembers {
		id := idFor("member", m.Name)
		memberIDs[m.Name] = id
		s.members = append(s.members, models.TeamMember{ID: id, Name: m.Name})
	}

	taskIDs := map[string]string{}
	for _, fc := range f.Customers {
		assigned := ""
		if fc.Servicer != "" {
			id, ok := memberIDs[fc.Servicer]
			if !ok {
				return nil, fmt.Errorf("demo fixture: customer %s has unknown servicer %q", fc.Phone, fc.Servicer)
			}
			assigned = id
		}
		flags := fc.Flags
		if flags == nil {
			flags = []string{}
		}
		cust := &models.Customer{
			Phone:             fc.Phone,
			DisplayName:       fc.DisplayName,
			Email:             fc.Email,
			AssignedTo:        assigned,
			Notes:             fc.Notes,
			Description:       fc.Description,
			Flags:             flags,
			LastContactAt:     ago(fc.LastContactHoursAgo),
			LastContactMethod: fc.LastContactMethod,
			LastEmailContact:  ago(fc.LastEmailHoursAgo),
			LastMessageAt:     ago(fc.LastMessageHoursAgo),
			CreatedAt:         created,
			UpdatedAt:         created,
		}
		s.customers = append(s.customers, *cust)

		for _, fcat := range fc.Categories {
			cat := &models.Category{
				ID:            idFor("category", fc.Phone, fcat.Name),
				CustomerPhone: fc.Phone,
				Name:          fcat.Name,
				Status:        models.StatusInProgress,
				StartTime:     &created,
				Customer:      cust,
			}
			for _, fsub := range fcat.SubCategories {
				sub := &models.SubCategory{
					ID:            idFor("sub_category", fc.Phone, fcat.Name, fsub.Name),
					CategoryID:    cat.ID,
					Name:          fsub.Name,
					Status:        fsub.OverallStatus,
					OverallStatus: fsub.OverallStatus,
					MoneySaved:    fsub.MoneySaved,
					BundleGroup:   fsub.BundleGroup,
					BundleName:    fsub.BundleName,
					Category:      cat,
				}
				allDone := len(fsub.Tasks) > 0
				for _, ft := range fsub.Tasks {
					status := ft.Status
					if status == "" {
						status = models.StatusNotStarted
					}
					t := models.Task{
						ID:            idFor("task", fc.Phone, fcat.Name, fsub.Name, ft.Name),
						SubCategoryID: sub.ID,
						Name:          ft.Name,
						Status:        status,
						CustomStatus:  ft.CustomStatus,
						Notes:         ft.Notes,
						LastUpdated:   ago(ft.UpdatedHoursAgo),
						CompletedAt:   ago(ft.CompletedHoursAgo),
						UpdatedBy:     assigned,
						MoneySaved:    0,
						CreatedAt:     created,
						SubCategory:   sub,
					}
					if status != models.StatusNotStarted {
						t.StartedAt = &created
					}
					if status != models.StatusComplete {
						allDone = false
						t.CompletedAt = nil
					}
					if t.LastUpdated != nil && (sub.LastUpdate == nil || t.LastUpdated.After(*sub.LastUpdate)) {
						sub.LastUpdate = t.LastUpdated
					}
					taskIDs[utils.NormalizePhone(fc.Phone)+"/"+ft.Name] = t.ID
					s.tasks = append(s.tasks, t)
				}
				sub.IsComplete = allDone
				s.subs = append(s.subs, *sub)
			}
		}
	}

	for i, fu := range f.Updates {
		taskID, ok := taskIDs[utils.NormalizePhone(fu.Customer)+"/"+fu.Task]
		if !ok {
			return nil, fmt.Errorf("demo fixture: update %d references unknown task %q", i, fu.Task)
		}
		h := fu.HoursAgo
		at := *ago(&h)
		task, _ := s.GetTask(context.Background(), taskID)
		s.updates = append(s.updates, models.DailyUpdate{
			ID:                  idFor("update", fmt.Sprint(i)),
			TaskID:              taskID,
			UpdateDate:          at.In(loc).Format("2006-01-02"),
			PreviousStatus:      fu.PreviousStatus,
			NewStatus:           fu.NewStatus,
			NewNotes:            fu.Notes,
			Communicated:        fu.Communicated,
			CommunicationMethod: fu.Method,
			UpdatedBy:           task.UpdatedBy,
			UpdaterName:         memberName(s.members, task.UpdatedBy),
			CreatedAt:           at,
		})
	}

	sort.SliceStable(s.tasks, func(i, j int) bool { return s.tasks[i].ID < s.tasks[j].ID })
	sort.SliceStable(s.updates, func(i, j int) bool { return s.updates[i].CreatedAt.After(s.updates[j].CreatedAt) })
	return s, nil
}

func memberName(members []models.TeamMember, id string) string {
	for _, m := range members {
		if m.ID == id {
			return m.Name
		}
	}
	return ""
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) FetchTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	phone := utils.NormalizePhone(filter.CustomerPhone)
	out := []models.Task{}
	for _, t := range s.tasks {
		if filter.ServicerID != "" && t.ServicerID() != filter.ServicerID {
			continue
		}
		if phone != "" && utils.NormalizePhone(t.CustomerPhone()) != phone {
			continue
		}
		if filter.StaleBefore != nil {
			if t.Status == models.StatusComplete {
				continue
			}
			if t.LastUpdated != nil && !t.LastUpdated.Before(*filter.StaleBefore) {
				continue
			}
		}
		if filter.OpenOnly && models.IsTerminal(t.Status) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Task{}, models.ErrNotFound
}

func (s *Store) ListTeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	out := append([]models.TeamMember{}, s.members...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) FindTeamMemberIDByName(ctx context.Context, name string) (string, error) {
	for _, m := range s.members {
		if m.Name == name {
			return m.ID, nil
		}
	}
	return "", models.ErrNotFound
}

func (s *Store) ListCustomers(ctx context.Context, servicerID string) ([]models.Customer, error) {
	out := []models.Customer{}
	for _, c := range s.customers {
		if servicerID != "" && c.AssignedTo != servicerID {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (s *Store) GetCustomer(ctx context.Context, phone string) (models.Customer, error) {
	for _, c := range s.customers {
		if utils.SamePhone(c.Phone, phone) {
			return c, nil
		}
	}
	return models.Customer{}, models.ErrNotFound
}

func (s *Store) ListDailyUpdates(ctx context.Context, filter models.UpdateFilter) ([]models.DailyUpdate, error) {
	phone := utils.NormalizePhone(filter.CustomerPhone)
	out := []models.DailyUpdate{}
	for _, u := range s.updates {
		if filter.Date != "" && u.UpdateDate != filter.Date {
			continue
		}
		if filter.UpdatedBy != "" && u.UpdatedBy != filter.UpdatedBy {
			continue
		}
		if filter.CommunicatedOnly && !u.Communicated {
			continue
		}
		task, err := s.GetTask(ctx, u.TaskID)
		if err == nil {
			u.Task = &task
		}
		if phone != "" && (u.Task == nil || utils.NormalizePhone(u.Task.CustomerPhone()) != phone) {
			continue
		}
		out = append(out, u)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) ListSubCategories(ctx context.Context, customerPhone string) ([]models.SubCategory, error) {
	out := []models.SubCategory{}
	for _, sc := range s.subs {
		if sc.Category == nil || !utils.SamePhone(sc.Category.CustomerPhone, customerPhone) {
			continue
		}
		sc.Tasks = []models.Task{}
		for _, t := range s.tasks {
			if t.SubCategoryID == sc.ID {
				t.SubCategory = nil
				sc.Tasks = append(sc.Tasks, t)
			}
		}
		out = append(out, sc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category.Name != out[j].Category.Name {
			return out[i].Category.Name < out[j].Category.Name
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetSubCategory(ctx context.Context, id string) (models.SubCategory, error) {
	for _, sc := range s.subs {
		if sc.ID == id {
			return sc, nil
		}
	}
	return models.SubCategory{}, models.ErrNotFound
}

func (s *Store) SaveTask(ctx context.Context, task models.Task, audit *models.DailyUpdate) error {
	return models.ErrReadOnly
}

func (s *Store) SaveCustomer(ctx context.Context, customer models.Customer) error {
	return models.ErrReadOnly
}

func (s *Store) SaveSubCategory(ctx context.Context, sub models.SubCategory) error {
	return models.ErrReadOnly
}

func (s *Store) SetBundleSavings(ctx context.Context, group string, total float64, at time.Time) error {
	return models.ErrReadOnly
}

func (s *Store) CreateSubCategory(ctx context.Context, customerPhone, categoryName, name string, taskNames []string, at time.Time) (models.SubCategory, error) {
	return models.SubCategory{}, models.ErrReadOnly
}

func (s *Store) DeleteSubCategory(ctx context.Context, id string) error {
	return models.ErrReadOnly
}

func (s *Store) LogCommunication(ctx context.Context, customer models.Customer, audit *models.DailyUpdate) error {
	return models.ErrReadOnly
}
