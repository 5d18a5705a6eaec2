package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/servicer-desk/backend/internal/cache"
	"github.com/servicer-desk/backend/internal/metrics"
	"github.com/servicer-desk/backend/internal/models"
)

// TaskService is the read side: it fetches the task graph from the store
// and hands it to the aggregation functions.
type TaskService struct {
	Store      Store
	Servicers  *cache.ServicerCache
	Logger     zerolog.Logger
	Policy     StalenessPolicy
	UrgentDays int
	Now        func() time.Time
}

func (s *TaskService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// fetch runs a store task query. On failure it logs, counts, and returns an
// empty slice together with an error wrapping ErrFetchFailed.
func (s *TaskService) fetch(ctx context.Context, op string, filter models.TaskFilter) ([]models.Task, error) {
	tasks, err := s.Store.FetchTasks(ctx, filter)
	if err != nil {
		metrics.IncFetchFailure()
		s.Logger.Error().Err(err).Str("op", op).Msg("task fetch failed")
		return []models.Task{}, fmt.Errorf("%w: %s: %v", ErrFetchFailed, op, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *TaskService) FetchAllTasksWithRelationships(ctx context.Context) ([]models.Task, error) {
	return s.fetch(ctx, "all_tasks", models.TaskFilter{})
}

// IsServicerID reports whether identifier has the canonical UUID shape
// used for team-member ids.
func IsServicerID(identifier string) bool {
	if len(identifier) != 36 {
		return false
	}
	_, err := uuid.Parse(identifier)
	return err == nil
}

// GetServicerUUID resolves a servicer name to its id through the cache.
// Unknown names return models.ErrNotFound and are not cached.
func (s *TaskService) GetServicerUUID(ctx context.Context, name string) (string, error) {
	if s.Servicers != nil {
		if id, ok := s.Servicers.Get(name); ok {
			return id, nil
		}
	}
	id, err := s.Store.FindTeamMemberIDByName(ctx, name)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.Logger.Error().Err(err).Str("servicer", name).Msg("servicer lookup failed")
		}
		return "", err
	}
	if s.Servicers != nil {
		s.Servicers.Put(name, id)
	}
	return id, nil
}

// ResolveServicer turns an id or a name into an id. ok is false when a name
// does not match any team member. An empty identifier means all servicers.
func (s *TaskService) ResolveServicer(ctx context.Context, identifier string) (string, bool, error) {
	if identifier == "" || IsServicerID(identifier) {
		return identifier, true, nil
	}
	id, err := s.GetServicerUUID(ctx, identifier)
	if errors.Is(err, models.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		metrics.IncFetchFailure()
		return "", false, fmt.Errorf("%w: servicer lookup: %v", ErrFetchFailed, err)
	}
	return id, true, nil
}

func (s *TaskService) FetchServicerTasks(ctx context.Context, identifier string) ([]models.Task, error) {
	id, ok, err := s.ResolveServicer(ctx, identifier)
	if err != nil || !ok {
		return []models.Task{}, err
	}
	return s.fetch(ctx, "servicer_tasks", models.TaskFilter{ServicerID: id})
}

func (s *TaskService) FetchCustomerTasks(ctx context.Context, phone string) ([]models.Task, error) {
	return s.fetch(ctx, "customer_tasks", models.TaskFilter{CustomerPhone: phone})
}

// FetchStaleTasks narrows in SQL and then re-applies IsStale so the result
// matches the in-memory rule exactly.
func (s *TaskService) FetchStaleTasks(ctx context.Context, thresholdDays int, servicer string) ([]models.Task, error) {
	if thresholdDays <= 0 {
		thresholdDays = s.policy().NeedsUpdateDays
	}
	id, ok, err := s.ResolveServicer(ctx, servicer)
	if err != nil || !ok {
		return []models.Task{}, err
	}
	now := s.now()
	cutoff := now.Add(-time.Duration(thresholdDays) * day)
	tasks, err := s.fetch(ctx, "stale_tasks", models.TaskFilter{ServicerID: id, StaleBefore: &cutoff})
	if err != nil {
		return tasks, err
	}
	return StaleTasks(tasks, thresholdDays, now), nil
}

func (s *TaskService) policy() StalenessPolicy {
	return s.Policy.normalized()
}

func (s *TaskService) GetDashboardStats(ctx context.Context, servicer string) (DashboardStats, error) {
	tasks, err := s.FetchServicerTasks(ctx, servicer)
	return ComputeDashboardStats(tasks, s.policy(), s.now()), err
}

func (s *TaskService) GetRecentUpdates(ctx context.Context, limit int, servicer string) ([]RecentUpdate, error) {
	tasks, err := s.FetchServicerTasks(ctx, servicer)
	return RecentUpdates(tasks, limit, s.now()), err
}

func (s *TaskService) UpNext(ctx context.Context, servicer string, limit int) ([]UpNextItem, error) {
	if limit <= 0 {
		limit = DefaultUpNextLimit
	}
	id, ok, err := s.ResolveServicer(ctx, servicer)
	if err != nil || !ok {
		return []UpNextItem{}, err
	}
	tasks, err := s.fetch(ctx, "up_next", models.TaskFilter{ServicerID: id, OpenOnly: true})
	items := RankUpNext(tasks, s.now())
	if len(items) > limit {
		items = items[:limit]
	}
	return items, err
}

func (s *TaskService) GetCustomerStats(ctx context.Context, phone string) (CustomerStats, error) {
	tasks, err := s.FetchCustomerTasks(ctx, phone)
	return BatchCustomerStats(tasks, []string{phone}, s.policy().NeedsUpdateDays, s.now())[phone], err
}

func (s *TaskService) BatchGetCustomerStats(ctx context.Context, phones []string) (map[string]CustomerStats, error) {
	tasks, err := s.FetchAllTasksWithRelationships(ctx)
	return BatchCustomerStats(tasks, phones, s.policy().NeedsUpdateDays, s.now()), err
}

func (s *TaskService) ListServicers(ctx context.Context) ([]models.TeamMember, error) {
	members, err := s.Store.ListTeamMembers(ctx)
	if err != nil {
		metrics.IncFetchFailure()
		s.Logger.Error().Err(err).Msg("team member fetch failed")
		return []models.TeamMember{}, fmt.Errorf("%w: team members: %v", ErrFetchFailed, err)
	}
	if s.Servicers != nil {
		for _, m := range members {
			s.Servicers.Put(m.Name, m.ID)
		}
	}
	return members, nil
}

type CustomerSummary struct {
	models.Customer
	Stats CustomerStats `json:"stats"`
}

// Customers lists the servicer's customers (all customers for an empty
// identifier) with their task stats.
func (s *TaskService) Customers(ctx context.Context, servicer string) ([]CustomerSummary, error) {
	id, ok, err := s.ResolveServicer(ctx, servicer)
	if err != nil || !ok {
		return []CustomerSummary{}, err
	}

	var (
		customers []models.Customer
		tasks     []models.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		customers, err = s.Store.ListCustomers(gctx, id)
		if err != nil {
			metrics.IncFetchFailure()
			s.Logger.Error().Err(err).Msg("customer fetch failed")
			return fmt.Errorf("%w: customers: %v", ErrFetchFailed, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tasks, err = s.fetch(gctx, "customer_list_tasks", models.TaskFilter{ServicerID: id})
		return err
	})
	if err := g.Wait(); err != nil {
		return []CustomerSummary{}, err
	}

	phones := make([]string, 0, len(customers))
	for _, c := range customers {
		phones = append(phones, c.Phone)
	}
	stats := BatchCustomerStats(tasks, phones, s.policy().NeedsUpdateDays, s.now())
	out := make([]CustomerSummary, 0, len(customers))
	for _, c := range customers {
		out = append(out, CustomerSummary{Customer: c, Stats: stats[c.Phone]})
	}
	return out, nil
}

type Dashboard struct {
	Stats         DashboardStats   `json:"stats"`
	Servicers     []ServicerRollup `json:"servicers"`
	UrgentTasks   []UpNextItem     `json:"urgent_tasks"`
	RecentUpdates []RecentUpdate   `json:"recent_updates"`
}

const urgentTaskLimit = 10

// Dashboard loads tasks, customers and the roster concurrently. A failed
// fetch leaves its part empty and the first error is returned alongside the
// partial dashboard.
func (s *TaskService) Dashboard(ctx context.Context, servicer string) (Dashboard, error) {
	id, ok, err := s.ResolveServicer(ctx, servicer)
	if err != nil || !ok {
		return emptyDashboard(), err
	}

	var (
		tasks     []models.Task
		customers []models.Customer
		members   []models.TeamMember
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.fetch(gctx, "dashboard_tasks", models.TaskFilter{ServicerID: id})
		return err
	})
	g.Go(func() error {
		var err error
		customers, err = s.Store.ListCustomers(gctx, id)
		if err != nil {
			metrics.IncFetchFailure()
			return fmt.Errorf("%w: customers: %v", ErrFetchFailed, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		members, err = s.ListServicers(gctx)
		return err
	})
	err = g.Wait()
	if err != nil {
		s.Logger.Warn().Err(err).Msg("dashboard degraded")
	}

	if id != "" {
		filtered := members[:0:0]
		for _, m := range members {
			if m.ID == id {
				filtered = append(filtered, m)
			}
		}
		members = filtered
	}

	now := s.now()
	urgentDays := s.UrgentDays
	if urgentDays <= 0 {
		urgentDays = 2
	}
	return Dashboard{
		Stats:         ComputeDashboardStats(tasks, s.policy(), now),
		Servicers:     ServicerRollups(tasks, customers, members),
		UrgentTasks:   UrgentTasks(tasks, urgentDays, urgentTaskLimit, now),
		RecentUpdates: RecentUpdates(tasks, DefaultRecentLimit, now),
	}, err
}

func emptyDashboard() Dashboard {
	return Dashboard{
		Servicers:     []ServicerRollup{},
		UrgentTasks:   []UpNextItem{},
		RecentUpdates: []RecentUpdate{},
	}
}

type CustomerDetail struct {
	Customer      models.Customer      `json:"customer"`
	SubCategories []models.SubCategory `json:"sub_categories"`
	Rollup        CustomerRollup       `json:"rollup"`
	Stats         CustomerStats        `json:"stats"`
	Channels      []ContactChannel     `json:"contact_channels"`
	Updates       []models.DailyUpdate `json:"updates"`
}

// CustomerDetail returns models.ErrNotFound for an unknown phone. Other
// read failures come back wrapped in ErrFetchFailed with the detail that
// did load.
func (s *TaskService) CustomerDetail(ctx context.Context, phone string) (CustomerDetail, error) {
	customer, err := s.Store.GetCustomer(ctx, phone)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return CustomerDetail{}, err
		}
		metrics.IncFetchFailure()
		return CustomerDetail{}, fmt.Errorf("%w: customer: %v", ErrFetchFailed, err)
	}

	var (
		subs    []models.SubCategory
		tasks   []models.Task
		updates []models.DailyUpdate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subs, err = s.Store.ListSubCategories(gctx, customer.Phone)
		if err != nil {
			metrics.IncFetchFailure()
			return fmt.Errorf("%w: sub-categories: %v", ErrFetchFailed, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tasks, err = s.fetch(gctx, "customer_tasks", models.TaskFilter{CustomerPhone: customer.Phone})
		return err
	})
	g.Go(func() error {
		var err error
		updates, err = s.Store.ListDailyUpdates(gctx, models.UpdateFilter{CustomerPhone: customer.Phone, Limit: 20})
		if err != nil {
			metrics.IncFetchFailure()
			return fmt.Errorf("%w: updates: %v", ErrFetchFailed, err)
		}
		return nil
	})
	err = g.Wait()
	if subs == nil {
		subs = []models.SubCategory{}
	}
	if updates == nil {
		updates = []models.DailyUpdate{}
	}

	now := s.now()
	detail := CustomerDetail{
		Customer:      customer,
		SubCategories: subs,
		Stats:         BatchCustomerStats(tasks, []string{customer.Phone}, s.policy().NeedsUpdateDays, now)[customer.Phone],
		Channels:      ContactChannels(customer, now),
		Updates:       updates,
	}
	if rollups := CustomerRollups(tasks); len(rollups) > 0 {
		detail.Rollup = rollups[0]
	} else {
		detail.Rollup = CustomerRollup{Phone: customer.Phone, Name: customer.DisplayName, Categories: []CategoryRollup{}}
	}
	// Savings come from the sub-category rows so that services without tasks still count.
	detail.Rollup.Savings = ResolveSavings(subs)
	return detail, err
}
