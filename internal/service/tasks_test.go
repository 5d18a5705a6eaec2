package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicer-desk/backend/internal/cache"
	"github.com/servicer-desk/backend/internal/demo"
	"github.com/servicer-desk/backend/internal/models"
)

var demoNow = time.Date(2024, 1, 21, 9, 0, 0, 0, time.UTC)

func newDemoTaskService(t *testing.T) *TaskService {
	t.Helper()
	store, err := demo.Load(demoNow, time.UTC)
	require.NoError(t, err)
	return &TaskService{
		Store:     store,
		Servicers: cache.NewServicerCache(0, 0),
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return demoNow },
	}
}

func TestIsServicerID(t *testing.T) {
	assert.True(t, IsServicerID("3f2b8c1e-4d5a-4b6c-9d7e-8f9a0b1c2d3e"))
	assert.False(t, IsServicerID("Sarah Johnson"))
	assert.False(t, IsServicerID("3f2b8c1e4d5a4b6c9d7e8f9a0b1c2d3e"))
	assert.False(t, IsServicerID(""))
}

func TestServicerNameResolution(t *testing.T) {
	svc := newDemoTaskService(t)
	ctx := context.Background()

	id, err := svc.GetServicerUUID(ctx, "Sarah Johnson")
	require.NoError(t, err)
	assert.True(t, IsServicerID(id))
	cached, ok := svc.Servicers.Get("Sarah Johnson")
	assert.True(t, ok)
	assert.Equal(t, id, cached)

	_, err = svc.GetServicerUUID(ctx, "Nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, ok = svc.Servicers.Get("Nobody")
	assert.False(t, ok, "misses are not cached")

	byName, err := svc.FetchServicerTasks(ctx, "Sarah Johnson")
	require.NoError(t, err)
	byID, err := svc.FetchServicerTasks(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, len(byID), len(byName))
	assert.NotEmpty(t, byName)

	unknown, err := svc.FetchServicerTasks(ctx, "Nobody")
	require.NoError(t, err)
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
}

func TestScopedStatsAreSubsetOfGlobal(t *testing.T) {
	svc := newDemoTaskService(t)
	ctx := context.Background()

	all, err := svc.GetDashboardStats(ctx, "")
	require.NoError(t, err)
	sarah, err := svc.GetDashboardStats(ctx, "Sarah Johnson")
	require.NoError(t, err)
	mike, err := svc.GetDashboardStats(ctx, "Mike Chen")
	require.NoError(t, err)

	assert.Equal(t, all.TotalTasks, sarah.TotalTasks+mike.TotalTasks)
	assert.LessOrEqual(t, sarah.TasksNeedingUpdate, all.TasksNeedingUpdate)
	assert.Equal(t, all.TasksNeedingUpdate, sarah.TasksNeedingUpdate+mike.TasksNeedingUpdate)
}

func TestFetchStaleTasksMatchesInMemoryRule(t *testing.T) {
	svc := newDemoTaskService(t)
	ctx := context.Background()

	stale, err := svc.FetchStaleTasks(ctx, 3, "")
	require.NoError(t, err)
	all, err := svc.FetchAllTasksWithRelationships(ctx)
	require.NoError(t, err)
	assert.Equal(t, StaleTasks(all, 3, demoNow), stale)
}

func TestUpNextExcludesFinishedWork(t *testing.T) {
	svc := newDemoTaskService(t)
	items, err := svc.UpNext(context.Background(), "", 0)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.False(t, models.IsTerminal(it.Task.Status), it.Task.Name)
	}

	limited, err := svc.UpNext(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestDashboard(t *testing.T) {
	svc := newDemoTaskService(t)
	d, err := svc.Dashboard(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, d.Servicers, 2)
	assert.LessOrEqual(t, len(d.UrgentTasks), urgentTaskLimit)
	assert.LessOrEqual(t, len(d.RecentUpdates), DefaultRecentLimit)

	scoped, err := svc.Dashboard(context.Background(), "Mike Chen")
	require.NoError(t, err)
	require.Len(t, scoped.Servicers, 1)
	assert.Equal(t, "Mike Chen", scoped.Servicers[0].Name)
}

func TestCustomerDetail(t *testing.T) {
	svc := newDemoTaskService(t)
	ctx := context.Background()

	d, err := svc.CustomerDetail(ctx, "+64-21-123-4567")
	require.NoError(t, err)
	assert.Len(t, d.SubCategories, 4)
	assert.Len(t, d.Channels, 3)
	require.Len(t, d.Rollup.Savings.Bundles, 1)
	assert.Equal(t, "mitchell-motor-home", d.Rollup.Savings.Bundles[0].Group)

	_, err = svc.CustomerDetail(ctx, "+64 00 000 0000")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

type brokenStore struct {
	Store
}

func (brokenStore) FetchTasks(context.Context, models.TaskFilter) ([]models.Task, error) {
	return nil, errors.New("relation \"tasks\" does not exist")
}

func TestFetchFailureDegradesToEmpty(t *testing.T) {
	svc := &TaskService{Store: brokenStore{}, Logger: zerolog.Nop(), Now: func() time.Time { return demoNow }}

	tasks, err := svc.FetchAllTasksWithRelationships(context.Background())
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	stats, err := svc.GetDashboardStats(context.Background(), "")
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, DashboardStats{}, stats)
}
