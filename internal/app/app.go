package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/servicer-desk/backend/internal/cache"
	"github.com/servicer-desk/backend/internal/config"
	"github.com/servicer-desk/backend/internal/db"
	"github.com/servicer-desk/backend/internal/demo"
	"github.com/servicer-desk/backend/internal/service"
)

// App holds the store and the services built on it.
type App struct {
	Store     service.Store
	Tasks     *service.TaskService
	Reports   *service.ReportService
	Mutations *service.MutationService
	Demo      bool

	closeStore func()
}

// New connects to the configured store, or loads the bundled sample data
// when the store settings are incomplete.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Demo: cfg.DemoMode(), closeStore: func() {}}
	loc := cfg.Location()

	if a.Demo {
		store, err := demo.Load(time.Now(), loc)
		if err != nil {
			return nil, err
		}
		logger.Warn().Msg("store not configured, serving read-only sample data")
		a.Store = store
	} else {
		store, err := db.New(ctx, cfg.StoreURL, cfg.StoreKey)
		if err != nil {
			return nil, err
		}
		a.Store = store
		a.closeStore = store.Close
	}

	policy := service.StalenessPolicy{NeedsUpdateDays: cfg.NeedsUpdateDays, OverdueDays: cfg.OverdueDays}
	a.Tasks = &service.TaskService{
		Store:      a.Store,
		Servicers:  cache.NewServicerCache(cfg.ServicerCacheSize, cfg.ServicerCacheTTL),
		Logger:     logger.With().Str("component", "tasks").Logger(),
		Policy:     policy,
		UrgentDays: cfg.UrgentDays,
	}
	a.Reports = &service.ReportService{
		Store:  a.Store,
		Logger: logger.With().Str("component", "reports").Logger(),
		Loc:    loc,
	}
	a.Mutations = &service.MutationService{
		Store:     a.Store,
		Coalescer: service.NewCoalescer(cfg.WriteDebounce),
		Guard:     &service.SubmitGuard{},
		Logger:    logger.With().Str("component", "mutations").Logger(),
		Loc:       loc,
	}
	return a, nil
}

// Close runs any debounced writes still pending, then releases the store.
func (a *App) Close() {
	a.Mutations.Coalescer.Flush()
	a.closeStore()
}
