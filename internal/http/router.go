package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/servicer-desk/backend/internal/config"
	"github.com/servicer-desk/backend/internal/http/handlers"
	"github.com/servicer-desk/backend/internal/http/middleware"
	"github.com/servicer-desk/backend/internal/service"

	_ "github.com/servicer-desk/backend/docs"
)

func Router(cfg config.Config, store service.Store, tasks *service.TaskService, reports *service.ReportService, mutations *service.MutationService, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	demo := cfg.DemoMode()
	h := &handlers.Handler{
		Store:     store,
		Tasks:     tasks,
		Reports:   reports,
		Mutations: mutations,
		Validator: validator.New(),
		Logger:    logger,
		Demo:      demo,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/mode", h.Mode)
		api.GET("/vocabularies", h.Vocabularies)
		api.GET("/servicers", h.ServicersList)
		api.GET("/dashboard", h.Dashboard)
		api.GET("/tasks", h.TasksList)
		api.GET("/tasks/stale", h.StaleTasks)
		api.GET("/up-next", h.UpNext)
		api.GET("/customers", h.CustomersList)
		api.GET("/customers/:phone", h.CustomerDetail)
		api.GET("/updates", h.UpdatesList)
		api.GET("/reports/daily", h.DailyReport)
		api.GET("/ops/metrics", h.Metrics)
	}

	writes := api.Group("")
	writes.Use(middleware.ReadOnly(demo))
	{
		writes.PATCH("/tasks/:id/status", h.UpdateTaskStatus)
		writes.POST("/tasks/:id/toggle-complete", h.ToggleTaskComplete)
		writes.PATCH("/tasks/:id/notes", h.UpdateTaskNotes)
		writes.PATCH("/tasks/:id/completed-at", h.UpdateTaskCompletedAt)
		writes.PATCH("/tasks/:id/last-updated", h.TouchTask)
		writes.PATCH("/sub-categories/:id/money-saved", h.UpdateMoneySaved)
		writes.PATCH("/sub-categories/:id/status", h.UpdateSubCategoryStatus)
		writes.DELETE("/sub-categories/:id", h.DeleteSubCategory)
		writes.PUT("/bundles/:group/savings", h.SetBundleSavings)
		writes.POST("/customers/:phone/sub-categories", h.CreateSubCategory)
		writes.PATCH("/customers/:phone/notes", h.UpdateCustomerNotes)
		writes.PATCH("/customers/:phone/description", h.UpdateCustomerDescription)
		writes.POST("/customers/:phone/flags", h.ToggleCustomerFlag)
		writes.POST("/customers/:phone/communications", h.LogCommunication)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
