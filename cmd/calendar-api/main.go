package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campuskit/calendar-api/api/swagger"
	"github.com/campuskit/calendar-api/internal/handler"
	"github.com/campuskit/calendar-api/internal/middleware"
	"github.com/campuskit/calendar-api/internal/repository"
	"github.com/campuskit/calendar-api/internal/service"
	"github.com/campuskit/calendar-api/pkg/cache"
	"github.com/campuskit/calendar-api/pkg/config"
	"github.com/campuskit/calendar-api/pkg/database"
	"github.com/campuskit/calendar-api/pkg/logger"
	corsmiddleware "github.com/campuskit/calendar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuskit/calendar-api/pkg/middleware/requestid"
)

// @title CampusKit Calendar API
// @version 1.0.0
// @description Academic calendar, holiday and reporting service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, response cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()

	holidayRepo := repository.NewHolidayRepository(db)
	eventRepo := repository.NewEventRepository(db)
	termRepo := repository.NewTermRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()
	holidaySvc := service.NewHolidayService(holidayRepo, cacheRepo, validate, logr)
	eventSvc := service.NewEventService(eventRepo, cacheRepo, validate, logr)
	reportSvc := service.NewReportService(eventSvc, holidaySvc, termRepo, userRepo, logr)

	holidayHandler := handler.NewHolidayHandler(holidaySvc)
	eventHandler := handler.NewEventHandler(eventSvc, metricsSvc)
	reportHandler := handler.NewReportHandler(reportSvc, metricsSvc, cfg.Exports.Enabled)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Actor())
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsSvc))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	listCache := func() gin.HandlerFunc {
		if cfg.Cache.Enabled {
			return middleware.ResponseCache(cacheRepo, metricsSvc, cfg.Cache.TTL)
		}
		return func(c *gin.Context) { c.Next() }
	}()

	api := r.Group(cfg.APIPrefix)
	{
		holidays := api.Group("/holidays")
		{
			holidays.POST("", holidayHandler.Create)
			holidays.GET("", listCache, holidayHandler.List)
			holidays.GET("/check", holidayHandler.Check)
			holidays.GET("/range", listCache, holidayHandler.Range)
			holidays.GET("/:id", holidayHandler.Get)
			holidays.PATCH("/:id", holidayHandler.Update)
			holidays.DELETE("/:id", holidayHandler.Delete)
		}

		events := api.Group("/events")
		{
			events.POST("", eventHandler.Create)
			events.GET("", listCache, eventHandler.List)
			events.POST("/check-conflicts", eventHandler.CheckConflicts)
			events.GET("/range", listCache, eventHandler.Range)
			events.GET("/:id", eventHandler.Get)
			events.PATCH("/:id", eventHandler.Update)
			events.DELETE("/:id", eventHandler.Delete)
		}

		reports := api.Group("/reports/calendar")
		{
			reports.GET("/monthly", reportHandler.Monthly)
			reports.GET("/terms/:id", reportHandler.Term)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
