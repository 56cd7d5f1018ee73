// File: campusbook/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusbook/config"
	"campusbook/cron"
	"campusbook/handlers"
	"campusbook/middleware"
	"campusbook/routes"
	"campusbook/services/api"
	"campusbook/services/booking"
	"campusbook/services/notification"
	"campusbook/services/resource"
	"campusbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	// backend client.
	backend := api.NewClient(config.AppConfig.APIBaseURL, config.APITimeout())

	// resource directory behind the redis cache.
	directory := resource.NewDirectory(
		backend,
		resource.RedisCache{Client: utils.GetCacheClient()},
		utils.ResourceCacheTTL(),
	)

	// notifications.
	direct := notification.NewDirectNotifier(backend, config.APITimeout())
	var notifier booking.Notifier = direct
	var worker *asynq.Server
	var queue *asynq.Client
	if config.AppConfig.NotifyMode == "queue" {
		queue = asynq.NewClient(cron.QueueRedisOpt())
		notifier = &notification.QueueNotifier{Queue: queue, Fallback: direct}
		worker = cron.InitNotificationWorker(backend, config.AppConfig.NotifyServiceToken)
	}

	// booking window workflow.
	clock := utils.RealClock{}
	validator := booking.NewValidator(booking.WindowRules{
		StartGrace:     time.Duration(config.AppConfig.StartGraceSeconds) * time.Second,
		MaxMonthsAhead: config.AppConfig.MaxMonthsAhead,
	}, config.Location(), clock)

	registry := booking.NewRegistry(booking.Deps{
		Validator:    validator,
		Availability: backend,
		Submitter:    backend,
		Notifier:     notifier,
		Clock:        clock,
		Logger:       logger,
	}, time.Duration(config.AppConfig.DraftIdleMinutes)*time.Minute)
	if config.AppConfig.MaxDraftsPerUser > 0 {
		registry.MaxDraftsPerUser = config.AppConfig.MaxDraftsPerUser
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	registry.StartJanitor(ctx, time.Minute)

	bookingHandler := handlers.NewBookingHandler(registry, directory, int64(config.AppConfig.MaxDocumentMB)<<20)
	resourceHandler := handlers.NewResourceHandler(directory)

	handlerBundle := &handlers.HandlerBundle{
		ListResourcesHandler: resourceHandler.ListResources,
		GetResourceHandler:   resourceHandler.GetResource,

		OpenDraft:      bookingHandler.OpenDraft,
		GetDraft:       bookingHandler.GetDraft,
		EditDraft:      bookingHandler.EditDraft,
		RecheckDraft:   bookingHandler.RecheckDraft,
		AttachDocument: bookingHandler.AttachDocument,
		RemoveDocument: bookingHandler.RemoveDocument,
		SubmitDraft:    bookingHandler.SubmitDraft,
		DiscardDraft:   bookingHandler.DiscardDraft,

		Auth: middleware.AuthMiddleware(),
	}

	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting booking desk on %s (backend %s)...", srv.Addr, config.AppConfig.APIBaseURL)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if worker != nil {
		worker.Shutdown()
	}
	if queue != nil {
		_ = queue.Close()
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
