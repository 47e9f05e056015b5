package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/config"
	"github.com/Dias221467/Prayer_Manager/internal/database"
	"github.com/Dias221467/Prayer_Manager/internal/handlers"
	"github.com/Dias221467/Prayer_Manager/internal/jobs"
	"github.com/Dias221467/Prayer_Manager/internal/push"
	"github.com/Dias221467/Prayer_Manager/internal/realtime"
	"github.com/Dias221467/Prayer_Manager/internal/repository"
	cronjobs "github.com/Dias221467/Prayer_Manager/internal/scheduler"
	"github.com/Dias221467/Prayer_Manager/internal/services"
	"github.com/Dias221467/Prayer_Manager/pkg/logger"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file and environment
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Fatalf("Configuration error: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	// Connect to MongoDB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		logger.Log.Fatalf("Database connection error: %v", err)
	}
	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(indexCtx, db); err != nil {
		logger.Log.Fatalf("Failed to create indexes: %v", err)
	}
	cancel()

	pushService, err := push.NewService(push.Config{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Subscriber:      cfg.VAPIDSubscriber,
		TTL:             cfg.PushTTL,
	})
	if err != nil {
		logger.Log.Fatalf("Push service error: %v", err)
	}
	hub := realtime.NewHub()

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewPrayerGroupRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	requestRepo := repository.NewPrayerRequestRepository(db)
	shareRepo := repository.NewShareRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	tx := repository.NewTransactor(db, cfg.UseTransactions)

	// --- Services ---
	userService := services.NewUserService(userRepo)
	groupService := services.NewGroupService(groupRepo, membershipRepo, tx)
	membershipService := services.NewMembershipService(membershipRepo, groupRepo)
	deviceService := services.NewDeviceService(deviceRepo, pushService, cfg.PushConcurrency, cfg.AppIcon)
	notificationService := services.NewNotificationService(notificationRepo, deviceService, hub)
	fanoutService := services.NewFanoutService(membershipService, userRepo, notificationService)
	fanoutService.SetIncludeAuthor(cfg.NotifyAuthor)
	requestService := services.NewPrayerRequestService(requestRepo, shareRepo, membershipService, fanoutService, tx)
	reminderService := services.NewReminderService(reminderRepo, notificationService)

	// --- Handlers ---
	router := handlers.NewRouter(handlers.Router{
		Users:          handlers.NewUserHandler(userService, cfg),
		Groups:         handlers.NewGroupHandler(groupService, membershipService),
		PrayerRequests: handlers.NewPrayerRequestHandler(requestService),
		Notifications:  handlers.NewNotificationHandler(notificationService),
		Devices:        handlers.NewDeviceHandler(deviceService, pushService.VAPIDPublicKey()),
		Reminders:      handlers.NewReminderHandler(reminderService),
		Stream:         handlers.NewNotificationStreamHandler(hub, cfg.JWTSecret, cfg.AllowedOrigins),
	}, cfg.JWTSecret)

	// --- Background jobs ---
	notifier := jobs.NewReminderNotifier(reminderService, notificationService)
	scheduler, err := cronjobs.StartNotificationCronJobs(notifier)
	if err != nil {
		logger.Log.Fatalf("Failed to start cron jobs: %v", err)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down")

	<-scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := database.Disconnect(ctx, db); err != nil {
		logger.Log.WithError(err).Error("MongoDB disconnect failed")
	}
}
