package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"barberbot/config"
	"barberbot/cron"
	"barberbot/database"
	recordsRepo "barberbot/database/repository/records"
	"barberbot/handlers"
	"barberbot/middleware"
	"barberbot/routes"
	"barberbot/services/availability"
	"barberbot/services/booking"
	"barberbot/services/calendar"
	"barberbot/services/conversation"
	"barberbot/services/datetime"
	ai "barberbot/services/intelligence"
	"barberbot/services/messenger"
	"barberbot/services/records"
	"barberbot/services/schedule"
	"barberbot/services/tasks"
	"barberbot/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Messenger webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync() //nolint:errcheck
	loc := config.Location()

	sheetsSvc, err := utils.SheetsService(ctx)
	if err != nil {
		return err
	}
	calendarSvc, err := utils.CalendarService(ctx)
	if err != nil {
		return err
	}
	model, err := ai.NewChatModel(ctx, cfg)
	if err != nil {
		return err
	}

	sheetSchedule := schedule.NewSheetSchedule(sheetsSvc, cfg.GoogleSheetID, cfg.ServicesRange, cfg.BarbersRange)
	messengerClient := messenger.NewClient(cfg.GraphAPIURL, cfg.PageAccessToken)
	store := newConversationStore(ctx, cfg)
	checks := map[string]utils.HealthCheck{}
	if cfg.StoreBackend == "redis" {
		checks["redis"] = utils.RedisCheck(utils.GetConversationCacheClient())
	}

	targets := []records.Named{{
		Name:     "sheets",
		Recorder: records.NewSheetRecorder(sheetsSvc, cfg.GoogleSheetID, cfg.ClientsRange, cfg.HistoryRange),
	}}
	if cfg.DatabaseURL != "" {
		db, err := database.InitDB(ctx)
		if err != nil {
			logger.Warn("MongoDB records disabled", zap.Error(err))
		} else {
			defer database.CloseDB(context.Background()) //nolint:errcheck
			checks["mongo"] = utils.MongoCheck(database.MongoClient)
			if err := recordsRepo.EnsureIndexes(ctx, db); err != nil {
				logger.Warn("Failed to ensure record indexes", zap.Error(err))
			}
			targets = append(targets, records.Named{
				Name:     "mongo",
				Recorder: records.NewMongoRecorder(recordsRepo.NewMongoRecordRepo(db)),
			})
		}
	}

	var reminders booking.Reminders
	if cfg.RemindersEnabled {
		client := cron.NewReminderClient()
		defer client.Close()
		worker := cron.InitReminderWorker(ctx, messengerClient)
		defer worker.Shutdown()
		reminders = tasks.NewReminderScheduler(client, cfg.ReminderLead)
	}

	assistant := booking.NewAssistant(booking.Dependencies{
		Store:        store,
		Resolver:     datetime.NewResolver(loc, datetime.WithDefaultHour(cfg.DefaultHour)),
		Availability: availability.NewEvaluator(sheetSchedule, loc),
		Prompts:      ai.NewPromptBuilder(sheetSchedule, loc),
		Model:        model,
		Calendar:     calendar.NewGoogleCalendar(calendarSvc, cfg.GoogleCalendarID, loc),
		Messenger:    messengerClient,
		Recorder:     records.NewFanOut(targets...),
		FunFacts:     ai.NewModelFunFacts(model, nil),
		Reminders:    reminders,
	}, booking.Settings{
		Location:            loc,
		AffirmativeTokens:   cfg.AffirmativeTokens,
		PendingTTL:          cfg.PendingTTL,
		MaxTurns:            cfg.MaxTurns,
		UnparsedDatePolicy:  cfg.UnparsedDatePolicy,
		FallbackHour:        cfg.FallbackHour,
		CollaboratorTimeout: cfg.CollaboratorTimeout,
	})

	utils.StartHealthMonitor(ctx, time.Minute, checks)

	ipLimiter := middleware.NewKeyedLimiter(cfg.MaxRequestsPerMin, cfg.MaxRequestsPerMin)
	senderLimiter := middleware.NewKeyedLimiter(cfg.MaxMessagesPerMin, cfg.MaxMessagesPerMin)
	go forgetIdleLimiters(ctx, ipLimiter, senderLimiter)

	webhook := handlers.NewWebhookHandler(assistant, senderLimiter, cfg.VerifyToken, cfg.RequestDeadline)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(handlers.RequestLogger())
	router.Use(middleware.RateLimitMiddleware(ipLimiter))

	routes.RegisterRoutes(router, &handlers.HandlerBundle{
		VerifyWebhook:     webhook.VerifyWebhook,
		ReceiveWebhook:    webhook.ReceiveWebhook,
		WebhookMiddleware: []gin.HandlerFunc{middleware.VerifyMessengerSignature(cfg.AppSecret)},
		Health:            handlers.HealthHandler,
	})

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("Server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestDeadline+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	webhook.Wait()
	assistant.Wait()
	logger.Info("Server stopped gracefully")
	return nil
}

func newConversationStore(ctx context.Context, cfg config.Config) conversation.Store {
	if cfg.StoreBackend == "redis" {
		return conversation.NewRedisStore(utils.GetConversationCacheClient(), cfg.ConversationTTL)
	}
	store := conversation.NewMemoryStore(cfg.ConversationTTL)
	go store.RunJanitor(ctx, time.Minute)
	return store
}

func forgetIdleLimiters(ctx context.Context, limiters ...*middleware.KeyedLimiter) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, l := range limiters {
				l.Forget(30 * time.Minute)
			}
		}
	}
}
