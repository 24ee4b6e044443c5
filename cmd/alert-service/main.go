package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/alert"
	"github.com/sperezintexas/fintech-app-sub006/internal/alert/channel"
	alertdelivery "github.com/sperezintexas/fintech-app-sub006/internal/alert/delivery/http"
	"github.com/sperezintexas/fintech-app-sub006/internal/config"
	"github.com/sperezintexas/fintech-app-sub006/internal/repository"
	"github.com/sperezintexas/fintech-app-sub006/internal/scanner"
	schedulerdelivery "github.com/sperezintexas/fintech-app-sub006/internal/scheduler/delivery/http"
	schedulerrepo "github.com/sperezintexas/fintech-app-sub006/internal/scheduler/repository"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/service"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/strategy"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"
	"github.com/sperezintexas/fintech-app-sub006/pkg/postgres"
	"github.com/sperezintexas/fintech-app-sub006/pkg/redis"
	"github.com/sperezintexas/fintech-app-sub006/pkg/telegram"
	"github.com/sperezintexas/fintech-app-sub006/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the alert service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Alert Service",
		logger.Field("name", cfg.App.Name),
		logger.Field("master", cfg.Scheduler.Master))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Initialize repositories
	jobRepo := schedulerrepo.NewJobRepository(db.DB)
	scheduleRepo := schedulerrepo.NewTaskScheduleRepository(db.DB)
	historyRepo := schedulerrepo.NewTaskExecutionHistoryRepository(db.DB)
	recRepo := repository.NewRecommendationRepository(db.DB)
	alertRepo := repository.NewAlertRepository(db.DB)
	prefsRepo := repository.NewAlertPreferencesRepository(db.DB)
	positionRepo := repository.NewPositionRepository(db.DB)
	watchlistRepo := repository.NewWatchlistRepository(db.DB)
	pushSubsRepo := repository.NewPushSubscriptionRepository(db.DB)

	marketDataCfg := repository.MarketDataConfig{
		BaseURL:     cfg.MarketData.BaseURL,
		APIKey:      cfg.MarketData.APIKey,
		Timeout:     parseDuration(appLogger, cfg.MarketData.Timeout, 10*time.Second),
		CacheTTL:    parseDuration(appLogger, cfg.MarketData.CacheTTL, 5*time.Minute),
		MaxAttempts: cfg.MarketData.MaxAttempts,
	}
	for _, s := range cfg.MarketData.BackoffSeconds {
		marketDataCfg.Backoff = append(marketDataCfg.Backoff, time.Duration(s)*time.Second)
	}
	marketData := repository.NewMarketDataRepository(marketDataCfg, redisClient, appLogger)

	// Alert engine
	dedupWindow := parseDuration(appLogger, cfg.Alerts.DedupWindow, 15*time.Minute)
	generator := alert.NewGenerator(appLogger, alertRepo, watchlistRepo, dedupWindow)
	templates := alert.NewTemplateRegistry()

	var tgNotifier telegram.Notifier
	if cfg.Alerts.Telegram.BotToken != "" {
		tgNotifier, err = telegram.NewClient(cfg.Alerts.Telegram.BotToken, cfg.Alerts.Telegram.DefaultChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram client", logger.ErrorField(err))
		}
	}
	notifiers := []channel.Notifier{
		channel.NewWebhookNotifier(appLogger),
		channel.NewTelegramNotifier(tgNotifier),
		channel.NewSocialNotifier(appLogger, channel.SocialConfig{
			BaseURL:     cfg.Alerts.Social.BaseURL,
			BearerToken: cfg.Alerts.Social.BearerToken,
			PostsPerMin: cfg.Alerts.Social.PostsPerMin,
			Timeout:     parseDuration(appLogger, cfg.Alerts.Social.Timeout, 10*time.Second),
		}),
		channel.NewPushNotifier(appLogger, pushSubsRepo),
		channel.NewSMSNotifier(),
	}
	deliverer := alert.NewDeliverer(appLogger, prefsRepo, alertRepo, notifiers, templates)
	alertSvc := alert.NewService(appLogger, alertRepo, prefsRepo)

	// Scanner
	analyzers := []scanner.Analyzer{
		scanner.NewOptionScannerAnalyzer(appLogger, positionRepo, marketData),
		scanner.NewCoveredCallAnalyzer(appLogger, positionRepo, marketData),
		scanner.NewProtectivePutAnalyzer(appLogger, positionRepo, marketData),
		scanner.NewStraddleStrangleAnalyzer(appLogger, positionRepo, marketData),
	}
	unifiedScanner := scanner.NewScanner(appLogger, analyzers, recRepo, prefsRepo, generator)

	// Scheduler
	strategies := []strategy.JobExecutionStrategy{
		strategy.NewUnifiedScannerStrategy(appLogger, unifiedScanner),
		strategy.NewAlertDeliveryStrategy(appLogger, deliverer),
		strategy.NewRefreshPricesStrategy(appLogger, positionRepo, watchlistRepo, marketData),
		strategy.NewDailyDigestStrategy(appLogger, deliverer),
		strategy.NewRetentionCleanupStrategy(appLogger, recRepo, alertRepo),
		strategy.NewHTTPStrategy(appLogger),
	}
	locker := service.NewRedisLocker(redisClient)
	schedulerCfg := service.Config{
		PollingInterval: parseDuration(appLogger, cfg.Scheduler.PollingInterval, 10*time.Second),
		Master:          cfg.Scheduler.Master,
		DisableJobs:     cfg.Scheduler.DisableJobs,
		DefaultTimeout:  parseDuration(appLogger, cfg.Scheduler.DefaultTimeout, 5*time.Minute),
		LeaseGrace:      parseDuration(appLogger, cfg.Scheduler.LeaseGrace, 30*time.Second),
	}
	scheduler := service.NewScheduler(appLogger, schedulerCfg, jobRepo, scheduleRepo, historyRepo, locker, strategies)
	jobSvc := service.NewJobService(appLogger, jobRepo, scheduleRepo, historyRepo)
	scheduleSvc := service.NewScheduleService(scheduleRepo)
	historySvc := service.NewExecutionHistoryService(historyRepo)

	utils.GoSafe(func() { scheduler.Start(ctx) })

	// HTTP server
	e := echo.New()
	e.HideBanner = true

	apiV1 := e.Group("/api/v1")

	jobHandler := schedulerdelivery.NewJobHandler(jobSvc, appLogger)
	jobHandler.RegisterRoutes(apiV1.Group("/jobs"))

	scheduleHandler := schedulerdelivery.NewScheduleHandler(scheduleSvc, appLogger)
	scheduleHandler.RegisterRoutes(apiV1.Group("/schedules"))

	historyHandler := schedulerdelivery.NewExecutionHistoryHandler(historySvc, appLogger)
	historyHandler.RegisterRoutes(apiV1.Group("/executions"))

	triggerHandler := schedulerdelivery.NewTriggerHandler(scheduler, jobSvc, schedulerdelivery.TriggerConfig{
		Token:   cfg.Trigger.Token,
		Timeout: parseDuration(appLogger, cfg.Trigger.Timeout, 10*time.Minute),
	}, appLogger)
	triggerHandler.RegisterRoutes(apiV1.Group("/trigger"))

	alertHandler := alertdelivery.NewAlertHandler(alertSvc, appLogger)
	alertHandler.RegisterRoutes(apiV1.Group("/alerts"))

	prefsHandler := alertdelivery.NewPreferencesHandler(alertSvc, appLogger)
	prefsHandler.RegisterRoutes(apiV1.Group("/preferences"))

	utils.GoSafe(func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	})

	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// parseDuration falls back to a default for unset values and refuses to
// start on malformed ones.
func parseDuration(log *logger.Logger, value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatal("Invalid duration in configuration", logger.ErrorField(err), logger.StringField("value", value))
	}
	return d
}

func main() {
	rootCmd := &cobra.Command{Use: "alert-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing alert-service CLI: %s\n", err)
		os.Exit(1)
	}
}
