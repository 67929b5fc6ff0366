package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"crop-monitor-service/internal/ai"
	"crop-monitor-service/internal/config"
	"crop-monitor-service/internal/database/minio"
	"crop-monitor-service/internal/database/postgres"
	credis "crop-monitor-service/internal/database/redis"
	"crop-monitor-service/internal/handlers"
	"crop-monitor-service/internal/repository"
	"crop-monitor-service/internal/services"
	"crop-monitor-service/internal/weather"
	"crop-monitor-service/internal/worker"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

func setupLogging() (*os.File, error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic: %v\n", r)
		}
	}()

	logDir := filepath.Join("/crop-monitor", "log")
	err := os.MkdirAll(logDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		// Keep stderr logging when the log directory is unavailable.
		log.Printf("file logging disabled: %v", err)
	} else {
		defer logFile.Close()
	}

	cfg := config.New()

	log.Printf("Connecting to PostgreSQL with: host=%s, port=%s, user=%s, dbname=%s",
		cfg.PostgresCfg.Host, cfg.PostgresCfg.Port, cfg.PostgresCfg.Username, cfg.PostgresCfg.DBname)
	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		log.Fatalf("error connecting to database: %s", err)
	}
	defer db.Close()

	imageStore, err := minio.NewImageStore(cfg.MinioCfg)
	if err != nil {
		log.Fatalf("error connecting to MinIO: %s", err)
	}

	var weatherCache *redis.Client
	redisClient, err := credis.NewClient(cfg.RedisCfg)
	if err != nil {
		log.Printf("redis unavailable, running without weather cache: %v", err)
	} else {
		defer redisClient.Close()
		weatherCache = redisClient.GetClient()
	}

	weatherService := weather.NewService(weather.NewOpenWeatherMap(cfg.WeatherCfg), weatherCache, cfg.WeatherCfg)

	var classifier ai.Classifier
	if cfg.ClassifierCfg.Endpoint == "" {
		log.Printf("MODEL_ENDPOINT not set, using the built-in mock classifier")
		classifier = ai.NewMock()
	} else {
		classifier = ai.NewHTTPClassifier(cfg.ClassifierCfg.Endpoint)
	}

	scaler, err := ai.LoadScaler(cfg.ClassifierCfg.ScalerPath)
	if err != nil {
		log.Printf("scaler params not loaded (%v), features pass through unscaled", err)
		scaler = ai.IdentityScaler()
	}

	// repositories
	configRepo := repository.NewFarmConfigRepository(db)
	sensorRepo := repository.NewSensorRepository(db)
	readingRepo := repository.NewReadingRepository(db)
	imageRepo := repository.NewImageRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	txRunner := repository.NewTxRunner(db)

	// services
	alertEngine := services.NewAlertEngine(cfg.AlertCfg, cfg.ClassifierCfg.CriticalConfidence)
	configService := services.NewConfigService(configRepo, sensorRepo, weatherService)
	sensorService := services.NewSensorService(sensorRepo, configRepo)
	ingestionService := services.NewIngestionService(
		sensorRepo, configRepo, readingRepo, imageRepo, analysisRepo, alertRepo,
		txRunner, alertEngine, weatherService, classifier, scaler, imageStore)
	analysisService := services.NewAnalysisService(imageRepo, analysisRepo, imageStore, classifier, db)
	dashboardService := services.NewDashboardService(configRepo, sensorRepo, imageRepo, analysisRepo, alertRepo, imageStore)
	heartbeatService := services.NewHeartbeatService(sensorRepo, cfg.HeartbeatCfg.OfflineThreshold)

	// background heartbeat sweeper
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var poolWg sync.WaitGroup
	pool := worker.NewWorkingPool(2, 16)
	poolWg.Add(1)
	go pool.Start(rootCtx, &poolWg)

	scheduler := worker.NewJobScheduler("heartbeat", cfg.HeartbeatCfg.Interval, pool)
	scheduler.AddJob(heartbeatService.Job())
	go scheduler.Run(rootCtx)

	app := fiber.New()
	app.Get("/api/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Crop monitor service is healthy")
	})

	handlers.NewConfigHandler(configService).Register(app)
	handlers.NewSensorHandler(sensorService, ingestionService).Register(app)
	handlers.NewDroneHandler(ingestionService, imageRepo).Register(app)
	handlers.NewAnalysisHandler(analysisService, dashboardService).Register(app)
	handlers.NewAlertHandler(alertRepo).Register(app)
	handlers.NewDashboardHandler(dashboardService).Register(app)

	go func() {
		log.Printf("Starting crop-monitor-service on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("server stopped: %v", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Println("Shutdown signal received")

	poolWg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	log.Println("Crop monitor service stopped")
}
