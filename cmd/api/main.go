package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/config"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/summary"
	appHTTP "github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/eventbus"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/repository/postgresql"
	adjustmentService "github.com/cmlabs-hris/timesheet-backend-go/internal/service/adjustment"
	clockImportService "github.com/cmlabs-hris/timesheet-backend-go/internal/service/clockimport"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/service/file"
	geofenceService "github.com/cmlabs-hris/timesheet-backend-go/internal/service/geofence"
	overtimeService "github.com/cmlabs-hris/timesheet-backend-go/internal/service/overtime"
	scheduleService "github.com/cmlabs-hris/timesheet-backend-go/internal/service/schedule"
	summaryService "github.com/cmlabs-hris/timesheet-backend-go/internal/service/summary"
	timeRecordService "github.com/cmlabs-hris/timesheet-backend-go/internal/service/timerecord"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	clk := clock.System()
	policy := cfg.Timekeeping

	txManager := postgresql.NewTxManager(db)
	locker := postgresql.NewAdvisoryLocker(db)

	timeRecordRepo := postgresql.NewTimeRecordRepository(db)
	summaryRepo := postgresql.NewDailySummaryRepository(db)
	overtimeRepo := postgresql.NewOvertimeEntryRepository(db)
	geofenceRepo := postgresql.NewGeofenceRepository(db)
	headquartersRepo := postgresql.NewHeadquartersRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	workScheduleRepo := postgresql.NewWorkScheduleRepository(db)
	adjustmentRepo := postgresql.NewTimeAdjustmentRepository(db)
	directory := postgresql.NewEmployeeDirectory(db)

	var fileStorage storage.FileStorage
	uploadsPath := ""
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(
			cfg.Storage.BasePath,
			cfg.Storage.BaseURL,
		)
		if err != nil {
			log.Fatal("Failed to initialize local storage:", err)
		}
		uploadsPath = cfg.Storage.BasePath
	case "s3":
		fileStorage, err = storage.NewS3Storage(ctx, storage.S3Options{
			Bucket:       cfg.Storage.S3.Bucket,
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.UsePathStyle,
		})
		if err != nil {
			log.Fatal("Failed to initialize s3 storage:", err)
		}
	default:
		log.Fatal("Unsupported storage types: ", cfg.Storage.Type)
	}
	fileService := file.NewFileService(fileStorage)

	hub := sse.NewHub(32)
	publishers := []eventbus.Publisher{
		eventbus.NewLogPublisher(logger),
		eventbus.NewHubPublisher(hub),
	}
	var kafkaPublisher *eventbus.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher = eventbus.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		publishers = append(publishers, kafkaPublisher)
	}
	publisher := eventbus.Multi(publishers...)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	overtimeSvc := overtimeService.NewOvertimeService(
		txManager,
		locker,
		overtimeRepo,
		publisher,
		clk,
		policy.OvertimeExpirationMonths,
		policy.ExpiringSoonHorizonDays,
	)
	summarySvc := summaryService.NewSummaryService(
		txManager,
		locker,
		summaryRepo,
		timeRecordRepo,
		workScheduleRepo,
		holidayRepo,
		overtimeSvc,
		publisher,
		clk,
		summaryService.Settings{
			DefaultExpectedMinutes:  policy.DefaultExpectedMinutes,
			DefaultToleranceMinutes: policy.DefaultToleranceMinutes,
			Night:                   summary.NightWindow{Start: policy.NightShiftStart, End: policy.NightShiftEnd},
		},
	)
	geofenceSvc := geofenceService.NewGeofenceService(geofenceRepo, headquartersRepo, directory, policy.HeadquartersDefaultRadius)
	adjustmentSvc := adjustmentService.NewTimeAdjustmentService(
		txManager,
		locker,
		adjustmentRepo,
		timeRecordRepo,
		summaryRepo,
		summarySvc,
		directory,
		fileService,
		publisher,
		clk,
	)
	timeRecordSvc := timeRecordService.NewTimeRecordService(
		txManager,
		locker,
		timeRecordRepo,
		summaryRepo,
		summarySvc,
		geofenceSvc,
		adjustmentSvc,
		fileService,
		publisher,
		clk,
		policy.GeofenceEnabled,
	)
	clockImportSvc := clockImportService.NewClockImportService(
		txManager,
		locker,
		timeRecordRepo,
		summaryRepo,
		summarySvc,
		directory,
		fileService,
		publisher,
		clk,
	)
	holidaySvc := scheduleService.NewHolidayService(holidayRepo)

	router := appHTTP.NewRouter(cfg.App, JWTService, appHTTP.Handlers{
		TimeRecord:  appHTTP.NewTimeRecordHandler(timeRecordSvc, clk),
		Timesheet:   appHTTP.NewTimesheetHandler(summarySvc, clk),
		Overtime:    appHTTP.NewOvertimeHandler(overtimeSvc, policy.ExpiringSoonHorizonDays),
		Geofence:    appHTTP.NewGeofenceHandler(geofenceSvc),
		Adjustment:  appHTTP.NewAdjustmentHandler(adjustmentSvc),
		ClockImport: appHTTP.NewClockImportHandler(clockImportSvc),
		Holiday:     appHTTP.NewHolidayHandler(holidaySvc, clk),
		Event:       appHTTP.NewEventHandler(hub, JWTService),
	}, uploadsPath)

	scheduler := cron.NewScheduler(clk, logger)
	cron.NewTimesheetJobs(overtimeSvc, summarySvc, adjustmentSvc, clk, policy.SweepHour).RegisterJobs(scheduler)
	scheduler.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	scheduler.Stop()
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			slog.Error("failed to close kafka writer", "error", err)
		}
	}
}
