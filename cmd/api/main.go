package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/elise-dlc/evalio-api/internal/config"
	"github.com/elise-dlc/evalio-api/internal/database"
	"github.com/elise-dlc/evalio-api/internal/handler"
	"github.com/elise-dlc/evalio-api/internal/middleware"
	"github.com/elise-dlc/evalio-api/internal/models"
	"github.com/elise-dlc/evalio-api/internal/repository"
	"github.com/elise-dlc/evalio-api/internal/router"
	"github.com/elise-dlc/evalio-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Promotion{},
		&models.Group{},
		&models.SubGroup{},
		&models.Student{},
		&models.Form{},
		&models.Section{},
		&models.Line{},
		&models.Evaluation{},
		&models.Score{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	promotionRepo := repository.NewPromotionRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	subGroupRepo := repository.NewSubGroupRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	formRepo := repository.NewFormRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)

	publisher := service.NewEventPublisher(natsConn, logger)
	rosterService := service.NewRosterService(studentRepo, groupRepo, subGroupRepo, promotionRepo, logger)
	promotionService := service.NewPromotionService(promotionRepo, validate, logger)
	groupService := service.NewGroupService(groupRepo, promotionRepo, validate, logger)
	subGroupService := service.NewSubGroupService(subGroupRepo, groupRepo, studentRepo, validate, logger)
	studentService := service.NewStudentService(studentRepo, promotionRepo, groupRepo, validate, logger)
	formService := service.NewFormService(formRepo, rosterService, studentRepo, groupRepo, subGroupRepo, validate, logger)
	statsService := service.NewStatsService(formRepo, evaluationRepo, studentRepo, promotionRepo, groupRepo, subGroupRepo, redisClient, cfg.StatsCacheTTL, logger)
	evaluationService := service.NewEvaluationService(evaluationRepo, formRepo, studentRepo, rosterService, publisher, statsService, validate, logger)
	exportService := service.NewExportService(formRepo, evaluationRepo, logger)

	promotionHandler := handler.NewPromotionHandler(promotionService, logger)
	groupHandler := handler.NewGroupHandler(groupService, logger)
	subGroupHandler := handler.NewSubGroupHandler(subGroupService, logger)
	studentHandler := handler.NewStudentHandler(studentService, logger)
	formHandler := handler.NewFormHandler(formService, statsService, exportService, evaluationService, logger)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, logger)
	statsHandler := handler.NewStatsHandler(statsService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		PromotionHandler:  promotionHandler,
		GroupHandler:      groupHandler,
		SubGroupHandler:   subGroupHandler,
		StudentHandler:    studentHandler,
		FormHandler:       formHandler,
		EvaluationHandler: evaluationHandler,
		StatsHandler:      statsHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
