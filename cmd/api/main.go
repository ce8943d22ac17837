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
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revu-go-api/internal/config"
	"github.com/noah-isme/revu-go-api/internal/database"
	"github.com/noah-isme/revu-go-api/internal/handler"
	"github.com/noah-isme/revu-go-api/internal/middleware"
	"github.com/noah-isme/revu-go-api/internal/models"
	"github.com/noah-isme/revu-go-api/internal/repository"
	"github.com/noah-isme/revu-go-api/internal/router"
	"github.com/noah-isme/revu-go-api/internal/service"
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
		&models.User{},
		&models.Employee{},
		&models.FieldDefinition{},
		&models.FormTemplate{},
		&models.FormTemplateField{},
		&models.ReviewCycle{},
		&models.ReviewAssignment{},
		&models.Evaluation{},
		&models.EvaluationResponse{},
		&models.IdempotencyKey{},
		&models.AuditEvent{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis and NATS are optional: schema caching and audit publishing
	// degrade to direct DB reads / local-only audit when absent.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	cycleRepo := repository.NewCycleRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	formRepo := repository.NewFormRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo, natsConn, logger)
	schemaService := service.NewFormSchemaService(formRepo, redisClient, cfg.FormSchemaCacheTTL, logger)
	idempotencyService := service.NewIdempotencyService(idempotencyRepo, cfg.IdempotencyRetention, logger)

	userService := service.NewUserService(userRepo)
	employeeService := service.NewEmployeeService(employeeRepo, logger)
	cycleService := service.NewCycleService(db, cycleRepo, formRepo, auditService, logger)
	assignmentService := service.NewAssignmentService(db, assignmentRepo, cycleRepo, employeeRepo, auditService, logger)
	formService := service.NewFormService(db, formRepo, schemaService, auditService, logger)
	evaluationService := service.NewEvaluationService(db, evaluationRepo, cycleRepo, assignmentRepo, employeeRepo, schemaService, idempotencyService, auditService, logger)

	userHandler := handler.NewUserHandler(userService, logger)
	cycleHandler := handler.NewCycleHandler(cycleService, validate, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, validate, logger)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, validate, logger)
	employeeHandler := handler.NewEmployeeHandler(employeeService, logger)
	formHandler := handler.NewFormHandler(formService, validate, logger)
	auditHandler := handler.NewAuditHandler(auditService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		UserHandler:       userHandler,
		CycleHandler:      cycleHandler,
		AssignmentHandler: assignmentHandler,
		EvaluationHandler: evaluationHandler,
		EmployeeHandler:   employeeHandler,
		FormHandler:       formHandler,
		AuditHandler:      auditHandler,
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
