package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ccnuzw/task-dispatch/internal/config"
	"github.com/ccnuzw/task-dispatch/internal/database"
	"github.com/ccnuzw/task-dispatch/internal/handlers"
	"github.com/ccnuzw/task-dispatch/internal/repository"
	"github.com/ccnuzw/task-dispatch/internal/scheduler"
	"github.com/ccnuzw/task-dispatch/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Structured logging for the scheduler and services
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.GinMode != "release" {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// Initialize repositories
	db := database.GetDB()
	templateRepo := repository.NewTemplateRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	pointRepo := repository.NewCollectionPointRepository(db)

	// Initialize services
	templateService := services.NewTemplateService(templateRepo)
	assignmentService := services.NewAssignmentService(orgRepo, pointRepo)
	distService := services.NewDistributionService(templateRepo, taskRepo, pointRepo, assignmentService)

	// Start the template scheduler
	sched, err := scheduler.New(templateRepo, distService, cfg.SchedulerTick, cfg.SchedulerWorkers, cfg.TemplateTimeout)
	if err != nil {
		log.Fatalf("Invalid scheduler tick %q: %v", cfg.SchedulerTick, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sched.Start(ctx)

	// Initialize handlers
	templateHandler := handlers.NewTemplateHandler(templateService, distService)
	taskHandler := handlers.NewTaskHandler(distService)
	pointHandler := handlers.NewPointHandler(pointRepo)

	// Initialize Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Task dispatch engine is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		templates := api.Group("/templates")
		{
			templates.GET("", templateHandler.ListTemplates)
			templates.POST("", templateHandler.CreateTemplate)
			templates.GET("/:id", templateHandler.GetTemplate)
			templates.PUT("/:id", templateHandler.UpdateTemplate)
			templates.DELETE("/:id", templateHandler.DeleteTemplate)
			templates.POST("/:id/activate", templateHandler.ActivateTemplate)
			templates.POST("/:id/deactivate", templateHandler.DeactivateTemplate)
			templates.GET("/:id/preview", templateHandler.PreviewDistribution)
			templates.POST("/:id/execute", templateHandler.ExecuteDistribution)
		}

		api.GET("/tasks", taskHandler.ListTasks)
		api.GET("/points", pointHandler.ListPoints)
	}

	// Start server
	log.Printf("Server starting on %s", cfg.ServerAddr)
	if err := r.Run(cfg.ServerAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
