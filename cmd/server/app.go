package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/phrazzld/taskman-api/internal/events"
	"github.com/phrazzld/taskman-api/internal/platform/dynamo"
	"github.com/phrazzld/taskman-api/internal/platform/postgres"
	"github.com/phrazzld/taskman-api/internal/platform/s3blob"
	"github.com/phrazzld/taskman-api/internal/platform/snsevents"
	"github.com/phrazzld/taskman-api/internal/service"
	"github.com/phrazzld/taskman-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	fastStore       store.TaskStore
	relationalStore store.TaskStore

	// Service interfaces
	attachmentStore service.AttachmentStore
	publisher       events.Publisher
	taskService     service.TaskService
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	clients, err := setupAWSClients(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AWS clients: %w", err)
	}
	logger.Info("AWS clients initialized", "region", cfg.AWS.Region)

	// Initialize stores
	app.fastStore = dynamo.NewDynamoTaskStore(clients.dynamo, cfg.Dynamo.Table)
	app.relationalStore = postgres.NewPostgresTaskStore(db)
	app.attachmentStore = s3blob.NewAttachmentStore(clients.s3, cfg.S3.Bucket, cfg.AWS.Region)
	app.publisher = snsevents.NewPublisher(clients.sns, cfg.SNS.TopicARN)

	// Initialize the task coordinator
	app.taskService, err = service.NewTaskService(
		app.fastStore,
		app.relationalStore,
		app.attachmentStore,
		app.publisher,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
