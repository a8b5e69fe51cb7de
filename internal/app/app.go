// Package app wires the vote orchestrator together and owns its lifecycle.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alimgiray/gitlucky/internal/handlers"
	"github.com/alimgiray/gitlucky/internal/middleware"
	"github.com/alimgiray/gitlucky/internal/repositories"
	"github.com/alimgiray/gitlucky/internal/services"
	"github.com/alimgiray/gitlucky/internal/workers"
	"github.com/alimgiray/gitlucky/pkg/config"
	"github.com/alimgiray/gitlucky/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Collaborators overrides the GitHub-backed dispatcher and diff fetcher.
// Nil fields are built from the GitHub configuration.
type Collaborators struct {
	Dispatcher services.MergeDispatcher
	Fetcher    services.DiffFetcher
}

const (
	voteLimiterSweepInterval = time.Minute
	voteLimiterMaxIdle       = 10 * time.Minute
)

type App struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	votes          *repositories.VoteRepository
	voteService    *services.VoteService
	finalizeWorker *workers.FinalizeWorker
	snapshots      *services.SnapshotService
	voteLimiter    *middleware.RateLimiter
	workerManager  *workers.WorkerManager
}

// New builds the application. Nothing runs until Start.
func New(cfg *config.Config, db *sql.DB, collaborators Collaborators) (*App, error) {
	if collaborators.Dispatcher == nil || collaborators.Fetcher == nil {
		clients, err := services.NewGitHubClientFactory(cfg.GitHub.APIURL, cfg.GitHub.Token)
		if err != nil {
			return nil, err
		}
		if collaborators.Dispatcher == nil {
			collaborators.Dispatcher = services.NewGitHubMergeService(clients)
		}
		if collaborators.Fetcher == nil {
			collaborators.Fetcher = services.NewGitHubDiffService(clients)
		}
	}

	// Initialize dependencies
	votes := repositories.NewVoteRepository()
	outcomeRepo := repositories.NewOutcomeRepository(db)
	outcomeService := services.NewOutcomeService(outcomeRepo)
	finalizer := services.NewFinalizerService(votes, collaborators.Dispatcher, outcomeRepo, cfg.GitHub.CollaboratorTimeout)
	finalizeWorker := workers.NewFinalizeWorker("finalizer", finalizer, cfg.Vote.Window)
	voteService := services.NewVoteService(votes, finalizeWorker, cfg.GitHub.Token)
	snapshots := services.NewSnapshotService(votes, cfg.Storage.SnapshotPath)
	voteLimiter := middleware.NewRateLimiter(float64(cfg.Vote.RatePerSecond), cfg.Vote.RateBurst)

	// Initialize worker manager
	workerManager := workers.NewWorkerManager()
	workerManager.Register(finalizeWorker)
	workerManager.Register(workers.NewSweepWorker("rate-limit-sweep", voteLimiter, voteLimiterSweepInterval, voteLimiterMaxIdle))
	if cfg.Storage.SnapshotInterval > 0 {
		workerManager.Register(workers.NewSnapshotWorker("snapshot", snapshots, cfg.Storage.SnapshotInterval))
	}

	a := &App{
		config:         cfg,
		votes:          votes,
		voteService:    voteService,
		finalizeWorker: finalizeWorker,
		snapshots:      snapshots,
		voteLimiter:    voteLimiter,
		workerManager:  workerManager,
	}

	a.router = gin.New()
	a.router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())
	a.setupRoutes(outcomeService, collaborators.Fetcher)

	a.server = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      a.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	return a, nil
}

func (a *App) setupRoutes(outcomeService *services.OutcomeService, fetcher services.DiffFetcher) {
	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(a.voteService)
	pullRequestHandler := handlers.NewPullRequestHandler(a.voteService, fetcher, a.config.GitHub.CollaboratorTimeout)
	voteHandler := handlers.NewVoteHandler(a.voteService)
	outcomeHandler := handlers.NewOutcomeHandler(outcomeService)
	healthHandler := handlers.NewHealthHandler(a.votes, a.workerManager)

	// Webhook
	a.router.POST("/", middleware.WebhookPayload(a.config.GitHub.WebhookSecret), webhookHandler.Receive)

	// Voting
	a.router.GET("/pr", pullRequestHandler.Random)
	a.router.GET("/prs", pullRequestHandler.List)
	a.router.GET("/pr/diff", pullRequestHandler.Diff)
	a.router.POST("/vote", a.voteLimiter.Middleware(), voteHandler.Cast)

	// History
	outcomes := a.router.Group("/outcomes")
	{
		outcomes.GET("", outcomeHandler.List)
		outcomes.GET("/export", outcomeHandler.Export)
		outcomes.GET("/:id", outcomeHandler.Get)
	}

	// Health check endpoint
	a.router.GET("/health", healthHandler.HealthCheck)
	a.router.NoRoute(handlers.NotFound)
}

// Handler returns the HTTP handler, for tests and embedding
func (a *App) Handler() http.Handler {
	return a.router
}

// Restore reloads the last snapshot and re-arms every restored vote. A corrupt
// snapshot is returned as an error.
func (a *App) Restore() error {
	if err := a.snapshots.LoadAndRestore(a.finalizeWorker); err != nil {
		return fmt.Errorf("restore vote store: %w", err)
	}
	return nil
}

// StartWorkers starts the finalizer, the rate limit sweep and, if enabled, the
// periodic snapshot
func (a *App) StartWorkers() error {
	return a.workerManager.StartAll()
}

// Start restores state, starts workers and serves HTTP until Shutdown
func (a *App) Start() error {
	if err := a.Restore(); err != nil {
		return err
	}
	if err := a.StartWorkers(); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}

	logger.Infof("Server starting on %s", a.server.Addr)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, stops the workers (waiting for running
// finalizations) and writes a final snapshot
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.workerManager.StopAll(); err != nil {
		errs = append(errs, fmt.Errorf("stop workers: %w", err))
	}
	if err := a.snapshots.Save(); err != nil {
		errs = append(errs, fmt.Errorf("final snapshot: %w", err))
	} else {
		logger.WithField("entries", a.votes.Len()).Info("Final snapshot saved")
	}

	return errors.Join(errs...)
}
