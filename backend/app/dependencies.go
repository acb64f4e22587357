package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/upb/teach-portal/backend/auth"
	"github.com/upb/teach-portal/backend/config"
	"github.com/upb/teach-portal/backend/handlers"
	"github.com/upb/teach-portal/backend/middleware"
	"github.com/upb/teach-portal/backend/repositories"
	"github.com/upb/teach-portal/backend/repositories/postgres"
	"github.com/upb/teach-portal/backend/services"
	"github.com/upb/teach-portal/backend/services/audit"
	"github.com/upb/teach-portal/backend/services/ratelimit"
	"go.uber.org/zap"
)

// defaultCloseTimeout bounds the audit drain when Close gets a context
// without a deadline
const defaultCloseTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Auth primitives
	Tokens *auth.TokenService
	Hasher *auth.BcryptHasher

	// Audit is nil when auditing is disabled; Auditor is always set
	Audit   *audit.AuditService
	Auditor services.Auditor

	// Limiter is nil when login throttling is disabled
	Limiter     *ratelimit.LoginLimiter
	stopCleanup func()

	// Services
	Guard          *services.Guard
	AuthService    *services.AuthService
	TeacherService *services.TeacherService
	StudentService *services.StudentService

	// HTTP
	AuthMiddleware *middleware.AuthMiddleware
	AuthHandler    *handlers.AuthHandler
	TeacherHandler *handlers.TeacherHandler
	StudentHandler *handlers.StudentHandler
	HealthHandler  *handlers.HealthHandler
}

// NewDependencies opens the database, runs migrations when configured and
// wires every component on top of it.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.GetDB().PingContext(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: database ping failed: %w", err)
	}

	deps, err := newDependencies(cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithDB wires the application over an already opened pool
func NewDependenciesWithDB(cfg *config.Config, db *sql.DB, logger *zap.Logger) (*Dependencies, error) {
	factory := postgres.NewRepositoryFactoryWithDB(postgres.WrapDB(db, logger), logger)
	return newDependencies(cfg, factory, logger)
}

func newDependencies(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	deps.initRepositories()

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	if err := deps.initAudit(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize audit: %w", err)
	}

	deps.initLoginThrottle(cfg)
	deps.initServices(cfg)
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initAuth(cfg *config.Config) error {
	tokens, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		return err
	}
	d.Tokens = tokens
	d.Hasher = auth.NewBcryptHasher()
	return nil
}

func (d *Dependencies) initAudit(cfg *config.Config) error {
	if !cfg.Audit.Enabled {
		d.Logger.Warn("audit logging disabled")
		d.Auditor = services.NopAuditor{}
		return nil
	}

	svc := audit.NewAuditService(d.Repos.AuditLogs, d.Logger, audit.Config{
		BufferSize:  cfg.Audit.BufferSize,
		WorkerCount: cfg.Audit.Workers,
	})
	if err := svc.Start(); err != nil {
		return err
	}
	d.Audit = svc
	d.Auditor = svc
	return nil
}

func (d *Dependencies) initLoginThrottle(cfg *config.Config) {
	if !cfg.LoginThrottle.Enabled {
		d.Logger.Warn("login throttling disabled")
		return
	}

	d.Limiter = ratelimit.NewLoginLimiter(d.DB.DB, d.Logger, ratelimit.Config{
		MaxAttempts:        cfg.LoginThrottle.MaxAttempts,
		AccountMaxAttempts: cfg.LoginThrottle.AccountMaxAttempts,
		Window:             cfg.LoginThrottle.Window,
	})

	if cfg.LoginThrottle.CleanupInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			d.Limiter.StartCleanupWorker(ctx, cfg.LoginThrottle.CleanupInterval)
		}()
		d.stopCleanup = func() {
			cancel()
			<-done
		}
	}
}

func (d *Dependencies) initServices(cfg *config.Config) {
	opts := []services.AuthOption{services.WithAuditor(d.Auditor)}
	if d.Limiter != nil {
		opts = append(opts, services.WithLoginThrottle(d.Limiter))
	}

	d.Guard = services.NewGuard(services.OwnedBy, d.Auditor)
	d.AuthService = services.NewAuthService(
		d.Repos,
		d.TxManager,
		d.Hasher,
		d.Tokens,
		cfg.JWT.RefreshTokenTTL,
		d.Logger,
		opts...,
	)
	d.TeacherService = services.NewTeacherService(d.Repos.Teachers, d.Repos.Students, d.Logger)
	d.StudentService = services.NewStudentService(d.Repos.Students, d.Guard, d.Auditor, d.Logger)
}

func (d *Dependencies) initHandlers() {
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.AuthService, d.Logger)
	d.AuthHandler = handlers.NewAuthHandler(d.AuthService, d.Logger)
	d.TeacherHandler = handlers.NewTeacherHandler(d.TeacherService, d.Logger)
	d.StudentHandler = handlers.NewStudentHandler(d.StudentService, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB, d.Logger)
}

// Close stops background workers, drains the audit queue and closes the
// database. Calling it twice
// is safe.
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.stopCleanup != nil {
		d.stopCleanup()
		d.stopCleanup = nil
	}

	if d.Audit != nil {
		timeout := defaultCloseTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
		d.Audit = nil
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
