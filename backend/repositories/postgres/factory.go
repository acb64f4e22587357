package postgres

import (
	"github.com/upb/teach-portal/backend/config"
	"github.com/upb/teach-portal/backend/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory opens the database and, when configured, migrates it
func NewRepositoryFactory(cfg config.DatabaseConfig, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return NewRepositoryFactoryWithDB(db, logger), nil
}

// NewRepositoryFactoryWithDB builds a factory over an existing pool
func NewRepositoryFactoryWithDB(db *DB, logger *zap.Logger) *RepositoryFactory {
	return &RepositoryFactory{db: db, logger: logger}
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Teachers:      NewTeacherRepository(f.db, f.logger),
		Students:      NewStudentRepository(f.db, f.logger),
		RefreshTokens: NewRefreshTokenRepository(f.db, f.logger),
		AuditLogs:     NewAuditRepository(f.db, f.logger),
	}
}

// GetTransactionManager returns a transaction manager
func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return NewTransactionManager(f.db, f.logger)
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
