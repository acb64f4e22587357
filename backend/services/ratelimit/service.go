package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/upb/teach-portal/backend/services/audit"
	"go.uber.org/zap"
)

// Config bounds failed login attempts within a sliding window.
// MaxAttempts applies per username and client address; AccountMaxAttempts
// applies to the username across all addresses.
type Config struct {
	MaxAttempts        int
	AccountMaxAttempts int
	Window             time.Duration
}

// DefaultConfig returns five attempts per address and twenty per account
// every fifteen minutes
func DefaultConfig() Config {
	return Config{
		MaxAttempts:        5,
		AccountMaxAttempts: 20,
		Window:             15 * time.Minute,
	}
}

// LoginLimiter counts failed logins in PostgreSQL using a sliding window.
// Failures are counted per username and client address, and again per
// username alone. The client address comes from forwarding headers, so the
// account scope is what bounds guessing from a client that rotates them.
type LoginLimiter struct {
	db     *sql.DB
	logger *zap.Logger
	config Config
	now    func() time.Time
}

// Option configures a LoginLimiter
type Option func(*LoginLimiter)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(l *LoginLimiter) {
		l.now = now
	}
}

// NewLoginLimiter creates a new LoginLimiter
func NewLoginLimiter(db *sql.DB, logger *zap.Logger, config Config, opts ...Option) *LoginLimiter {
	defaults := DefaultConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.AccountMaxAttempts <= 0 {
		config.AccountMaxAttempts = defaults.AccountMaxAttempts
	}
	if config.AccountMaxAttempts < config.MaxAttempts {
		config.AccountMaxAttempts = config.MaxAttempts
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}

	l := &LoginLimiter{
		db:     db,
		logger: logger,
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether username may attempt another login. When it may
// not, the returned time is when the oldest counted failure of the exhausted
// scope leaves the window.
func (l *LoginLimiter) Allow(ctx context.Context, username string) (bool, time.Time, error) {
	now := l.now()
	windowStart := now.Add(-l.config.Window)

	query := `
		SELECT COUNT(*), MIN(timestamp)
		FROM rate_limit_events
		WHERE scope_key = $1
		  AND timestamp >= $2
	`

	for _, sc := range l.scopes(ctx, username) {
		var count int
		var oldest sql.NullTime
		err := l.db.QueryRowContext(ctx, query, sc.key, windowStart).Scan(&count, &oldest)
		if err != nil {
			return false, time.Time{}, fmt.Errorf("failed to query login attempts: %w", err)
		}

		if count < sc.limit {
			continue
		}

		retryAt := now.Add(l.config.Window)
		if oldest.Valid {
			retryAt = oldest.Time.Add(l.config.Window)
		}
		l.logger.Warn("login throttled",
			zap.String("username", username),
			zap.String("scope", sc.key),
			zap.Int("attempts", count),
			zap.Time("retry_at", retryAt))
		return false, retryAt, nil
	}

	return true, time.Time{}, nil
}

// Failed records a failed login against every scope
func (l *LoginLimiter) Failed(ctx context.Context, username string) error {
	query := `
		INSERT INTO rate_limit_events (scope_key, timestamp)
		VALUES ($1, $2)
	`

	now := l.now()
	for _, sc := range l.scopes(ctx, username) {
		if _, err := l.db.ExecContext(ctx, query, sc.key, now); err != nil {
			return fmt.Errorf("failed to insert rate limit event: %w", err)
		}
	}
	return nil
}

// Succeeded clears the failures counted against the client's own scope.
// Account-wide failures only age out.
func (l *LoginLimiter) Succeeded(ctx context.Context, username string) error {
	key := l.scopes(ctx, username)[0].key
	if _, err := l.db.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE scope_key = $1`, key); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}

type scope struct {
	key   string
	limit int
}

// scopes lists the counters a login touches, narrowest first. Without a
// known client address only the account scope applies.
func (l *LoginLimiter) scopes(ctx context.Context, username string) []scope {
	account := scope{key: "login:" + username, limit: l.config.AccountMaxAttempts}
	ip := audit.RequestInfoFromContext(ctx).IPAddress
	if ip == "" {
		return []scope{account}
	}
	return []scope{
		{key: fmt.Sprintf("login:%s:ip:%s", username, ip), limit: l.config.MaxAttempts},
		account,
	}
}

// CleanupOldEvents removes events that can no longer count toward any window
func (l *LoginLimiter) CleanupOldEvents(ctx context.Context) (int64, error) {
	cutoffTime := l.now().Add(-l.config.Window)

	result, err := l.db.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE timestamp < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	l.logger.Debug("cleaned up old rate limit events",
		zap.Int64("rows_deleted", rowsAffected),
		zap.Time("cutoff_time", cutoffTime))

	return rowsAffected, nil
}

// StartCleanupWorker periodically removes expired events until ctx is done
func (l *LoginLimiter) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.logger.Info("started rate limit cleanup worker", zap.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			if _, err := l.CleanupOldEvents(ctx); err != nil {
				l.logger.Error("failed to cleanup old events", zap.Error(err))
			}
		case <-ctx.Done():
			l.logger.Info("stopping rate limit cleanup worker")
			return
		}
	}
}
