package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/models"
	"github.com/upb/teach-portal/backend/repositories"
	"go.uber.org/zap"
)

// insertTimeout bounds a single audit write
const insertTimeout = 5 * time.Second

// RequestInfo carries request metadata recorded with an event
type RequestInfo struct {
	RequestID string
	IPAddress string
	UserAgent string
}

type requestInfoKey struct{}

// WithRequestInfo stores request metadata in ctx for later audit events
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext returns the metadata stored by WithRequestInfo
func RequestInfoFromContext(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// AuditService writes audit logs asynchronously through a worker pool.
// Logging never blocks the caller; events are dropped when the buffer is full.
type AuditService struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *models.AuditLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	stopped     bool
	mu          sync.RWMutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int
	WorkerCount int
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  256,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	defaults := DefaultConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = defaults.WorkerCount
	}

	return &AuditService{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *models.AuditLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting events and waits for queued ones to be written
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not running")
	}
	s.stopped = true
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// Record queues log without blocking. Request metadata in ctx is attached.
func (s *AuditService) Record(ctx context.Context, log *models.AuditLog) {
	info := RequestInfoFromContext(ctx)
	if log.RequestID == "" && info.RequestID != "" {
		log.WithRequest(info.RequestID, info.IPAddress, info.UserAgent)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.stopped {
		s.logger.Debug("audit service not running, dropping event", zap.String("action", string(log.Action)))
		return
	}

	select {
	case s.eventChan <- log:
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("action", string(log.Action)))
	}
}

func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	for log := range s.eventChan {
		if err := s.processEvent(log); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(log.Action)))
		}
	}
}

func (s *AuditService) processEvent(log *models.AuditLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

// Convenience methods for common events

// LoginSucceeded records a successful login
func (s *AuditService) LoginSucceeded(ctx context.Context, teacherID uuid.UUID) {
	s.Record(ctx, models.NewAuditLog(models.AuditActionLoginSucceeded, "teacher").
		WithTeacher(teacherID).
		WithResource(teacherID))
}

// LoginFailed records a failed login. reason is a taxonomy code, never the password.
func (s *AuditService) LoginFailed(ctx context.Context, username, reason string) {
	s.Record(ctx, models.NewAuditLog(models.AuditActionLoginFailed, "teacher").
		WithDetails(map[string]string{"username": username, "reason": reason}))
}

// TeacherRegistered records a new account
func (s *AuditService) TeacherRegistered(ctx context.Context, teacher *models.Teacher) {
	s.Record(ctx, models.NewAuditLog(models.AuditActionTeacherRegistered, "teacher").
		WithTeacher(teacher.ID).
		WithResource(teacher.ID).
		WithDetails(map[string]string{"username": teacher.Username}))
}

// TokenRefreshed records a refresh token rotation
func (s *AuditService) TokenRefreshed(ctx context.Context, teacherID, familyID uuid.UUID) {
	s.Record(ctx, models.NewAuditLog(models.AuditActionTokenRefreshed, "refresh_token").
		WithTeacher(teacherID).
		WithResource(familyID))
}

// RefreshTokenReused records presentation of a spent or revoked refresh token
func (s *AuditService) RefreshTokenReused(ctx context.Context, teacherID, familyID uuid.UUID) {
	s.Record(ctx, models.NewAuditLog(models.AuditActionRefreshReuse, "refresh_token").
		WithTeacher(teacherID).
		WithResource(familyID))
}

// LoggedOut records a logout
func (s *AuditService) LoggedOut(ctx context.Context, teacherID, familyID uuid.UUID) {
	s.Record(ctx, models.NewAuditLog(models.AuditActionLogout, "refresh_token").
		WithTeacher(teacherID).
		WithResource(familyID))
}

// StudentChanged records a student create, update or delete
func (s *AuditService) StudentChanged(ctx context.Context, action models.AuditAction, teacherID, studentID uuid.UUID) {
	s.Record(ctx, models.NewAuditLog(action, "student").
		WithTeacher(teacherID).
		WithResource(studentID))
}

// AccessDenied records an ownership check failure
func (s *AuditService) AccessDenied(ctx context.Context, teacherID, studentID uuid.UUID) {
	s.Record(ctx, models.NewAuditLog(models.AuditActionAccessDenied, "student").
		WithTeacher(teacherID).
		WithResource(studentID))
}
