package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/teach-portal/backend/models"
)

// MockTeacherRepository is a mock implementation of TeacherRepository
type MockTeacherRepository struct {
	mock.Mock
}

func (m *MockTeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	args := m.Called(ctx, teacher)
	return args.Error(0)
}

func (m *MockTeacherRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Teacher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Teacher), args.Error(1)
}

func (m *MockTeacherRepository) GetByUsername(ctx context.Context, username string) (*models.Teacher, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Teacher), args.Error(1)
}

func (m *MockTeacherRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeacherRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeacherRepository) List(ctx context.Context) ([]*models.TeacherWithCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TeacherWithCount), args.Error(1)
}

func (m *MockTeacherRepository) GetWithCount(ctx context.Context, id uuid.UUID) (*models.TeacherWithCount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeacherWithCount), args.Error(1)
}

// MockStudentRepository is a mock implementation of StudentRepository
type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) Create(ctx context.Context, student *models.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

func (m *MockStudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Student, error) {
	args := m.Called(ctx, teacherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Student), args.Error(1)
}

func (m *MockStudentRepository) ExistsByEmail(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStudentRepository) Update(ctx context.Context, student *models.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

func (m *MockStudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStudentRepository) CountByTeacher(ctx context.Context, teacherID uuid.UUID) (int, error) {
	args := m.Called(ctx, teacherID)
	return args.Int(0), args.Error(1)
}

// MockRefreshTokenRepository is a mock implementation of RefreshTokenRepository
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) RevokeFamily(ctx context.Context, familyID uuid.UUID) error {
	args := m.Called(ctx, familyID)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) RevokeAllForTeacher(ctx context.Context, teacherID uuid.UUID) error {
	args := m.Called(ctx, teacherID)
	return args.Error(0)
}

// recordingAuditor keeps the names of recorded events
type recordingAuditor struct {
	NopAuditor
	mu     sync.Mutex
	events []string
}

func (a *recordingAuditor) add(event string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAuditor) Events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.events...)
}

func (a *recordingAuditor) LoginSucceeded(context.Context, uuid.UUID) { a.add("login_succeeded") }
func (a *recordingAuditor) LoginFailed(_ context.Context, _, reason string) {
	a.add("login_failed:" + reason)
}
func (a *recordingAuditor) TeacherRegistered(context.Context, *models.Teacher) {
	a.add("teacher_registered")
}
func (a *recordingAuditor) TokenRefreshed(context.Context, uuid.UUID, uuid.UUID) {
	a.add("token_refreshed")
}
func (a *recordingAuditor) RefreshTokenReused(context.Context, uuid.UUID, uuid.UUID) {
	a.add("refresh_token_reuse")
}
func (a *recordingAuditor) LoggedOut(context.Context, uuid.UUID, uuid.UUID) { a.add("logout") }
func (a *recordingAuditor) StudentChanged(_ context.Context, action models.AuditAction, _, _ uuid.UUID) {
	a.add(string(action))
}
func (a *recordingAuditor) AccessDenied(context.Context, uuid.UUID, uuid.UUID) {
	a.add("access_denied")
}

// MockLoginThrottle is a mock implementation of LoginThrottle
type MockLoginThrottle struct {
	mock.Mock
}

func (m *MockLoginThrottle) Allow(ctx context.Context, username string) (bool, time.Time, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockLoginThrottle) Failed(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *MockLoginThrottle) Succeeded(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}
