package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/teach-portal/backend/auth"
	"github.com/upb/teach-portal/backend/middleware"
	"github.com/upb/teach-portal/backend/models"
	"github.com/upb/teach-portal/backend/repositories"
	"github.com/upb/teach-portal/backend/services"
)

// MockDatabaseChecker is a mock implementation of DatabaseChecker
type MockDatabaseChecker struct {
	mock.Mock
}

func (m *MockDatabaseChecker) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDatabaseChecker) SchemaStatus(ctx context.Context) (repositories.SchemaStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(repositories.SchemaStatus), args.Error(1)
}

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, input services.LoginInput) (*services.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) services.TokenValidation {
	args := m.Called(ctx, token)
	return args.Get(0).(services.TokenValidation)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

// MockTeacherService is a mock implementation of TeacherService
type MockTeacherService struct {
	mock.Mock
}

func (m *MockTeacherService) List(ctx context.Context) ([]*models.TeacherWithCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TeacherWithCount), args.Error(1)
}

func (m *MockTeacherService) Get(ctx context.Context, id uuid.UUID) (*models.TeacherWithCount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeacherWithCount), args.Error(1)
}

func (m *MockTeacherService) Me(ctx context.Context, actor services.Actor) (*models.TeacherWithCount, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeacherWithCount), args.Error(1)
}

func (m *MockTeacherService) ListStudents(ctx context.Context, actor services.Actor, teacherID uuid.UUID) ([]*models.Student, error) {
	args := m.Called(ctx, actor, teacherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Student), args.Error(1)
}

// MockStudentService is a mock implementation of StudentService
type MockStudentService struct {
	mock.Mock
}

func (m *MockStudentService) Create(ctx context.Context, actor services.Actor, input services.StudentInput) (*models.Student, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentService) ListMine(ctx context.Context, actor services.Actor) ([]*models.Student, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Student), args.Error(1)
}

func (m *MockStudentService) Get(ctx context.Context, actor services.Actor, id uuid.UUID) (*models.Student, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentService) Update(ctx context.Context, actor services.Actor, id uuid.UUID, input services.StudentInput) (*models.Student, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentService) Delete(ctx context.Context, actor services.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

// testActor is the teacher every authenticated test request acts as
var testActor = services.Actor{
	ID:       uuid.MustParse("6f1c2a9e-3b7d-4c1a-9e8f-2d4b6a8c0e1f"),
	Username: "t1",
	FullName: "Ada Byron",
}

// authenticated attaches the claims RequireAuth would have stored
func authenticated(r *http.Request) *http.Request {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: testActor.ID.String()},
		Name:             testActor.Username,
		FirstName:        "Ada",
		LastName:         "Byron",
	}
	ctx := middleware.WithClaims(r.Context(), claims)
	ctx = middleware.WithAccountID(ctx, testActor.ID)
	return r.WithContext(ctx)
}

// withURLParam sets a chi route parameter without going through a router
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func sampleTeacher(count int) *models.TeacherWithCount {
	teacher := models.NewTeacher("t1", "t1@x.com", "Ada", "Byron", "$2a$10$hash")
	teacher.ID = testActor.ID
	return &models.TeacherWithCount{Teacher: *teacher, StudentCount: count}
}

func sampleStudent(owner uuid.UUID) *models.Student {
	student := models.NewStudent(owner, "Grace", "Hopper", "grace@x.com", "t1")
	student.TeacherName = "Ada Byron"
	return student
}
