package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/auth"
	"github.com/upb/teach-portal/backend/models"
	"github.com/upb/teach-portal/backend/repositories"
	"go.uber.org/zap"
)

// TokenIssuer signs and verifies access tokens
type TokenIssuer interface {
	Issue(teacher *models.Teacher) (*auth.IssuedToken, error)
	Verify(token string) (*auth.Claims, error)
}

// LoginInput is a validated login request
type LoginInput struct {
	Username string
	Password string
}

// RegisterInput is a validated registration request
type RegisterInput struct {
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Password        string
	ConfirmPassword string
}

// AuthResult is returned by Login, Register and Refresh
type AuthResult struct {
	Token        string
	RefreshToken string
	ExpiresAt    time.Time
	Teacher      *models.TeacherWithCount
}

// TokenValidation is the outcome of ValidateToken. AccountID is uuid.Nil
// when Valid is false.
type TokenValidation struct {
	Valid     bool
	AccountID uuid.UUID
}

// AuthService handles login, registration and token lifecycle
type AuthService struct {
	teachers      repositories.TeacherRepository
	students      repositories.StudentRepository
	refreshTokens repositories.RefreshTokenRepository
	txMgr         repositories.TransactionManager
	hasher        auth.Hasher
	tokens        TokenIssuer
	auditor       Auditor
	throttle      LoginThrottle
	refreshTTL    time.Duration
	now           func() time.Time
	logger        *zap.Logger

	dummyOnce sync.Once
	dummy     string
}

// AuthOption configures an AuthService
type AuthOption func(*AuthService)

// WithAuthClock replaces time.Now for refresh token expiry
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		s.now = now
	}
}

// WithAuditor sets the event recorder. The default discards events.
func WithAuditor(a Auditor) AuthOption {
	return func(s *AuthService) {
		if a != nil {
			s.auditor = a
		}
	}
}

// WithLoginThrottle limits failed login attempts. The default allows all.
func WithLoginThrottle(t LoginThrottle) AuthOption {
	return func(s *AuthService) {
		if t != nil {
			s.throttle = t
		}
	}
}

// NewAuthService creates a new auth service
func NewAuthService(
	repos *repositories.Repositories,
	txMgr repositories.TransactionManager,
	hasher auth.Hasher,
	tokens TokenIssuer,
	refreshTTL time.Duration,
	logger *zap.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		teachers:      repos.Teachers,
		students:      repos.Students,
		refreshTokens: repos.RefreshTokens,
		txMgr:         txMgr,
		hasher:        hasher,
		tokens:        tokens,
		auditor:       NopAuditor{},
		throttle:      openThrottle{},
		refreshTTL:    refreshTTL,
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies credentials and opens a new session. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if retryAt, ok := s.allowLogin(ctx, input.Username); !ok {
		s.loginFailed(ctx, input.Username, "throttled")
		return nil, ErrTooManyAttempts.WithDetail("retryAt", retryAt.UTC().Format(time.RFC3339))
	}

	teacher, err := s.teachers.GetByUsername(ctx, input.Username)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, WrapInternal("failed to load teacher", err)
		}
		// keep response time close to the wrong-password path
		s.hasher.Verify(input.Password, s.dummyHash())
		s.credentialsRejected(ctx, input.Username)
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(input.Password, teacher.PasswordHash) {
		s.credentialsRejected(ctx, input.Username)
		return nil, ErrInvalidCredentials
	}

	if !teacher.IsActive {
		s.loginFailed(ctx, input.Username, "account_deactivated")
		return nil, ErrAccountDeactivated
	}

	count, err := s.students.CountByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, WrapInternal("failed to count students", err)
	}

	result, err := s.issueSession(ctx, teacher, uuid.Nil)
	if err != nil {
		return nil, err
	}
	result.Teacher = &models.TeacherWithCount{Teacher: *teacher, StudentCount: count}

	if err := s.throttle.Succeeded(ctx, input.Username); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}
	s.auditor.LoginSucceeded(ctx, teacher.ID)
	s.logger.Info("teacher logged in",
		zap.String("teacher_id", teacher.ID.String()),
		zap.String("username", teacher.Username))

	return result, nil
}

// Register creates an active account and opens a session for it
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if input.Password != input.ConfirmPassword {
		return nil, ErrInvalidInput.WithDetail("confirmPassword", "passwords do not match")
	}

	exists, err := s.teachers.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, WrapInternal("failed to check username", err)
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	exists, err = s.teachers.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, WrapInternal("failed to check email", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, WrapInternal("failed to hash password", err)
	}

	teacher := models.NewTeacher(input.Username, input.Email, input.FirstName, input.LastName, hash)

	// the unique constraints decide concurrent registrations
	result, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*AuthResult, error) {
		if err := s.teachers.Create(ctx, teacher); err != nil {
			return nil, mapTeacherWriteError(err)
		}
		return s.issueSession(ctx, teacher, uuid.Nil)
	})
	if err != nil {
		return nil, asDomainError("failed to register teacher", err)
	}
	result.Teacher = &models.TeacherWithCount{Teacher: *teacher}

	s.auditor.TeacherRegistered(ctx, teacher)
	s.logger.Info("teacher registered",
		zap.String("teacher_id", teacher.ID.String()),
		zap.String("username", teacher.Username))

	return result, nil
}

// Authenticate verifies an access token and returns its claims. Any
// verification failure yields ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		return nil, ErrUnauthenticated.Wrap(err)
	}
	return claims, nil
}

// ValidateToken reports whether token is currently valid. It does not
// consult the account's active flag.
func (s *AuthService) ValidateToken(ctx context.Context, token string) TokenValidation {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return TokenValidation{}
	}
	id, err := claims.AccountID()
	if err != nil {
		return TokenValidation{}
	}
	return TokenValidation{Valid: true, AccountID: id}
}

// Refresh exchanges a refresh token for a new session in the same family.
// Presenting a spent or revoked token revokes the whole family.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	stored, err := s.refreshTokens.GetByHash(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, WrapInternal("failed to load refresh token", err)
	}

	if stored.UsedAt != nil || stored.RevokedAt != nil {
		if err := s.refreshTokens.RevokeFamily(ctx, stored.FamilyID); err != nil {
			s.logger.Error("failed to revoke refresh token family",
				zap.String("family_id", stored.FamilyID.String()),
				zap.Error(err))
		}
		s.auditor.RefreshTokenReused(ctx, stored.TeacherID, stored.FamilyID)
		s.logger.Warn("refresh token reuse detected",
			zap.String("teacher_id", stored.TeacherID.String()),
			zap.String("family_id", stored.FamilyID.String()))
		return nil, ErrInvalidRefreshToken
	}

	if !stored.IsUsable(s.now()) {
		return nil, ErrInvalidRefreshToken
	}

	teacher, err := s.teachers.GetByID(ctx, stored.TeacherID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, WrapInternal("failed to load teacher", err)
	}

	if !teacher.IsActive {
		if err := s.refreshTokens.RevokeAllForTeacher(ctx, teacher.ID); err != nil {
			s.logger.Error("failed to revoke refresh tokens",
				zap.String("teacher_id", teacher.ID.String()),
				zap.Error(err))
		}
		return nil, ErrAccountDeactivated
	}

	count, err := s.students.CountByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, WrapInternal("failed to count students", err)
	}

	result, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*AuthResult, error) {
		if err := s.refreshTokens.MarkUsed(ctx, stored.ID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				// lost a race with a concurrent rotation
				return nil, ErrInvalidRefreshToken
			}
			return nil, err
		}
		return s.issueSession(ctx, teacher, stored.FamilyID)
	})
	if err != nil {
		return nil, asDomainError("failed to rotate refresh token", err)
	}
	result.Teacher = &models.TeacherWithCount{Teacher: *teacher, StudentCount: count}

	s.auditor.TokenRefreshed(ctx, teacher.ID, stored.FamilyID)
	return result, nil
}

// Logout revokes the refresh token family. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrMissingRefreshToken
	}

	stored, err := s.refreshTokens.GetByHash(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return WrapInternal("failed to load refresh token", err)
	}

	if err := s.refreshTokens.RevokeFamily(ctx, stored.FamilyID); err != nil {
		return WrapInternal("failed to revoke refresh token", err)
	}

	s.auditor.LoggedOut(ctx, stored.TeacherID, stored.FamilyID)
	s.logger.Info("teacher logged out", zap.String("teacher_id", stored.TeacherID.String()))
	return nil
}

// issueSession signs an access token and persists a new refresh token.
// A nil familyID starts a new family.
func (s *AuthService) issueSession(ctx context.Context, teacher *models.Teacher, familyID uuid.UUID) (*AuthResult, error) {
	issued, err := s.tokens.Issue(teacher)
	if err != nil {
		return nil, WrapInternal("failed to issue token", err)
	}

	raw, err := auth.NewRefreshToken()
	if err != nil {
		return nil, WrapInternal("failed to generate refresh token", err)
	}

	stored := models.NewRefreshToken(teacher.ID, familyID, auth.HashRefreshToken(raw), s.now().Add(s.refreshTTL))
	if err := s.refreshTokens.Create(ctx, stored); err != nil {
		return nil, WrapInternal("failed to store refresh token", err)
	}

	return &AuthResult{
		Token:        issued.Token,
		RefreshToken: raw,
		ExpiresAt:    issued.ExpiresAt,
	}, nil
}

// allowLogin fails open: a throttle store error must not lock everyone out
func (s *AuthService) allowLogin(ctx context.Context, username string) (time.Time, bool) {
	allowed, retryAt, err := s.throttle.Allow(ctx, username)
	if err != nil {
		s.logger.Warn("login throttle unavailable", zap.Error(err))
		return time.Time{}, true
	}
	return retryAt, allowed
}

func (s *AuthService) credentialsRejected(ctx context.Context, username string) {
	if err := s.throttle.Failed(ctx, username); err != nil {
		s.logger.Warn("failed to record login attempt", zap.Error(err))
	}
	s.loginFailed(ctx, username, "invalid_credentials")
}

func (s *AuthService) loginFailed(ctx context.Context, username, reason string) {
	s.auditor.LoginFailed(ctx, username, reason)
	s.logger.Info("login failed",
		zap.String("username", username),
		zap.String("reason", reason))
}

// dummyHash is verified against when the username is unknown
func (s *AuthService) dummyHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Warn("failed to create dummy hash", zap.Error(err))
			return
		}
		s.dummy = hash
	})
	return s.dummy
}

func mapTeacherWriteError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicateUsername):
		return ErrDuplicateUsername
	case errors.Is(err, repositories.ErrDuplicateEmail):
		return ErrDuplicateEmail
	}
	return WrapInternal("failed to create teacher", err)
}

// asDomainError passes domain errors through and wraps anything else
func asDomainError(message string, err error) error {
	if GetErrorType(err) != "" {
		return err
	}
	return WrapInternal(message, err)
}
