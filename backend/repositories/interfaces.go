package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateUsername is returned when the teachers username constraint is violated
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrDuplicateEmail is returned when the teachers email constraint is violated
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrDuplicateStudentEmail is returned when the students email constraint is violated
	ErrDuplicateStudentEmail = errors.New("student email already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction. Repositories called with
	// Transaction.Context() run inside it.
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error

	// Context returns a context carrying the transaction
	Context() context.Context
}

// TeacherRepository handles teacher account data
type TeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Teacher, error)

	// GetByUsername matches exactly; case sensitivity follows the column collation
	GetByUsername(ctx context.Context, username string) (*models.Teacher, error)

	// ExistsByUsername and ExistsByEmail include inactive accounts
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns every teacher with the size of their roster
	List(ctx context.Context) ([]*models.TeacherWithCount, error)

	// GetWithCount returns a single teacher with the size of their roster
	GetWithCount(ctx context.Context, id uuid.UUID) (*models.TeacherWithCount, error)
}

// StudentRepository handles student data
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error

	// GetByID returns the student with TeacherName populated
	GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Student, error)

	// ExistsByEmail checks the whole table; excludeID skips one row for updates
	ExistsByEmail(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByTeacher(ctx context.Context, teacherID uuid.UUID) (int, error)
}

// RefreshTokenRepository persists hashed refresh tokens
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// MarkUsed flags the token as spent. It returns ErrNotFound if the token
	// was already used or revoked, so concurrent rotations cannot both win.
	MarkUsed(ctx context.Context, id uuid.UUID) error
	RevokeFamily(ctx context.Context, familyID uuid.UUID) error
	RevokeAllForTeacher(ctx context.Context, teacherID uuid.UUID) error
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	Insert(ctx context.Context, log *models.AuditLog) error
}

// SchemaStatus compares the applied migration with the newest one shipped
// in the binary
type SchemaStatus struct {
	Version uint
	Latest  uint
	Dirty   bool
}

// Current reports whether every shipped migration has been applied cleanly
func (s SchemaStatus) Current() bool {
	return !s.Dirty && s.Version >= s.Latest
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Teachers      TeacherRepository
	Students      StudentRepository
	RefreshTokens RefreshTokenRepository
	AuditLogs     AuditRepository
}
