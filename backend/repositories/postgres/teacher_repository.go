package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/models"
	"github.com/upb/teach-portal/backend/repositories"
	"go.uber.org/zap"
)

const teacherColumns = `id, username, email, first_name, last_name, password_hash,
		       is_active, created_at, updated_at, created_by, updated_by`

// TeacherRepository implements the repositories.TeacherRepository interface
type TeacherRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTeacherRepository creates a new teacher repository
func NewTeacherRepository(db *DB, logger *zap.Logger) repositories.TeacherRepository {
	return &TeacherRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a teacher. Unique violations come back as
// repositories.ErrDuplicateUsername or repositories.ErrDuplicateEmail.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	query := `
		INSERT INTO teachers (id, username, email, first_name, last_name, password_hash,
		                      is_active, created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		teacher.ID,
		teacher.Username,
		teacher.Email,
		teacher.FirstName,
		teacher.LastName,
		teacher.PasswordHash,
		teacher.IsActive,
		teacher.CreatedAt,
		teacher.UpdatedAt,
		teacher.CreatedBy,
		teacher.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create teacher: %w", mapError(err))
	}

	r.logger.Debug("teacher created", zap.String("id", teacher.ID.String()), zap.String("username", teacher.Username))
	return nil
}

// GetByID retrieves a teacher by ID
func (r *TeacherRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Teacher, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByUsername retrieves a teacher by exact username
func (r *TeacherRepository) GetByUsername(ctx context.Context, username string) (*models.Teacher, error) {
	return r.getOne(ctx, "username = $1", username)
}

func (r *TeacherRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE ` + where

	executor := GetExecutor(ctx, r.db)
	teacher, err := scanTeacher(executor.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", mapError(err))
	}
	return teacher, nil
}

// ExistsByUsername reports whether any teacher, active or not, has username
func (r *TeacherRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM teachers WHERE username = $1)`, username)
}

// ExistsByEmail reports whether any teacher, active or not, has email
func (r *TeacherRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM teachers WHERE email = $1)`, email)
}

func (r *TeacherRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var exists bool
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check teacher existence: %w", err)
	}
	return exists, nil
}

const teacherWithCountQuery = `
		SELECT t.id, t.username, t.email, t.first_name, t.last_name, t.password_hash,
		       t.is_active, t.created_at, t.updated_at, t.created_by, t.updated_by,
		       COUNT(s.id) AS student_count
		FROM teachers t
		LEFT JOIN students s ON s.teacher_id = t.id
`

// List returns all teachers ordered by username with their student counts
func (r *TeacherRepository) List(ctx context.Context) ([]*models.TeacherWithCount, error) {
	query := teacherWithCountQuery + `
		GROUP BY t.id
		ORDER BY t.username
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	defer rows.Close()

	var teachers []*models.TeacherWithCount
	for rows.Next() {
		t, err := scanTeacherWithCount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan teacher: %w", err)
		}
		teachers = append(teachers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teachers: %w", err)
	}

	return teachers, nil
}

// GetWithCount retrieves a teacher and their student count
func (r *TeacherRepository) GetWithCount(ctx context.Context, id uuid.UUID) (*models.TeacherWithCount, error) {
	query := teacherWithCountQuery + `
		WHERE t.id = $1
		GROUP BY t.id
	`

	executor := GetExecutor(ctx, r.db)
	t, err := scanTeacherWithCount(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", mapError(err))
	}
	return t, nil
}

func scanTeacher(row rowScanner) (*models.Teacher, error) {
	t := &models.Teacher{}
	err := row.Scan(
		&t.ID,
		&t.Username,
		&t.Email,
		&t.FirstName,
		&t.LastName,
		&t.PasswordHash,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CreatedBy,
		&t.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func scanTeacherWithCount(row rowScanner) (*models.TeacherWithCount, error) {
	t := &models.TeacherWithCount{}
	err := row.Scan(
		&t.ID,
		&t.Username,
		&t.Email,
		&t.FirstName,
		&t.LastName,
		&t.PasswordHash,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CreatedBy,
		&t.UpdatedBy,
		&t.StudentCount,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
