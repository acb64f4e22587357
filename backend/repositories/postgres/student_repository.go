package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/models"
	"github.com/upb/teach-portal/backend/repositories"
	"go.uber.org/zap"
)

const studentSelect = `
		SELECT s.id, s.first_name, s.last_name, s.email, s.teacher_id,
		       s.created_at, s.updated_at, s.created_by, s.updated_by,
		       t.first_name, t.last_name
		FROM students s
		JOIN teachers t ON t.id = s.teacher_id
`

// StudentRepository implements the repositories.StudentRepository interface
type StudentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *DB, logger *zap.Logger) repositories.StudentRepository {
	return &StudentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a student
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (id, first_name, last_name, email, teacher_id,
		                      created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		student.ID,
		student.FirstName,
		student.LastName,
		student.Email,
		student.TeacherID,
		student.CreatedAt,
		student.UpdatedAt,
		student.CreatedBy,
		student.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", mapError(err))
	}

	r.logger.Debug("student created",
		zap.String("id", student.ID.String()),
		zap.String("teacher_id", student.TeacherID.String()))
	return nil
}

// GetByID retrieves a student with the owner's name
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	query := studentSelect + `WHERE s.id = $1`

	executor := GetExecutor(ctx, r.db)
	student, err := scanStudent(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", mapError(err))
	}
	return student, nil
}

// ListByTeacher returns the teacher's students ordered by last then first name
func (r *StudentRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Student, error) {
	query := studentSelect + `
		WHERE s.teacher_id = $1
		ORDER BY s.last_name, s.first_name
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating students: %w", err)
	}

	return students, nil
}

// ExistsByEmail checks every student regardless of owner
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM students WHERE email = $1)`
	args := []interface{}{email}
	if excludeID != nil {
		query = `SELECT EXISTS(SELECT 1 FROM students WHERE email = $1 AND id <> $2)`
		args = append(args, *excludeID)
	}

	var exists bool
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check student email: %w", err)
	}
	return exists, nil
}

// Update saves name and email changes. Ownership never changes.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	query := `
		UPDATE students
		SET first_name = $2, last_name = $3, email = $4, updated_at = $5, updated_by = $6
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		student.ID,
		student.FirstName,
		student.LastName,
		student.Email,
		student.UpdatedAt,
		student.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", mapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("student %s: %w", student.ID, repositories.ErrNotFound)
	}

	r.logger.Debug("student updated", zap.String("id", student.ID.String()))
	return nil
}

// Delete removes a student
func (r *StudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("student %s: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("student deleted", zap.String("id", id.String()))
	return nil
}

// CountByTeacher returns the size of a teacher's roster
func (r *StudentRepository) CountByTeacher(ctx context.Context, teacherID uuid.UUID) (int, error) {
	var count int
	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM students WHERE teacher_id = $1`, teacherID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

func scanStudent(row rowScanner) (*models.Student, error) {
	s := &models.Student{}
	var teacherFirst, teacherLast string
	err := row.Scan(
		&s.ID,
		&s.FirstName,
		&s.LastName,
		&s.Email,
		&s.TeacherID,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.CreatedBy,
		&s.UpdatedBy,
		&teacherFirst,
		&teacherLast,
	)
	if err != nil {
		return nil, err
	}
	s.TeacherName = (&models.Teacher{FirstName: teacherFirst, LastName: teacherLast}).FullName()
	return s, nil
}
