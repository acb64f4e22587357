package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/models"
	"github.com/upb/teach-portal/backend/repositories"
	"go.uber.org/zap"
)

// StudentInput carries the editable student fields
type StudentInput struct {
	FirstName string
	LastName  string
	Email     string
}

// StudentService manages students on behalf of their teacher. Every
// operation on an existing student resolves it first and then asks the
// guard.
type StudentService struct {
	students repositories.StudentRepository
	guard    *Guard
	auditor  Auditor
	now      func() time.Time
	logger   *zap.Logger
}

// NewStudentService creates a new student service
func NewStudentService(students repositories.StudentRepository, guard *Guard, auditor Auditor, logger *zap.Logger) *StudentService {
	if auditor == nil {
		auditor = NopAuditor{}
	}
	return &StudentService{
		students: students,
		guard:    guard,
		auditor:  auditor,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// Create adds a student to the actor's roster
func (s *StudentService) Create(ctx context.Context, actor Actor, input StudentInput) (*models.Student, error) {
	if actor.ID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	exists, err := s.students.ExistsByEmail(ctx, input.Email, nil)
	if err != nil {
		return nil, WrapInternal("failed to check student email", err)
	}
	if exists {
		return nil, ErrDuplicateStudentEmail
	}

	student := models.NewStudent(actor.ID, input.FirstName, input.LastName, input.Email, actor.Username)
	if err := s.students.Create(ctx, student); err != nil {
		return nil, mapStudentWriteError("failed to create student", err)
	}
	student.TeacherName = actor.FullName

	s.auditor.StudentChanged(ctx, models.AuditActionStudentCreated, actor.ID, student.ID)
	s.logger.Info("student created",
		zap.String("student_id", student.ID.String()),
		zap.String("teacher_id", actor.ID.String()))

	return student, nil
}

// ListMine returns the actor's roster
func (s *StudentService) ListMine(ctx context.Context, actor Actor) ([]*models.Student, error) {
	if actor.ID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	students, err := s.students.ListByTeacher(ctx, actor.ID)
	if err != nil {
		return nil, WrapInternal("failed to list students", err)
	}
	return students, nil
}

// Get returns one of the actor's students
func (s *StudentService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Student, error) {
	return s.resolve(ctx, actor, id)
}

// Update replaces the student's names and email. The email must stay
// unique across all students.
func (s *StudentService) Update(ctx context.Context, actor Actor, id uuid.UUID, input StudentInput) (*models.Student, error) {
	student, err := s.resolve(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.students.ExistsByEmail(ctx, input.Email, &student.ID)
	if err != nil {
		return nil, WrapInternal("failed to check student email", err)
	}
	if exists {
		return nil, ErrDuplicateStudentEmail
	}

	updatedBy := actor.Username
	student.FirstName = input.FirstName
	student.LastName = input.LastName
	student.Email = input.Email
	student.UpdatedAt = s.now()
	student.UpdatedBy = &updatedBy

	if err := s.students.Update(ctx, student); err != nil {
		return nil, mapStudentWriteError("failed to update student", err)
	}

	s.auditor.StudentChanged(ctx, models.AuditActionStudentUpdated, actor.ID, student.ID)
	return student, nil
}

// Delete removes one of the actor's students
func (s *StudentService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.resolve(ctx, actor, id); err != nil {
		return err
	}

	if err := s.students.Delete(ctx, id); err != nil {
		return mapStudentWriteError("failed to delete student", err)
	}

	s.auditor.StudentChanged(ctx, models.AuditActionStudentDeleted, actor.ID, id)
	s.logger.Info("student deleted",
		zap.String("student_id", id.String()),
		zap.String("teacher_id", actor.ID.String()))
	return nil
}

func (s *StudentService) resolve(ctx context.Context, actor Actor, id uuid.UUID) (*models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, WrapInternal("failed to load student", err)
	}

	if err := s.guard.Authorize(ctx, actor.ID, student); err != nil {
		s.logger.Warn("student access denied",
			zap.String("student_id", id.String()),
			zap.String("teacher_id", actor.ID.String()))
		return nil, err
	}
	return student, nil
}

func mapStudentWriteError(message string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicateStudentEmail):
		return ErrDuplicateStudentEmail
	case errors.Is(err, repositories.ErrNotFound):
		return ErrStudentNotFound
	}
	return WrapInternal(message, err)
}
