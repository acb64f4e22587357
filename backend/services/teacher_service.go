package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/models"
	"github.com/upb/teach-portal/backend/repositories"
	"go.uber.org/zap"
)

// TeacherService exposes teacher profiles. Profiles are readable by any
// authenticated teacher; rosters only by their owner.
type TeacherService struct {
	teachers repositories.TeacherRepository
	students repositories.StudentRepository
	logger   *zap.Logger
}

// NewTeacherService creates a new teacher service
func NewTeacherService(teachers repositories.TeacherRepository, students repositories.StudentRepository, logger *zap.Logger) *TeacherService {
	return &TeacherService{
		teachers: teachers,
		students: students,
		logger:   logger,
	}
}

// List returns every teacher with their student count
func (s *TeacherService) List(ctx context.Context) ([]*models.TeacherWithCount, error) {
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, WrapInternal("failed to list teachers", err)
	}
	return teachers, nil
}

// Get returns a single teacher profile
func (s *TeacherService) Get(ctx context.Context, id uuid.UUID) (*models.TeacherWithCount, error) {
	teacher, err := s.teachers.GetWithCount(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTeacherNotFound
		}
		return nil, WrapInternal("failed to load teacher", err)
	}
	return teacher, nil
}

// Me returns the actor's own profile
func (s *TeacherService) Me(ctx context.Context, actor Actor) (*models.TeacherWithCount, error) {
	if actor.ID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	return s.Get(ctx, actor.ID)
}

// ListStudents returns teacherID's roster. Only the teacher themself may
// read it.
func (s *TeacherService) ListStudents(ctx context.Context, actor Actor, teacherID uuid.UUID) ([]*models.Student, error) {
	if actor.ID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	if _, err := s.Get(ctx, teacherID); err != nil {
		return nil, err
	}

	if teacherID != actor.ID {
		s.logger.Warn("roster access denied",
			zap.String("teacher_id", teacherID.String()),
			zap.String("actor_id", actor.ID.String()))
		return nil, ErrForbidden
	}

	students, err := s.students.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, WrapInternal("failed to list students", err)
	}
	return students, nil
}
