package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/teach-portal/backend/models"
	"github.com/upb/teach-portal/backend/repositories"
	"go.uber.org/zap"
)

func newStudentService(repo *MockStudentRepository, auditor *recordingAuditor) *StudentService {
	return NewStudentService(repo, NewGuard(nil, auditor), auditor, zap.NewNop())
}

func testActor() Actor {
	return Actor{ID: uuid.New(), Username: "t1", FullName: "Ada Byron"}
}

func TestStudentService_Create(t *testing.T) {
	repo := new(MockStudentRepository)
	auditor := &recordingAuditor{}
	service := newStudentService(repo, auditor)
	actor := testActor()

	repo.On("ExistsByEmail", mock.Anything, "grace@x.com", (*uuid.UUID)(nil)).Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Student")).Return(nil)

	student, err := service.Create(context.Background(), actor, StudentInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@x.com",
	})

	require.NoError(t, err)
	assert.Equal(t, actor.ID, student.TeacherID)
	assert.Equal(t, "t1", student.CreatedBy)
	assert.Equal(t, "Ada Byron", student.TeacherName)
	assert.Equal(t, []string{"student_created"}, auditor.Events())
	repo.AssertExpectations(t)
}

func TestStudentService_Create_DuplicateEmail(t *testing.T) {
	t.Run("precheck", func(t *testing.T) {
		repo := new(MockStudentRepository)
		service := newStudentService(repo, &recordingAuditor{})
		repo.On("ExistsByEmail", mock.Anything, "grace@x.com", (*uuid.UUID)(nil)).Return(true, nil)

		_, err := service.Create(context.Background(), testActor(), StudentInput{Email: "grace@x.com"})

		assert.ErrorIs(t, err, ErrDuplicateStudentEmail)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("constraint", func(t *testing.T) {
		repo := new(MockStudentRepository)
		service := newStudentService(repo, &recordingAuditor{})
		repo.On("ExistsByEmail", mock.Anything, "grace@x.com", (*uuid.UUID)(nil)).Return(false, nil)
		repo.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrDuplicateStudentEmail)

		_, err := service.Create(context.Background(), testActor(), StudentInput{Email: "grace@x.com"})

		assert.ErrorIs(t, err, ErrDuplicateStudentEmail)
		assert.True(t, IsConflictError(err))
	})
}

func TestStudentService_OwnershipEnforced(t *testing.T) {
	owner := testActor()
	intruder := Actor{ID: uuid.New(), Username: "t2"}
	student := models.NewStudent(owner.ID, "Grace", "Hopper", "grace@x.com", owner.Username)

	operations := map[string]func(s *StudentService, actor Actor) error{
		"get": func(s *StudentService, actor Actor) error {
			_, err := s.Get(context.Background(), actor, student.ID)
			return err
		},
		"update": func(s *StudentService, actor Actor) error {
			_, err := s.Update(context.Background(), actor, student.ID, StudentInput{
				FirstName: "G", LastName: "H", Email: "grace@x.com",
			})
			return err
		},
		"delete": func(s *StudentService, actor Actor) error {
			return s.Delete(context.Background(), actor, student.ID)
		},
	}

	for name, op := range operations {
		t.Run(name+" by intruder", func(t *testing.T) {
			repo := new(MockStudentRepository)
			auditor := &recordingAuditor{}
			repo.On("GetByID", mock.Anything, student.ID).Return(copyStudent(student), nil)

			err := op(newStudentService(repo, auditor), intruder)

			assert.ErrorIs(t, err, ErrForbidden)
			assert.True(t, IsForbiddenError(err))
			repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			assert.Equal(t, []string{"access_denied"}, auditor.Events())
		})

		t.Run(name+" by owner", func(t *testing.T) {
			repo := new(MockStudentRepository)
			repo.On("GetByID", mock.Anything, student.ID).Return(copyStudent(student), nil)
			repo.On("ExistsByEmail", mock.Anything, "grace@x.com", &student.ID).Return(false, nil)
			repo.On("Update", mock.Anything, mock.Anything).Return(nil)
			repo.On("Delete", mock.Anything, student.ID).Return(nil)

			assert.NoError(t, op(newStudentService(repo, &recordingAuditor{}), owner))
		})

		t.Run(name+" missing student", func(t *testing.T) {
			repo := new(MockStudentRepository)
			repo.On("GetByID", mock.Anything, student.ID).Return(nil, repositories.ErrNotFound)

			err := op(newStudentService(repo, &recordingAuditor{}), intruder)

			assert.ErrorIs(t, err, ErrStudentNotFound)
		})
	}
}

func TestStudentService_Update(t *testing.T) {
	actor := testActor()
	student := models.NewStudent(actor.ID, "Grace", "Hopper", "grace@x.com", actor.Username)

	repo := new(MockStudentRepository)
	repo.On("GetByID", mock.Anything, student.ID).Return(student, nil)
	repo.On("ExistsByEmail", mock.Anything, "amazing@x.com", &student.ID).Return(false, nil)
	repo.On("Update", mock.Anything, student).Return(nil)

	updated, err := newStudentService(repo, &recordingAuditor{}).Update(context.Background(), actor, student.ID, StudentInput{
		FirstName: "Amazing",
		LastName:  "Grace",
		Email:     "amazing@x.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "Amazing Grace", updated.FullName())
	assert.Equal(t, "amazing@x.com", updated.Email)
	require.NotNil(t, updated.UpdatedBy)
	assert.Equal(t, "t1", *updated.UpdatedBy)
	repo.AssertExpectations(t)
}

func TestStudentService_Update_EmailTakenByAnother(t *testing.T) {
	actor := testActor()
	student := models.NewStudent(actor.ID, "Grace", "Hopper", "grace@x.com", actor.Username)

	repo := new(MockStudentRepository)
	repo.On("GetByID", mock.Anything, student.ID).Return(student, nil)
	repo.On("ExistsByEmail", mock.Anything, "taken@x.com", &student.ID).Return(true, nil)

	_, err := newStudentService(repo, &recordingAuditor{}).Update(context.Background(), actor, student.ID, StudentInput{Email: "taken@x.com"})

	assert.ErrorIs(t, err, ErrDuplicateStudentEmail)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestStudentService_ListMine(t *testing.T) {
	actor := testActor()
	roster := []*models.Student{
		models.NewStudent(actor.ID, "Grace", "Hopper", "grace@x.com", "t1"),
	}

	repo := new(MockStudentRepository)
	repo.On("ListByTeacher", mock.Anything, actor.ID).Return(roster, nil)

	students, err := newStudentService(repo, &recordingAuditor{}).ListMine(context.Background(), actor)

	require.NoError(t, err)
	assert.Equal(t, roster, students)

	_, err = newStudentService(repo, &recordingAuditor{}).ListMine(context.Background(), Actor{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestStudentService_StoreFailureIsInternal(t *testing.T) {
	repo := new(MockStudentRepository)
	repo.On("GetByID", mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection reset"))

	_, err := newStudentService(repo, &recordingAuditor{}).Get(context.Background(), testActor(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, ErrorTypeInternal, GetErrorType(err))
}

func copyStudent(s *models.Student) *models.Student {
	c := *s
	return &c
}
