package models

import (
	"time"

	"github.com/google/uuid"
)

// Student is a roster entry owned by exactly one teacher
type Student struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	TeacherID uuid.UUID `json:"teacher_id" db:"teacher_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	UpdatedBy *string   `json:"updated_by,omitempty" db:"updated_by"`

	// TeacherName is the owner's full name, filled by joins; not a column.
	TeacherName string `json:"teacher_name,omitempty" db:"-"`
}

// TableName returns the table name for the Student model
func (Student) TableName() string {
	return "students"
}

// NewStudent creates a Student owned by teacherID
func NewStudent(teacherID uuid.UUID, firstName, lastName, email, createdBy string) *Student {
	now := time.Now().UTC()
	return &Student{
		ID:        uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		TeacherID: teacherID,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: createdBy,
	}
}

// FullName returns "First Last"
func (s *Student) FullName() string {
	return fullName(s.FirstName, s.LastName)
}

// BelongsTo reports whether teacherID owns the student
func (s *Student) BelongsTo(teacherID uuid.UUID) bool {
	return s.TeacherID == teacherID
}
