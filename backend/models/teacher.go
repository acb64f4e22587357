package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Teacher is an account that authenticates and owns students
type Teacher struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	CreatedBy    string    `json:"created_by" db:"created_by"`
	UpdatedBy    *string   `json:"updated_by,omitempty" db:"updated_by"`
}

// TeacherWithCount pairs a teacher with the size of their roster
type TeacherWithCount struct {
	Teacher
	StudentCount int `json:"student_count" db:"student_count"`
}

// TableName returns the table name for the Teacher model
func (Teacher) TableName() string {
	return "teachers"
}

// NewTeacher creates an active Teacher. The account creates itself, so
// CreatedBy is its own username.
func NewTeacher(username, email, firstName, lastName, passwordHash string) *Teacher {
	now := time.Now().UTC()
	return &Teacher{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		CreatedBy:    username,
	}
}

// FullName returns "First Last"
func (t *Teacher) FullName() string {
	return fullName(t.FirstName, t.LastName)
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
