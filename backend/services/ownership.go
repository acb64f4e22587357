package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/models"
)

// Actor is the authenticated teacher performing a request
type Actor struct {
	ID       uuid.UUID
	Username string
	FullName string
}

// OwnershipRule reports whether accountID may access student
type OwnershipRule func(accountID uuid.UUID, student *models.Student) bool

// OwnedBy grants access only to the student's own teacher
func OwnedBy(accountID uuid.UUID, student *models.Student) bool {
	return student != nil && student.BelongsTo(accountID)
}

// Guard applies an OwnershipRule to resolved students
type Guard struct {
	rule    OwnershipRule
	auditor Auditor
}

// NewGuard creates a guard. A nil rule means OwnedBy.
func NewGuard(rule OwnershipRule, auditor Auditor) *Guard {
	if rule == nil {
		rule = OwnedBy
	}
	if auditor == nil {
		auditor = NopAuditor{}
	}
	return &Guard{rule: rule, auditor: auditor}
}

// Authorize checks accountID against an already resolved student.
// uuid.Nil means the caller has no usable identity.
func (g *Guard) Authorize(ctx context.Context, accountID uuid.UUID, student *models.Student) error {
	if accountID == uuid.Nil {
		return ErrUnauthenticated
	}
	if !g.rule(accountID, student) {
		if student != nil {
			g.auditor.AccessDenied(ctx, accountID, student.ID)
		}
		return ErrForbidden
	}
	return nil
}
