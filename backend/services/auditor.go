package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/models"
)

// Auditor records security-relevant events. Implementations must not block.
type Auditor interface {
	LoginSucceeded(ctx context.Context, teacherID uuid.UUID)
	LoginFailed(ctx context.Context, username, reason string)
	TeacherRegistered(ctx context.Context, teacher *models.Teacher)
	TokenRefreshed(ctx context.Context, teacherID, familyID uuid.UUID)
	RefreshTokenReused(ctx context.Context, teacherID, familyID uuid.UUID)
	LoggedOut(ctx context.Context, teacherID, familyID uuid.UUID)
	StudentChanged(ctx context.Context, action models.AuditAction, teacherID, studentID uuid.UUID)
	AccessDenied(ctx context.Context, teacherID, studentID uuid.UUID)
}

// NopAuditor discards every event. Used when auditing is disabled.
type NopAuditor struct{}

func (NopAuditor) LoginSucceeded(context.Context, uuid.UUID) {}
func (NopAuditor) LoginFailed(context.Context, string, string) {}
func (NopAuditor) TeacherRegistered(context.Context, *models.Teacher) {}
func (NopAuditor) TokenRefreshed(context.Context, uuid.UUID, uuid.UUID) {}
func (NopAuditor) RefreshTokenReused(context.Context, uuid.UUID, uuid.UUID) {}
func (NopAuditor) LoggedOut(context.Context, uuid.UUID, uuid.UUID) {}
func (NopAuditor) StudentChanged(context.Context, models.AuditAction, uuid.UUID, uuid.UUID) {}
func (NopAuditor) AccessDenied(context.Context, uuid.UUID, uuid.UUID) {}
