package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionLoginSucceeded    AuditAction = "login_succeeded"
	AuditActionLoginFailed       AuditAction = "login_failed"
	AuditActionTeacherRegistered AuditAction = "teacher_registered"
	AuditActionTokenRefreshed    AuditAction = "token_refreshed"
	AuditActionRefreshReuse      AuditAction = "refresh_token_reuse"
	AuditActionLogout            AuditAction = "logout"
	AuditActionStudentCreated    AuditAction = "student_created"
	AuditActionStudentUpdated    AuditAction = "student_updated"
	AuditActionStudentDeleted    AuditAction = "student_deleted"
	AuditActionAccessDenied      AuditAction = "access_denied"
)

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TeacherID    *uuid.UUID      `json:"teacher_id,omitempty" db:"teacher_id"`
	Action       AuditAction     `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"` // teacher, student, token
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details" db:"details"`
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	UserAgent    string          `json:"user_agent" db:"user_agent"`
	RequestID    string          `json:"request_id" db:"request_id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(action AuditAction, resourceType string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		Action:       action,
		ResourceType: resourceType,
		Timestamp:    time.Now().UTC(),
	}
}

// WithTeacher sets the acting teacher
func (a *AuditLog) WithTeacher(teacherID uuid.UUID) *AuditLog {
	a.TeacherID = &teacherID
	return a
}

// WithResource sets the resource ID
func (a *AuditLog) WithResource(resourceID uuid.UUID) *AuditLog {
	a.ResourceID = &resourceID
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID, ipAddress, userAgent string) *AuditLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	a.UserAgent = userAgent
	return a
}
