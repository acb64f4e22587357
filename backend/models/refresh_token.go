package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the persisted form of an opaque refresh token. Only the
// SHA-256 hash of the token is stored. Tokens rotated from the same login
// share a FamilyID so reuse of a spent token can revoke the whole chain.
type RefreshToken struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TeacherID uuid.UUID  `json:"teacher_id" db:"teacher_id"`
	FamilyID  uuid.UUID  `json:"family_id" db:"family_id"`
	TokenHash string     `json:"-" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UsedAt    *time.Time `json:"used_at,omitempty" db:"used_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}

// TableName returns the table name for the RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// NewRefreshToken creates a token record. A zero familyID starts a new family.
func NewRefreshToken(teacherID, familyID uuid.UUID, tokenHash string, expiresAt time.Time) *RefreshToken {
	if familyID == uuid.Nil {
		familyID = uuid.New()
	}
	return &RefreshToken{
		ID:        uuid.New(),
		TeacherID: teacherID,
		FamilyID:  familyID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
}

// IsUsable reports whether the token can still be exchanged at now
func (r *RefreshToken) IsUsable(now time.Time) bool {
	return r.UsedAt == nil && r.RevokedAt == nil && now.Before(r.ExpiresAt)
}
