package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/upb/teach-portal/backend/models"
)

func TestOwnedBy(t *testing.T) {
	owner := uuid.New()
	student := models.NewStudent(owner, "Grace", "Hopper", "grace@x.com", "t1")

	assert.True(t, OwnedBy(owner, student))
	assert.False(t, OwnedBy(uuid.New(), student))
	assert.False(t, OwnedBy(owner, nil))
}

func TestGuard_Authorize(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	student := models.NewStudent(owner, "Grace", "Hopper", "grace@x.com", "t1")

	tests := []struct {
		name      string
		accountID uuid.UUID
		wantErr   error
	}{
		{"owner allowed", owner, nil},
		{"other teacher forbidden", other, ErrForbidden},
		{"missing identity unauthenticated", uuid.Nil, ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditor := &recordingAuditor{}
			guard := NewGuard(nil, auditor)

			err := guard.Authorize(context.Background(), tt.accountID, student)

			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.Empty(t, auditor.Events())
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGuard_AuditsDenials(t *testing.T) {
	auditor := &recordingAuditor{}
	guard := NewGuard(nil, auditor)
	student := models.NewStudent(uuid.New(), "Grace", "Hopper", "grace@x.com", "t1")

	_ = guard.Authorize(context.Background(), uuid.New(), student)

	assert.Equal(t, []string{"access_denied"}, auditor.Events())
}

func TestGuard_CustomRule(t *testing.T) {
	admin := uuid.New()
	rule := func(accountID uuid.UUID, s *models.Student) bool {
		return accountID == admin || OwnedBy(accountID, s)
	}
	guard := NewGuard(rule, nil)
	student := models.NewStudent(uuid.New(), "Grace", "Hopper", "grace@x.com", "t1")

	assert.NoError(t, guard.Authorize(context.Background(), admin, student))
	assert.ErrorIs(t, guard.Authorize(context.Background(), uuid.New(), student), ErrForbidden)
}
