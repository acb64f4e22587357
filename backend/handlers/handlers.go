package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/models"
	"github.com/upb/teach-portal/backend/services"
	"github.com/upb/teach-portal/backend/utils"
	"go.uber.org/zap"
)

// TeacherResponse is the public projection of a teacher. It never carries
// the password hash.
type TeacherResponse struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	FullName     string    `json:"fullName"`
	StudentCount int       `json:"studentCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// StudentResponse represents a student in API responses
type StudentResponse struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	TeacherID   uuid.UUID `json:"teacherId"`
	TeacherName string    `json:"teacherName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AuthResponse is returned by login, register and refresh
type AuthResponse struct {
	Token        string          `json:"token"`
	RefreshToken string          `json:"refreshToken"`
	Expires      time.Time       `json:"expires"`
	Teacher      TeacherResponse `json:"teacher"`
}

func toTeacherResponse(t *models.TeacherWithCount) TeacherResponse {
	return TeacherResponse{
		ID:           t.ID,
		Username:     t.Username,
		Email:        t.Email,
		FirstName:    t.FirstName,
		LastName:     t.LastName,
		FullName:     t.FullName(),
		StudentCount: t.StudentCount,
		CreatedAt:    t.CreatedAt,
	}
}

func toStudentResponse(s *models.Student) StudentResponse {
	return StudentResponse{
		ID:          s.ID,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		FullName:    s.FullName(),
		Email:       s.Email,
		TeacherID:   s.TeacherID,
		TeacherName: s.TeacherName,
		CreatedAt:   s.CreatedAt,
	}
}

func toStudentResponses(students []*models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, toStudentResponse(s))
	}
	return out
}

func toAuthResponse(result *services.AuthResult) AuthResponse {
	return AuthResponse{
		Token:        result.Token,
		RefreshToken: result.RefreshToken,
		Expires:      result.ExpiresAt.UTC(),
		Teacher:      toTeacherResponse(result.Teacher),
	}
}

// decodeAndValidate reads the JSON body into dst and runs struct
// validation. It writes the 400 response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		logger.Debug("failed to decode request body", zap.Error(err))
		if err := utils.WriteBadRequest(w, "Invalid request body", nil); err != nil {
			logger.Error("failed to write response", zap.Error(err))
		}
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}
