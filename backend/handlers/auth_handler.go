package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/middleware"
	"github.com/upb/teach-portal/backend/services"
	"github.com/upb/teach-portal/backend/utils"
	"go.uber.org/zap"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email,max=255"`
	FirstName       string `json:"firstName" validate:"required,max=100"`
	LastName        string `json:"lastName" validate:"required,max=100"`
	Password        string `json:"password" validate:"required,min=6,max=100,password_complexity"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// RefreshRequest is the body of POST /auth/refresh and POST /auth/logout
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ValidateTokenResponse is returned by POST /auth/validate-token
type ValidateTokenResponse struct {
	Valid  bool      `json:"valid"`
	UserID uuid.UUID `json:"userId"`
}

// AuthService defines the auth operations used by the handler
type AuthService interface {
	Login(ctx context.Context, input services.LoginInput) (*services.AuthResult, error)
	Register(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error)
	ValidateToken(ctx context.Context, token string) services.TokenValidation
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	service AuthService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Login(r.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, toAuthResponse(result)); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Register(r.Context(), services.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteCreated(w, toAuthResponse(result)); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleValidateToken handles POST /auth/validate-token. The bearer token
// is checked here rather than by RequireAuth so the result is the service's
// own verdict.
func (h *AuthHandler) HandleValidateToken(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r)
	if token == "" {
		if err := utils.WriteUnauthorized(w, "Missing or invalid authorization"); err != nil {
			h.logger.Error("failed to write response", zap.Error(err))
		}
		return
	}

	result := h.service.ValidateToken(r.Context(), token)
	if !result.Valid {
		if err := utils.WriteUnauthorized(w, "Invalid or expired token"); err != nil {
			h.logger.Error("failed to write response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteOK(w, ValidateTokenResponse{Valid: true, UserID: result.AccountID}); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleRefresh handles POST /auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, toAuthResponse(result)); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleLogout handles POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}
