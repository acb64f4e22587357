package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/teach-portal/backend/services"
	"github.com/upb/teach-portal/backend/utils"
	"go.uber.org/zap"
)

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

func authResult(count int) *services.AuthResult {
	return &services.AuthResult{
		Token:        "header.payload.signature",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC),
		Teacher:      sampleTeacher(count),
	}
}

func TestAuthHandler_Register(t *testing.T) {
	svc := new(MockAuthService)
	handler := NewAuthHandler(svc, zap.NewNop())

	input := services.RegisterInput{
		Username:        "t1",
		Email:           "t1@x.com",
		FirstName:       "A",
		LastName:        "B",
		Password:        "Passw0rd!",
		ConfirmPassword: "Passw0rd!",
	}
	svc.On("Register", mock.Anything, input).Return(authResult(0), nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(t, map[string]string{
		"username":        "t1",
		"email":           "t1@x.com",
		"firstName":       "A",
		"lastName":        "B",
		"password":        "Passw0rd!",
		"confirmPassword": "Passw0rd!",
	}))
	w := httptest.NewRecorder()

	handler.HandleRegister(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response AuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "t1", response.Teacher.Username)
	assert.Equal(t, 0, response.Teacher.StudentCount)
	assert.Equal(t, "header.payload.signature", response.Token)
	assert.Equal(t, "refresh-token", response.RefreshToken)
	assert.True(t, response.Expires.Equal(time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)))
	assert.NotContains(t, w.Body.String(), "hash")
	svc.AssertExpectations(t)
}

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      map[string]string
		wantField string
	}{
		{
			name: "missing username",
			body: map[string]string{
				"email": "t1@x.com", "firstName": "A", "lastName": "B",
				"password": "Passw0rd!", "confirmPassword": "Passw0rd!",
			},
			wantField: "username",
		},
		{
			name: "invalid email",
			body: map[string]string{
				"username": "t1", "email": "not-an-email", "firstName": "A", "lastName": "B",
				"password": "Passw0rd!", "confirmPassword": "Passw0rd!",
			},
			wantField: "email",
		},
		{
			name: "password too short",
			body: map[string]string{
				"username": "t1", "email": "t1@x.com", "firstName": "A", "lastName": "B",
				"password": "Pa0!", "confirmPassword": "Pa0!",
			},
			wantField: "password",
		},
		{
			name: "password lacks complexity",
			body: map[string]string{
				"username": "t1", "email": "t1@x.com", "firstName": "A", "lastName": "B",
				"password": "password", "confirmPassword": "password",
			},
			wantField: "password",
		},
		{
			name: "confirmation mismatch",
			body: map[string]string{
				"username": "t1", "email": "t1@x.com", "firstName": "A", "lastName": "B",
				"password": "Passw0rd!", "confirmPassword": "Passw0rd?",
			},
			wantField: "confirmPassword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			handler := NewAuthHandler(svc, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(t, tt.body))
			w := httptest.NewRecorder()

			handler.HandleRegister(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, "validation_error", response.Error)
			assert.Contains(t, response.Details, tt.wantField)
			svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	svc := new(MockAuthService)
	handler := NewAuthHandler(svc, zap.NewNop())
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, services.ErrDuplicateUsername)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(t, map[string]string{
		"username": "t1", "email": "t1@x.com", "firstName": "A", "lastName": "B",
		"password": "Passw0rd!", "confirmPassword": "Passw0rd!",
	}))
	w := httptest.NewRecorder()

	handler.HandleRegister(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Username already exists")
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		setupMock   func(*MockAuthService)
		wantStatus  int
		wantMessage string
	}{
		{
			name: "success",
			body: `{"username":"t1","password":"Passw0rd!"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, services.LoginInput{Username: "t1", Password: "Passw0rd!"}).
					Return(authResult(3), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "invalid credentials",
			body: `{"username":"t1","password":"wrong-password"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, mock.Anything).Return(nil, services.ErrInvalidCredentials)
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid username or password",
		},
		{
			name: "deactivated",
			body: `{"username":"t1","password":"Passw0rd!"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, mock.Anything).Return(nil, services.ErrAccountDeactivated)
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Account is deactivated",
		},
		{
			name: "throttled",
			body: `{"username":"t1","password":"Passw0rd!"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, mock.Anything).
					Return(nil, services.ErrTooManyAttempts.WithDetail("retryAt", "2026-03-01T12:15:00Z"))
			},
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: "Too many login attempts, try again later",
		},
		{
			name:       "malformed body",
			body:       `{"username":`,
			setupMock:  func(m *MockAuthService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "trailing data",
			body:       `{"username":"t1","password":"Passw0rd!"}{}`,
			setupMock:  func(m *MockAuthService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing password",
			body:       `{"username":"t1"}`,
			setupMock:  func(m *MockAuthService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			tt.setupMock(svc)
			handler := NewAuthHandler(svc, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.HandleLogin(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMessage != "" {
				var response utils.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, tt.wantMessage, response.Message)
			}
			if tt.wantStatus == http.StatusOK {
				var response AuthResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, 3, response.Teacher.StudentCount)
				assert.Equal(t, "Ada Byron", response.Teacher.FullName)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_ValidateToken(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name       string
		setupReq   func(r *http.Request)
		setupMock  func(*MockAuthService)
		wantStatus int
	}{
		{
			name: "valid bearer token",
			setupReq: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer good-token")
			},
			setupMock: func(m *MockAuthService) {
				m.On("ValidateToken", mock.Anything, "good-token").
					Return(services.TokenValidation{Valid: true, AccountID: accountID})
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "valid cookie token",
			setupReq: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})
			},
			setupMock: func(m *MockAuthService) {
				m.On("ValidateToken", mock.Anything, "cookie-token").
					Return(services.TokenValidation{Valid: true, AccountID: accountID})
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "invalid token",
			setupReq: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer expired-token")
			},
			setupMock: func(m *MockAuthService) {
				m.On("ValidateToken", mock.Anything, "expired-token").Return(services.TokenValidation{})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing token",
			setupReq:   func(r *http.Request) {},
			setupMock:  func(m *MockAuthService) {},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			tt.setupMock(svc)
			handler := NewAuthHandler(svc, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/auth/validate-token", nil)
			tt.setupReq(req)
			w := httptest.NewRecorder()

			handler.HandleValidateToken(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				var response ValidateTokenResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.True(t, response.Valid)
				assert.Equal(t, accountID, response.UserID)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("rotates", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Refresh", mock.Anything, "refresh-token").Return(authResult(1), nil)
		handler := NewAuthHandler(svc, zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBufferString(`{"refreshToken":"refresh-token"}`))
		w := httptest.NewRecorder()

		handler.HandleRefresh(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("rejected", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Refresh", mock.Anything, "stale").Return(nil, services.ErrInvalidRefreshToken)
		handler := NewAuthHandler(svc, zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBufferString(`{"refreshToken":"stale"}`))
		w := httptest.NewRecorder()

		handler.HandleRefresh(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		svc := new(MockAuthService)
		handler := NewAuthHandler(svc, zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBufferString(`{}`))
		w := httptest.NewRecorder()

		handler.HandleRefresh(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Logout", mock.Anything, "refresh-token").Return(nil)
	handler := NewAuthHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", bytes.NewBufferString(`{"refreshToken":"refresh-token"}`))
	w := httptest.NewRecorder()

	handler.HandleLogout(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	svc.AssertExpectations(t)
}
