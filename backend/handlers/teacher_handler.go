package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/teach-portal/backend/middleware"
	"github.com/upb/teach-portal/backend/models"
	"github.com/upb/teach-portal/backend/services"
	"github.com/upb/teach-portal/backend/utils"
	"go.uber.org/zap"
)

// TeacherService defines the teacher operations used by the handler
type TeacherService interface {
	List(ctx context.Context) ([]*models.TeacherWithCount, error)
	Get(ctx context.Context, id uuid.UUID) (*models.TeacherWithCount, error)
	Me(ctx context.Context, actor services.Actor) (*models.TeacherWithCount, error)
	ListStudents(ctx context.Context, actor services.Actor, teacherID uuid.UUID) ([]*models.Student, error)
}

// TeacherHandler handles teacher profile requests
type TeacherHandler struct {
	service TeacherService
	logger  *zap.Logger
}

// NewTeacherHandler creates a new TeacherHandler
func NewTeacherHandler(service TeacherService, logger *zap.Logger) *TeacherHandler {
	return &TeacherHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /teachers
func (h *TeacherHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.service.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	response := make([]TeacherResponse, 0, len(teachers))
	for _, t := range teachers {
		response = append(response, toTeacherResponse(t))
	}
	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleMe handles GET /teachers/me
func (h *TeacherHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	teacher, err := h.service.Me(r.Context(), middleware.ActorFromContext(r.Context()))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.WriteOK(w, toTeacherResponse(teacher)); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleGet handles GET /teachers/{id}
func (h *TeacherHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	teacher, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.WriteOK(w, toTeacherResponse(teacher)); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleListStudents handles GET /teachers/{id}/students
func (h *TeacherHandler) HandleListStudents(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	students, err := h.service.ListStudents(r.Context(), middleware.ActorFromContext(r.Context()), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.WriteOK(w, toStudentResponses(students)); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
