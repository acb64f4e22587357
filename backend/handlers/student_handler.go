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

// StudentRequest is the body of POST /students and PUT /students/{id}
type StudentRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
}

func (r StudentRequest) input() services.StudentInput {
	return services.StudentInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
	}
}

// StudentService defines the student operations used by the handler
type StudentService interface {
	Create(ctx context.Context, actor services.Actor, input services.StudentInput) (*models.Student, error)
	ListMine(ctx context.Context, actor services.Actor) ([]*models.Student, error)
	Get(ctx context.Context, actor services.Actor, id uuid.UUID) (*models.Student, error)
	Update(ctx context.Context, actor services.Actor, id uuid.UUID, input services.StudentInput) (*models.Student, error)
	Delete(ctx context.Context, actor services.Actor, id uuid.UUID) error
}

// StudentHandler handles student CRUD requests for the authenticated teacher
type StudentHandler struct {
	service StudentService
	logger  *zap.Logger
}

// NewStudentHandler creates a new StudentHandler
func NewStudentHandler(service StudentService, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /students
func (h *StudentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.ListMine(r.Context(), middleware.ActorFromContext(r.Context()))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.WriteOK(w, toStudentResponses(students)); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleCreate handles POST /students
func (h *StudentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req StudentRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	student, err := h.service.Create(r.Context(), middleware.ActorFromContext(r.Context()), req.input())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.WriteCreated(w, toStudentResponse(student)); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleGet handles GET /students/{id}
func (h *StudentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	student, err := h.service.Get(r.Context(), middleware.ActorFromContext(r.Context()), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.WriteOK(w, toStudentResponse(student)); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleUpdate handles PUT /students/{id}
func (h *StudentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	var req StudentRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	student, err := h.service.Update(r.Context(), middleware.ActorFromContext(r.Context()), id, req.input())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := utils.WriteOK(w, toStudentResponse(student)); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

// HandleDelete handles DELETE /students/{id}
func (h *StudentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

func (h *StudentHandler) studentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return uuid.Nil, false
	}
	return id, true
}
