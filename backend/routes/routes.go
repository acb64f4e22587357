package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/teach-portal/backend/app"
	"github.com/upb/teach-portal/backend/middleware"
	"github.com/upb/teach-portal/backend/utils"
	"go.uber.org/zap"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestInfo)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", deps.HealthHandler.HandleHealth)
	r.Get("/health/ready", deps.HealthHandler.HandleReadiness)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", deps.AuthHandler.HandleLogin)
		r.Post("/register", deps.AuthHandler.HandleRegister)
		r.Post("/refresh", deps.AuthHandler.HandleRefresh)
		r.Post("/logout", deps.AuthHandler.HandleLogout)

		// reads the bearer token itself and answers 401 on any failure
		r.Post("/validate-token", deps.AuthHandler.HandleValidateToken)
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Route("/teachers", func(r chi.Router) {
			r.Get("/", deps.TeacherHandler.HandleList)
			r.Get("/me", deps.TeacherHandler.HandleMe)
			r.Get("/{id}", deps.TeacherHandler.HandleGet)
			r.Get("/{id}/students", deps.TeacherHandler.HandleListStudents)
		})

		r.Route("/students", func(r chi.Router) {
			r.Get("/", deps.StudentHandler.HandleList)
			r.Post("/", deps.StudentHandler.HandleCreate)
			r.Get("/{id}", deps.StudentHandler.HandleGet)
			r.Put("/{id}", deps.StudentHandler.HandleUpdate)
			r.Delete("/{id}", deps.StudentHandler.HandleDelete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if err := utils.WriteNotFound(w, "endpoint not found"); err != nil {
			deps.Logger.Error("failed to write response", zap.Error(err))
		}
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		if err := utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil); err != nil {
			deps.Logger.Error("failed to write response", zap.Error(err))
		}
	})

	return r
}
