package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appadvisor "github.com/bryanwahyu/wifi-survey/internal/application/advisor"
	appenv "github.com/bryanwahyu/wifi-survey/internal/application/environments"
	appsurveys "github.com/bryanwahyu/wifi-survey/internal/application/surveys"
	appusers "github.com/bryanwahyu/wifi-survey/internal/application/users"
	"github.com/bryanwahyu/wifi-survey/internal/domain/advisor"
	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/logger"
	"github.com/bryanwahyu/wifi-survey/internal/middleware"
)

const defaultMaxUploadBytes = 1 << 20

// Deps are the services and settings the HTTP layer is built from
type Deps struct {
	Surveys      *appsurveys.Service
	Environments *appenv.Service
	Users        *appusers.Service
	Advisor      *appadvisor.Service

	Checkers       map[string]middleware.HealthChecker
	RateLimiter    *middleware.RateLimiter
	Log            *logger.Logger
	MaxUploadBytes int64
	CORSOrigins    []string
}

type Router struct {
	surveys      *appsurveys.Service
	environments *appenv.Service
	users        *appusers.Service
	advisor      *appadvisor.Service

	validator      *middleware.Validator
	log            *logger.Logger
	maxUploadBytes int64
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = defaultMaxUploadBytes
	}
	r := &Router{
		surveys:        d.Surveys,
		environments:   d.Environments,
		users:          d.Users,
		advisor:        d.Advisor,
		validator:      middleware.NewValidator(),
		log:            d.Log,
		maxUploadBytes: d.MaxUploadBytes,
	}

	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.RequestLogger(d.Log))
	mux.Use(middleware.Metrics)
	if len(d.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Archive-URL"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(d.Checkers))
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Handle("/metrics", middleware.MetricsHandler())

	limit := func(next http.Handler) http.Handler { return next }
	if d.RateLimiter != nil {
		limit = d.RateLimiter.Middleware
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.With(limit).Post("/register", r.wrap(r.handleRegister))

		rt.Group(func(rt chi.Router) {
			rt.Use(middleware.BasicAuth(d.Users, "wifi-survey"))
			rt.Use(limit)

			rt.Get("/environments", r.wrap(r.handleListEnvironments))
			rt.Post("/environments", r.wrap(r.handleCreateEnvironment))
			rt.Route("/environments/{id}", func(rt chi.Router) {
				rt.Get("/", r.wrap(r.handleGetEnvironment))
				rt.Delete("/", r.wrap(r.handleDeleteEnvironment))
				rt.Post("/uploads", r.wrap(r.handleUpload))
				rt.Get("/uploads", r.wrap(r.handleListUploads))
				rt.Get("/scans", r.wrap(r.handleListScans))
				rt.Get("/export", r.wrap(r.handleExport))
				rt.Post("/advice", r.wrap(r.handleAdvice))
			})

			rt.Put("/scans/{id}/remarks", r.wrap(r.handleUpdateRemarks))
			rt.Put("/scans/{id}/rogue", r.wrap(r.handleSetRogue))
			rt.Post("/scans/rogue", r.wrap(r.handleBulkRogue))

			rt.Route("/admin", func(rt chi.Router) {
				rt.Use(middleware.RequireAdmin)
				rt.Get("/dashboard", r.wrap(r.handleDashboard))
				rt.Get("/users", r.wrap(r.handleListUsers))
				rt.Post("/users/{id}/approve", r.wrap(r.handleApproveUser))
				rt.Delete("/users/{id}", r.wrap(r.handleRejectUser))
				rt.Put("/users/{id}/role", r.wrap(r.handleAssignRole))
			})
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest is a malformed request detected by the HTTP layer itself
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func errBadRequest(format string, args ...any) error {
	return badRequest{msg: fmt.Sprintf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var (
			verrs  middleware.ValidationErrors
			bad    badRequest
			tooBig *http.MaxBytesError
		)
		switch {
		case errors.As(err, &verrs):
			middleware.WriteErrorDetails(w, http.StatusBadRequest, "validation failed", verrs)
		case errors.As(err, &bad):
			middleware.WriteError(w, http.StatusBadRequest, bad.msg)
		case errors.As(err, &tooBig):
			middleware.WriteError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file exceeds the %d byte upload limit", tooBig.Limit))
		case errors.Is(err, shared.ErrNotFound):
			middleware.WriteError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, shared.ErrUnauthorized):
			middleware.WriteError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, shared.ErrForbidden):
			middleware.WriteError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, surveys.ErrConcurrentUpload), errors.Is(err, shared.ErrConflict):
			middleware.WriteError(w, http.StatusConflict, err.Error())
		case errors.Is(err, shared.ErrValidation):
			middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, advisor.ErrQuotaExceeded):
			middleware.WriteError(w, http.StatusTooManyRequests, "ai quota exceeded")
		case errors.Is(err, advisor.ErrDisabled):
			middleware.WriteError(w, http.StatusServiceUnavailable, err.Error())
		default:
			r.log.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
			middleware.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into dst and runs its validation tags
func (r *Router) decode(req *http.Request, dst any) error {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		return errBadRequest("invalid JSON body: %v", err)
	}
	return r.validator.Validate(dst)
}

func idParam(req *http.Request) (int64, error) {
	raw := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadRequest("invalid id %q", raw)
	}
	return id, nil
}
