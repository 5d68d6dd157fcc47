// Package httpapi exposes the account, agenda, forum and BMI operations as
// a JSON REST API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/manup/agenda/internal/logging"
	"github.com/manup/agenda/internal/server/auth"
	"github.com/manup/agenda/internal/server/models"
	"github.com/manup/agenda/internal/server/ratelimit"
	"github.com/manup/agenda/internal/server/services"
)

const (
	requestTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20

	rateWindow             = time.Minute
	rateLimitRegister      = 5
	rateLimitLogin         = 12
	rateLimitResetRequest  = 5
	rateLimitResetComplete = 10
)

type AuthService interface {
	Register(ctx context.Context, email, password, displayName string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	Profile(ctx context.Context, accountID string) (*models.Account, error)
	RequestPasswordReset(ctx context.Context, email string) error
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
}

type AppointmentService interface {
	Create(ctx context.Context, accountID, title string, scheduledAt time.Time, description string) (*models.Appointment, error)
	List(ctx context.Context, accountID string) ([]*models.Appointment, error)
	SetStatus(ctx context.Context, accountID, id string, status models.AppointmentStatus) (*models.Appointment, error)
	Delete(ctx context.Context, accountID, id string) error
}

type ForumService interface {
	CreatePost(ctx context.Context, accountID, body, attachmentKey string) (*models.ForumPost, error)
	ListPosts(ctx context.Context, cursor string, limit int) (*services.PostPage, error)
	DeletePost(ctx context.Context, accountID, id string) error
	AttachmentUploadURL(ctx context.Context, accountID string) (string, string, error)
	AttachmentURL(ctx context.Context, key string) (string, error)
}

// Deps are the collaborators of the router. Limiter and Health may be nil.
type Deps struct {
	Auth         AuthService
	Appointments AppointmentService
	Forum        ForumService
	Limiter      ratelimit.Limiter
	Health       func(ctx context.Context) error
	Logger       logging.Logger
}

type Router struct {
	auth         AuthService
	appointments AppointmentService
	forum        ForumService
	limiter      ratelimit.Limiter
	health       func(ctx context.Context) error
	logger       logging.Logger
	metrics      *metrics
	now          func() time.Time
}

func NewRouter(d Deps) *Router {
	logger := d.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Router{
		auth:         d.Auth,
		appointments: d.Appointments,
		forum:        d.Forum,
		limiter:      d.Limiter,
		health:       d.Health,
		logger:       logger.With("module", "http"),
		metrics:      newMetrics(),
		now:          time.Now,
	}
}

// Handler builds the chi mux with all routes mounted.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(rt.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", rt.handleHealth)
	r.Method(http.MethodGet, "/metrics", rt.metrics.handler())
	r.Post("/bmi", rt.handleBMI)

	r.Route("/auth", func(r chi.Router) {
		r.With(rt.rateLimit("register", rateLimitRegister)).Post("/register", rt.handleRegister)
		r.With(rt.rateLimit("login", rateLimitLogin)).Post("/login", rt.handleLogin)
		r.With(rt.rateLimit("reset-request", rateLimitResetRequest)).Post("/reset-request", rt.handleResetRequest)
		r.With(rt.rateLimit("reset-complete", rateLimitResetComplete)).Post("/reset-complete", rt.handleResetComplete)
		r.With(rt.requireAuth).Get("/me", rt.handleProfile)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Use(rt.requireAuth)
		r.Get("/", rt.handleListAppointments)
		r.Post("/", rt.handleCreateAppointment)
		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/status", rt.handleSetAppointmentStatus)
			r.Delete("/", rt.handleDeleteAppointment)
		})
	})

	r.Route("/forum", func(r chi.Router) {
		r.Get("/posts", rt.handleListPosts)
		r.Get("/attachments", rt.handleAttachmentURL)
		r.Group(func(r chi.Router) {
			r.Use(rt.requireAuth)
			r.Post("/posts", rt.handleCreatePost)
			r.Delete("/posts/{id}", rt.handleDeletePost)
			r.Post("/attachments", rt.handleAttachmentUpload)
		})
	})

	return r
}
