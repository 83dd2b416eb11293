// Package web is the JSON HTTP surface: address search, location browsing,
// accounts and review submission.
//
// Routes
//
//	GET    /healthz
//	POST   /search
//	GET    /countries
//	GET    /countries/{country}/states
//	GET    /countries/{country}/states/{state}/cities
//	GET    /countries/{country}/states/{state}/cities/{city}/reviews
//	POST   /register
//	POST   /login                       (rate limited per client IP)
//	POST   /logout
//	GET    /profile                     (auth)
//	POST   /forgot-username
//	POST   /password-reset
//	POST   /password-reset/confirm
//	POST   /reviews                     (auth)
//	DELETE /reviews                     (auth)
//
// Sessions are signed cookies holding the username and the path the user
// was sent away from when they hit an auth-required route.
package web

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/sntnmjones/RentalApp/hierarchy"
	"github.com/sntnmjones/RentalApp/internal/auth"
	"github.com/sntnmjones/RentalApp/model"
)

// Locations is the part of the hierarchy layer the handlers use.
type Locations interface {
	ListCountries(ctx context.Context) ([]string, error)
	ListStates(ctx context.Context, countryName string) ([]string, error)
	ListCities(ctx context.Context, stateName, countryName string) ([]string, error)
	ListReviewsForCity(ctx context.Context, cityName, stateName, countryName string) (map[string][]*model.Review, error)
	ListReviewsForAddress(ctx context.Context, addressID uuid.UUID) ([]*model.Review, error)
	LookupAddress(ctx context.Context, fullAddress string) (*model.Address, error)
	ResolveLocation(ctx context.Context, address *model.Address) (model.Location, error)
	SubmitReview(ctx context.Context, sub hierarchy.ReviewSubmission) (*model.Review, error)
	GetUserReview(ctx context.Context, username, fullAddress string) (*model.Review, error)
	DeleteReview(ctx context.Context, review *model.Review) error
}

// Accounts is the part of the account service the handlers use.
type Accounts interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	ForgotUsername(ctx context.Context, email, baseURL string) error
	RequestPasswordReset(ctx context.Context, email, baseURL string) error
	ConfirmPasswordReset(ctx context.Context, token, password, confirm string) error
	Profile(ctx context.Context, username string) (*auth.Profile, error)
}

// Config holds the HTTP layer settings.
type Config struct {
	BaseURL       string
	SessionName   string
	SessionSecret string
	SessionMaxAge time.Duration
	SecureCookie  bool
	LoginRate     float64
	LoginBurst    int
}

// Handler serves every route.
type Handler struct {
	locations Locations
	accounts  Accounts
	sessions  sessions.Store
	cfg       Config
	limiter   *loginLimiter
	logger    *log.Logger
	router    *mux.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New builds the router.
func New(locations Locations, accounts Accounts, cfg Config, opts ...Option) *Handler {
	if cfg.SessionName == "" {
		cfg.SessionName = "rentalapp_session"
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge := int(cfg.SessionMaxAge / time.Second); maxAge > 0 {
		store.MaxAge(maxAge)
	}

	h := &Handler{
		locations: locations,
		accounts:  accounts,
		sessions:  store,
		cfg:       cfg,
		limiter:   newLoginLimiter(cfg.LoginRate, cfg.LoginBurst),
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.router = h.routes()
	return h
}

func (h *Handler) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.accessLog)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no such route"})
	})

	authed := h.requireAuth

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.HandleFunc("/search", h.search).Methods(http.MethodPost)

	r.HandleFunc("/countries", h.listCountries).Methods(http.MethodGet)
	r.HandleFunc("/countries/{country}/states", h.listStates).Methods(http.MethodGet)
	r.HandleFunc("/countries/{country}/states/{state}/cities", h.listCities).Methods(http.MethodGet)
	r.HandleFunc("/countries/{country}/states/{state}/cities/{city}/reviews", h.cityReviews).Methods(http.MethodGet)

	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/login", use(h.login, h.rateLimitLogin)).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	r.HandleFunc("/profile", use(h.profile, authed)).Methods(http.MethodGet)
	r.HandleFunc("/forgot-username", h.forgotUsername).Methods(http.MethodPost)
	r.HandleFunc("/password-reset", h.passwordReset).Methods(http.MethodPost)
	r.HandleFunc("/password-reset/confirm", h.passwordResetConfirm).Methods(http.MethodPost)

	r.HandleFunc("/reviews", use(h.submitReview, authed)).Methods(http.MethodPost)
	r.HandleFunc("/reviews", use(h.deleteReview, authed)).Methods(http.MethodDelete)

	return r
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
