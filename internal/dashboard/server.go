// Package dashboard serves the admin web application: directories, editors, detail
// pages, the live view and the zone configurator.
package dashboard

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"guardly-cli/internal/forms"
	"guardly-cli/internal/livefeed"
	"guardly-cli/internal/logging"
	"guardly-cli/internal/metrics"
	"guardly-cli/pkg/models"
)

// API is everything the dashboard reads and writes through the REST client.
type API interface {
	forms.CameraAPI
	forms.UserAPI
	GetCameras(ctx context.Context) ([]models.Camera, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetClients(ctx context.Context) ([]models.Client, error)
	LiveURL(cameraID int64) (string, error)
}

type Config struct {
	API           API
	PageSize      int
	SessionSecret string
	CacheTTL      time.Duration
	ConfigTTL     time.Duration
	// Feed is the template for every live feed the dashboard opens.
	Feed   livefeed.Options
	MaxFPS float64
	Logger *slog.Logger
}

const sessionName = "guardly_session"

type Server struct {
	api      API
	cfg      Config
	log      *slog.Logger
	sessions sessions.Store
	refs     *cache.Cache
	configs  *registry
	views    *renderer
	upgrader websocket.Upgrader

	registry    *prometheus.Registry
	feedMetrics *metrics.Feed
}

func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.ConfigTTL <= 0 {
		cfg.ConfigTTL = 15 * time.Minute
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		cfg.Logger.Warn("dashboard.session_secret not set, flash messages will not survive a restart")
	}
	store := sessions.NewCookieStore(secret)
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Path = "/"

	views, err := newRenderer()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector(cfg.API, cfg.Logger))
	feedMetrics := metrics.NewFeed(reg)
	cfg.Feed.Metrics = feedMetrics
	if cfg.Feed.Logger == nil {
		cfg.Feed.Logger = cfg.Logger
	}

	return &Server{
		api:         cfg.API,
		cfg:         cfg,
		log:         cfg.Logger,
		sessions:    store,
		refs:        cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		configs:     newRegistry(cfg.ConfigTTL, cfg.Logger),
		views:       views,
		upgrader:    websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 64 * 1024},
		registry:    reg,
		feedMetrics: feedMetrics,
	}, nil
}

// Routes returns the chi router with every dashboard route.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logging(s.log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/cameras", http.StatusFound)
	})
	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(s.log.Handler(), slog.LevelError),
	}))

	r.Route("/cameras", func(r chi.Router) {
		r.Get("/", s.cameraList)
		r.Get("/new", s.cameraNew)
		r.Post("/new", s.cameraCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.cameraDetail)
			r.Get("/edit", s.cameraEdit)
			r.Post("/edit", s.cameraUpdate)
			r.Get("/live", s.livePage)
			r.Get("/live/ws", s.liveSocket)
			r.Get("/config", s.configPage)
			r.Post("/config", s.configAction)
			r.Get("/config/still.png", s.configStill)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.userList)
		r.Get("/new", s.userNew)
		r.Post("/new", s.userCreate)
		r.Get("/{id}", s.userDetail)
		r.Get("/{id}/edit", s.userEdit)
		r.Post("/{id}/edit", s.userUpdate)
	})

	return r
}

// Close releases every open configurator session and its live feed.
func (s *Server) Close() {
	s.configs.closeAll()
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// plans returns the cached subscription plans.
func (s *Server) plans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	if v, ok := s.refs.Get("plans"); ok {
		return v.([]models.SubscriptionPlan), nil
	}
	plans, err := s.api.GetSubscriptionPlans(ctx)
	if err != nil {
		return nil, err
	}
	s.refs.SetDefault("plans", plans)
	return plans, nil
}

// clients returns the cached client list for the camera owner selector.
func (s *Server) clients(ctx context.Context) ([]models.Client, error) {
	if v, ok := s.refs.Get("clients"); ok {
		return v.([]models.Client), nil
	}
	clients, err := s.api.GetClients(ctx)
	if err != nil {
		return nil, err
	}
	s.refs.SetDefault("clients", clients)
	return clients, nil
}
