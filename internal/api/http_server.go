package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	healthPath          = "/healthz"
	requestIDHeader     = "X-Request-Id"
	authorizationHeader = "Authorization"
)

// Services bundles what the HTTP API calls into.
type Services struct {
	Bookings domain.BookingService
	Users    domain.UserService
	Items    domain.ItemService
}

// HTTPServer exposes the booking API over JSON/HTTP.
type HTTPServer struct {
	cfg    config.APIConfig
	svc    Services
	actors *ActorResolver
	writes *WriteLimiter
	clock  domain.Clock
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, writes *WriteLimiter, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	httpLogger := logger.With().Str("component", "http").Logger()

	srv := &HTTPServer{
		cfg:    cfg,
		svc:    svc,
		actors: NewActorResolver(cfg.Auth),
		writes: writes,
		clock:  domain.SystemClock{},
		auth:   NewHTTPAuth(cfg),
		logger: &httpLogger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+healthPath, srv.handleHealth)

	mux.HandleFunc("POST /users", srv.handleCreateUser)
	mux.HandleFunc("GET /users/{id}", srv.handleGetUser)

	mux.HandleFunc("POST /items", srv.withWriter(srv.handleCreateItem))
	mux.HandleFunc("GET /items", srv.withActor(srv.handleListItems))
	mux.HandleFunc("GET /items/{id}", srv.withActor(srv.handleGetItem))
	mux.HandleFunc("PATCH /items/{id}", srv.withWriter(srv.handleUpdateItem))

	mux.HandleFunc("POST /bookings", srv.withWriter(srv.handleCreateBooking))
	mux.HandleFunc("PATCH /bookings/{id}", srv.withWriter(srv.handleApproveBooking))
	mux.HandleFunc("GET /bookings/{id}", srv.withActor(srv.handleGetBooking))
	mux.HandleFunc("GET /bookings", srv.withActor(srv.handleListBookings))
	mux.HandleFunc("GET /bookings/owner", srv.withActor(srv.handleListOwnerBookings))
	mux.HandleFunc("GET /bookings/owner/export", srv.withActor(srv.handleExportOwnerBookings))

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type actorHandler func(w http.ResponseWriter, r *http.Request, actorID int64)

func (s *HTTPServer) withActor(next actorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := s.actors.Resolve(r.Header.Get(s.actors.Header()), r.Header.Get(authorizationHeader))
		if err != nil {
			writeServiceError(w, s.logger, err)
			return
		}
		next(w, r, actorID)
	}
}

// withWriter is withActor plus the per-actor write limit.
func (s *HTTPServer) withWriter(next actorHandler) http.HandlerFunc {
	return s.withActor(func(w http.ResponseWriter, r *http.Request, actorID int64) {
		if !s.writes.Allow(r.Context(), actorID) {
			writeServiceError(w, s.logger, errRateLimited)
			return
		}
		next(w, r, actorID)
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(route, recorder.status, dur)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
