package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"wathaci-connect/internal/config"
	"wathaci-connect/internal/domain/ports/repository"
	"wathaci-connect/internal/infra/logging"
	"wathaci-connect/internal/usecase"
)

type Server struct {
	paymentUC   usecase.PaymentUseCase
	statsUC     usecase.StatsUseCase
	webhookLogs repository.WebhookLogRepository
	auth        *AuthManager
	gatewayCfg  config.GatewayConfig
	log         *zerolog.Logger

	httpSrv *http.Server
}

func NewServer(
	cfg *config.Config,
	paymentUC usecase.PaymentUseCase,
	statsUC usecase.StatsUseCase,
	webhookLogs repository.WebhookLogRepository,
	logger *zerolog.Logger,
) *Server {
	compLog := logger.With().Str("component", "WebServer").Logger()
	s := &Server{
		paymentUC:   paymentUC,
		statsUC:     statsUC,
		webhookLogs: webhookLogs,
		auth:        NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TTL),
		gatewayCfg:  cfg.Gateway,
		log:         &compLog,
	}
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the route table. Exported so tests can exercise the exact
// production routing without opening a socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.traceMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// The webhook is authenticated by its HMAC signature, not a bearer
		// token; it must stay outside the auth middleware.
		r.Post("/payments/webhook", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/payments", s.handleInitialize)
			r.Post("/payments/verify", s.handleVerify)
			r.Get("/payments/{reference}", s.handleGetPayment)
			r.Get("/webhooks/{reference}", s.handleListWebhookLogs)
			r.Get("/stats", s.handleStats)
		})
	})
	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// traceMiddleware assigns each request a trace id and stashes it in the
// context so every log line downstream can be correlated.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Request-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", traceID)
		next.ServeHTTP(w, r.WithContext(logging.WithTraceID(r.Context(), traceID)))
	})
}

// authMiddleware validates the bearer token and stores the caller's user id
// in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(logging.WithUserID(r.Context(), claims.Subject)))
	})
}

//
// ---- response envelope ----
//

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: false, Error: msg})
}
