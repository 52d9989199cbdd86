package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/inboundemail/inbound-core/internal/handler"
	"github.com/inboundemail/inbound-core/internal/server/middleware"
)

type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	JWTSecret      string
	APIKeyPrefix   string
	ServiceAPIKey  string
	CORSOrigins    []string
	RateLimitCfg   middleware.RateLimitConfig
	Redis          *redis.Client
	APIKeyLookup   middleware.APIKeyLookup
	APIKeyLastUsed middleware.APIKeyLastUsedUpdate
	Handlers       *handler.Handlers
	Health         *handler.HealthHandler
	Logger         *slog.Logger
}

func New(cfg Config) *http.Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health/readiness (no auth).
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)

	// Auth middleware
	authMw := middleware.Auth(cfg.JWTSecret, cfg.APIKeyPrefix, cfg.APIKeyLookup, cfg.APIKeyLastUsed)
	serviceAuthMw := middleware.ServiceAuth(cfg.ServiceAPIKey)
	rateLimitMw := middleware.RateLimit(cfg.Redis, cfg.RateLimitCfg)
	sendLimitMw := middleware.SendRateLimit(cfg.Redis, cfg.RateLimitCfg)

	// IP-based rate limits for public auth endpoints.
	registerLimitMw := middleware.IPRateLimit(cfg.Redis, 5, time.Minute)
	loginLimitMw := middleware.IPRateLimit(cfg.Redis, 10, time.Minute)

	h := cfg.Handlers

	// Public routes (auth) with stricter IP-based rate limits.
	r.With(registerLimitMw).Post("/auth/register", h.Auth.Register)
	r.With(loginLimitMw).Post("/auth/login", h.Auth.Login)

	// Cloud mailer inbound ingestion callback: authenticated by a
	// single shared service API key, never by the per-caller Auth middleware.
	r.With(serviceAuthMw).Post("/ingest", h.Ingest.Ingest)

	// Authenticated API routes
	r.Group(func(r chi.Router) {
		r.Use(authMw)
		r.Use(rateLimitMw)

		// Domains
		r.Post("/domains", h.Domain.Create)
		r.Get("/domains", h.Domain.List)
		r.Get("/domains/{domainId}", h.Domain.Get)
		r.Patch("/domains/{domainId}", h.Domain.Update)
		r.Delete("/domains/{domainId}", h.Domain.Delete)
		r.Post("/domains/{domainId}/verify", h.Domain.Verify)
		r.Get("/domains/{domainId}/dns-records", h.Domain.DNSRecords)
		r.Get("/domains/{domainId}/catch-all", h.Domain.GetCatchAll)
		r.Put("/domains/{domainId}/catch-all", h.Domain.PutCatchAll)
		r.Delete("/domains/{domainId}/catch-all", h.Domain.DeleteCatchAll)

		// Email addresses
		r.Post("/email-addresses", h.EmailAddress.Create)
		r.Get("/email-addresses", h.EmailAddress.List)
		r.Get("/email-addresses/{emailAddressId}", h.EmailAddress.Get)
		r.Patch("/email-addresses/{emailAddressId}", h.EmailAddress.Update)
		r.Delete("/email-addresses/{emailAddressId}", h.EmailAddress.Delete)

		// Endpoints (webhook/email/email-group destinations; webhooks are Endpoints
		// of type "webhook", not a separate resource).
		r.Post("/endpoints", h.Endpoint.Create)
		r.Get("/endpoints", h.Endpoint.List)
		r.Get("/endpoints/{endpointId}", h.Endpoint.Get)
		r.Patch("/endpoints/{endpointId}", h.Endpoint.Update)
		r.Delete("/endpoints/{endpointId}", h.Endpoint.Delete)
		r.Post("/endpoints/{endpointId}/test", h.Endpoint.Test)

		// Received emails (EmailRecord) + outbound send/reply (Sender/ThreadService).
		r.Get("/emails", h.Email.List)
		r.Get("/emails/{emailId}", h.Email.Get)
		r.Post("/emails/{emailId}/read", h.Email.MarkRead)
		r.Get("/emails/{emailId}/thread", h.Email.Thread)
		r.With(sendLimitMw).Post("/emails", h.Email.Send)
		r.With(sendLimitMw).Post("/emails/{emailId}/reply", h.Email.Reply)

		// API Keys
		r.Post("/api-keys", h.APIKey.Create)
		r.Get("/api-keys", h.APIKey.List)
		r.Delete("/api-keys/{apiKeyId}", h.APIKey.Delete)
	})

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}
