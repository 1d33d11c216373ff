// Package http monta o roteador da API de votação: rotas públicas dos
// totens, rotas do painel administrativo e sondas de saúde.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/feiratec/votacao/internal/admin"
	"github.com/feiratec/votacao/internal/auth"
	"github.com/feiratec/votacao/internal/config"
	"github.com/feiratec/votacao/internal/facematch"
	httpmiddleware "github.com/feiratec/votacao/internal/http/middleware"
	"github.com/feiratec/votacao/internal/relatorio"
	"github.com/feiratec/votacao/internal/storage"
	"github.com/feiratec/votacao/internal/votacao"
)

// Handler agrega as dependências compartilhadas pelas sondas.
type Handler struct {
	pool          *pgxpool.Pool
	redis         *redis.Client
	publicLimiter *httpmiddleware.RateLimiter
	adminLimiter  *httpmiddleware.RateLimiter
}

// NewRouter devolve o roteador configurado com todas as rotas da feira.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client) (http.Handler, error) {
	matcher, err := facematch.New(facematch.Config{
		BaseURL: cfg.FaceMatchURL,
		Timeout: cfg.FaceMatchTimeout,
	})
	if err != nil {
		return nil, err
	}

	var uploader storage.Uploader
	switch cfg.Storage.Provider {
	case "", "noop":
		// fotos ficam apenas no banco
	case "s3", "r2", "cloudflare-r2":
		uploader, err = storage.NewS3Uploader(storage.S3Config{
			Endpoint:     cfg.Storage.S3Endpoint,
			Region:       cfg.Storage.S3Region,
			Bucket:       cfg.Storage.S3Bucket,
			AccessKey:    cfg.Storage.S3AccessKey,
			SecretKey:    cfg.Storage.S3SecretKey,
			PublicDomain: cfg.Storage.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
	default:
		return nil, fmt.Errorf("storage: provedor %s não suportado", cfg.Storage.Provider)
	}

	store := votacao.NewPostgresStore(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)

	votacaoService := votacao.NewService(store, matcher)
	votacaoHandler := votacao.NewHandler(votacaoService)

	relatorioService := relatorio.NewService(store, time.Local)

	adminService := admin.NewService(store, jwtManager, redisClient, uploader, cfg.JWTRefreshTTL)
	adminHandler := admin.NewHandler(adminService, relatorioService)

	h := &Handler{
		pool:          pool,
		redis:         redisClient,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		adminLimiter:  httpmiddleware.NewRateLimiter(cfg.RateLimitAdmin.RequestsPerSecond, cfg.RateLimitAdmin.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		votacaoHandler.RegisterRoutes(public)
	})

	r.Route("/api/admin", func(adminRouter chi.Router) {
		adminRouter.Group(func(public chi.Router) {
			public.Use(httpmiddleware.IPRateLimit(h.adminLimiter))
			adminHandler.RegisterPublicRoutes(public)
		})

		adminRouter.Group(func(private chi.Router) {
			private.Use(httpmiddleware.Auth(jwtManager))
			private.Use(httpmiddleware.RequireAdmin)
			adminHandler.RegisterProtectedRoutes(private)
		})
	})

	return r, nil
}

// Health responde imediatamente; serve para liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready verifica Postgres e Redis antes de aceitar tráfego.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "banco indisponível", nil)
		return
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "redis indisponível", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
