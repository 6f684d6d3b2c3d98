package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/govpub/govpub/backend/go-services/handlers"
	"github.com/govpub/govpub/backend/go-services/internal/app"
	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/internal/config"
	edhandler "github.com/govpub/govpub/backend/go-services/internal/edition/handler"
	"github.com/govpub/govpub/backend/go-services/internal/oidc"
	remhandler "github.com/govpub/govpub/backend/go-services/internal/reminder/handler"
	"github.com/govpub/govpub/backend/go-services/internal/tokens"
	"github.com/govpub/govpub/backend/go-services/pkg/logger"
	"github.com/govpub/govpub/backend/go-services/pkg/metrics"
	"github.com/govpub/govpub/backend/go-services/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v minio=%v", cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to initialise services: %v", err)
	}
	defer a.Close(context.Background())

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	verifier := buildVerifier(ctx, cfg)

	// readiness: every configured backend must answer
	r.GET("/ready", func(c *gin.Context) {
		deps := a.Ready(c.Request.Context())
		deps["auth"] = len(verifier) > 0
		ready := true
		for _, ok := range deps {
			ready = ready && ok
		}
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	api := r.Group("/api/v1", middleware.AuthMiddleware(verifier, func(ctx context.Context, claims map[string]interface{}) error {
		_, err := a.Users.UpsertFromClaims(ctx, claims)
		return err
	}))
	if cfg.RateLimit.Enabled {
		// after auth so authenticated callers are limited per subject
		if cfg.RateLimit.UseRedis && a.Redis != nil {
			api.Use(middleware.RedisRateLimitMiddleware(a.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.Window))
		} else {
			api.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}
	handlers.RegisterMe(api, a.Users)
	edhandler.RegisterEditionRoutes(api, a.Editions)
	remhandler.RegisterReminderRoutes(api, a.Reminders)
	handlers.RegisterTaskRoutes(api, auth.NewRoleAuthorizer(nil), a.Editions, a.Scheduler)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Starting publishing service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("graceful shutdown failed: %v", err)
	}
}

// buildVerifier accepts Keycloak tokens for staff and HMAC tokens for
// service callers. The insecure verifier is only added on explicit opt-in.
func buildVerifier(ctx context.Context, cfg *config.Config) oidc.Chain {
	var chain oidc.Chain
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.Keycloak)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			chain = append(chain, ver)
		}
	}
	if cfg.JWT.Secret != "" {
		chain = append(chain, tokens.NewVerifier(cfg.JWT.Secret))
	}
	if cfg.JWT.AllowInsecure {
		logger.Warn("enabling insecure token verifier (integration mode)")
		chain = append(chain, oidc.NewInsecureVerifier())
	}
	return chain
}
