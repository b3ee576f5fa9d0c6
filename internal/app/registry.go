package app

import (
	"net/http"
	"time"

	"go-leave-assistant/internal/actor"
	"go-leave-assistant/internal/assistant"
	"go-leave-assistant/internal/balance"
	"go-leave-assistant/internal/config"
	"go-leave-assistant/internal/intent"
	"go-leave-assistant/internal/leave"
	"go-leave-assistant/internal/messaging/kafka"
	"go-leave-assistant/internal/middleware"
	"go-leave-assistant/internal/rbac"
	"go-leave-assistant/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func newClassifier(cfg *config.Config, logger *zap.Logger) *intent.Classifier {
	var oracle intent.Oracle
	if cfg.Oracle.Enabled() {
		oracle = intent.NewHTTPOracle(intent.OracleConfig{
			URL:    cfg.Oracle.URL,
			APIKey: cfg.Oracle.APIKey,
			Model:  cfg.Oracle.Model,
		}, &http.Client{Timeout: cfg.Oracle.Timeout}, logger)
	} else {
		logger.Warn("no classification oracle configured, using rule table only")
	}
	return intent.NewClassifier(oracle, cfg.Oracle.Timeout, time.Now, logger)
}

func registerModules(router *gin.Engine, cfg *config.Config, infra *Infra, logger *zap.Logger) error {
	db, gormDB, rdb := infra.SQLDB, infra.GormDB, infra.Redis

	// --- Repositories ---
	actorRepo := actor.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := rbac.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(enforcer, logger)

	// --- Services ---
	ledger := balance.NewLedger(balanceRepo, logger)
	balanceService := balance.NewService(db, ledger, rdb, logger)
	leaveService := leave.NewService(db, leaveRepo, ledger, counterRepo, outboxRepo, balanceService, time.Now, logger)
	assistantService := assistant.NewService(newClassifier(cfg, logger), leaveService, balanceService, actorRepo, time.Now, logger)

	// --- Handlers ---
	balanceHandler := balance.NewHandler(balanceService, actorRepo, time.Now, logger)
	leaveHandler := leave.NewHandler(leaveService, logger)
	assistantHandler := assistant.NewHandler(assistantService, logger)

	idempotency := func(c *gin.Context) { c.Next() }
	if rdb != nil {
		idempotency = middleware.Idempotency(rdb, logger)
	}
	perUser := middleware.RateLimitByUser(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(
		middleware.AuthMiddleware(cfg.JWTSecret, actorRepo),
		middleware.ContextLogger(logger),
	)
	{
		assistant.RegisterRoutes(api, assistantHandler, rbacService, perUser, idempotency)
		balance.RegisterRoutes(api, balanceHandler, rbacService)
		leave.RegisterRoutes(api, leaveHandler, rbacService, idempotency)
	}

	return nil
}
