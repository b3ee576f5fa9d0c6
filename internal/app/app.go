package app

import (
	"context"
	"database/sql"

	"go-leave-assistant/internal/bootstrap"
	"go-leave-assistant/internal/config"
	"go-leave-assistant/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra holds the shared connections of one process.
type Infra struct {
	GormDB *gorm.DB
	SQLDB  *sql.DB
	Redis  *redis.Client
}

func (i *Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.SQLDB != nil {
		_ = i.SQLDB.Close()
	}
}

// HealthChecks exposes the infra connections to /health.
func (i *Infra) HealthChecks() map[string]bootstrap.HealthCheck {
	checks := map[string]bootstrap.HealthCheck{
		"postgres": func(ctx context.Context) error { return i.SQLDB.PingContext(ctx) },
	}
	if i.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return i.Redis.Ping(ctx).Err() }
	}
	return checks
}

func connectDB(cfg *config.Config) (*gorm.DB, *sql.DB, error) {
	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.DB.Host,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Name,
		cfg.DB.Port,
		cfg.DB.SSLMode,
		cfg.ConnectRetries,
	)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return gormDB, sqlDB, nil
}

// Connect opens Postgres and Redis. Redis is optional: without it the
// balance cache and idempotency keys are disabled.
func Connect(cfg *config.Config, logger *zap.Logger) (*Infra, error) {
	gormDB, sqlDB, err := connectDB(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	infra := &Infra{GormDB: gormDB, SQLDB: sqlDB}
	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.ConnectRetries)
	if err != nil {
		if cfg.IsProduction() {
			infra.Close()
			return nil, err
		}
		logger.Warn("redis unavailable, running without cache", zap.Error(err))
	} else {
		infra.Redis = rdb
		logger.Info("redis connection established")
	}
	return infra, nil
}

// BuildApp connects the infrastructure and registers every module on a new
// engine.
func BuildApp(cfg *config.Config, logger *zap.Logger) (*gin.Engine, *Infra, error) {
	infra, err := Connect(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	router := bootstrap.NewEngine(cfg, infra.HealthChecks())
	if err := registerModules(router, cfg, infra, logger); err != nil {
		infra.Close()
		return nil, nil, err
	}
	return router, infra, nil
}
