package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"go-gin-user-admin/internal/core/auth"
	"go-gin-user-admin/internal/core/cache"
	"go-gin-user-admin/internal/core/config"
	"go-gin-user-admin/internal/core/database"
	"go-gin-user-admin/internal/core/logger"
	"go-gin-user-admin/internal/core/server"
	"go-gin-user-admin/internal/domain"
	"go-gin-user-admin/internal/repo"
	"go-gin-user-admin/internal/service"
	"go-gin-user-admin/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()
	restore := logger.RedirectStdLog(log, zapcore.InfoLevel)
	defer restore()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(&domain.User{}); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// redis 可选：黑名单 + 用户缓存
	var rc *cache.Cache
	if cfg.Redis.Enabled {
		rc = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rc.Ping(pctx)
		cancel()
		if err != nil {
			log.Fatal("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer rc.Close()
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL(),
		Leeway: cfg.JWT.Leeway(),
	}
	userRepo := repo.NewUserRepo(db)
	userSvc := service.NewUserService(userRepo, log.Named("users"),
		service.WithCache(rc, time.Duration(cfg.Redis.UserCacheTTLSec)*time.Second))
	authSvc := service.NewAuthService(userRepo, jwter, rc, log.Named("auth"))

	if cfg.Seed.Enabled {
		seed(userSvc, cfg.Seed, log)
	}

	r := router.NewAPIEngine(router.Deps{
		Log:         log,
		Auth:        authSvc,
		Users:       userSvc,
		Limits:      cfg.Limits,
		CORSOrigins: cfg.App.HTTP.CORSOrigins,
		Detail:      !cfg.App.IsProduction(),
		Health: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return rc.Ping(ctx)
		},
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("env", cfg.App.Env),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("user api stopped with error", zap.Error(err))
		return
	}
}

// seed 启动时确保初始账号存在（幂等）
func seed(users *service.UserService, s config.Seed, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	created, err := users.EnsureUser(ctx, service.CreateUserInput{
		Name:     s.Name,
		Email:    s.Email,
		Role:     domain.Role(s.Role),
		Password: s.Password,
	})
	if err != nil {
		log.Fatal("seed user failed", zap.Error(err))
	}
	if created {
		log.Info("seed user created", zap.String("email", s.Email))
	}
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                l.Named("gorm"),
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
