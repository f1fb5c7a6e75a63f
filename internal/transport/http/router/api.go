package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-gin-user-admin/internal/core/config"
	"go-gin-user-admin/internal/core/server"
	"go-gin-user-admin/internal/service"
	"go-gin-user-admin/internal/transport/http/ez"
	"go-gin-user-admin/internal/transport/http/handler"
	mdw "go-gin-user-admin/internal/transport/http/middleware"
	"go-gin-user-admin/internal/transport/http/response"
)

type Deps struct {
	Log    *zap.Logger
	Auth   *service.AuthService
	Users  *service.UserService
	Limits config.Limits
	// CORSOrigins 为空时允许所有来源
	CORSOrigins []string
	// Detail 为 true 时 500 响应附带错误详情（非生产环境）
	Detail bool
	// Health 探活依赖（数据库 redis 等），可为空
	Health func(ctx context.Context) error
}

func NewAPIEngine(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := server.NewRouter(d.CORSOrigins)

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.Recovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)
	r.Use(limits(d.Limits)...)

	r.GET("/health", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health(c.Request.Context()); err != nil {
				d.Log.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rnd := response.NewRenderer(d.Log, d.Detail)
	public := r.Group("")
	protected := r.Group("")
	protected.Use(mdw.AuthJWT(d.Auth))

	var reg Registry
	reg.Register(handler.NewAuthHandler(d.Auth), handler.NewUserHandler(d.Users))
	reg.MountAll(ez.New(public, rnd), ez.New(protected, rnd))

	r.NoRoute(func(c *gin.Context) {
		response.Abort(c, response.CodeNotFound, "route not found")
	})
	return r
}

// limits 按配置启用，值为 0 的项跳过
func limits(l config.Limits) []gin.HandlerFunc {
	var hs []gin.HandlerFunc
	if l.RPS > 0 {
		hs = append(hs, mdw.RateLimit(rate.Limit(l.RPS), max(l.Burst, 1)))
	}
	if l.PerIPRPS > 0 {
		hs = append(hs, mdw.RateLimitPerIP(rate.Limit(l.PerIPRPS), max(l.PerIPBurst, 1)))
	}
	if l.MaxConcurrent > 0 {
		hs = append(hs, mdw.ConcurrencyLimit(l.MaxConcurrent))
	}
	if l.MaxBodyBytes > 0 {
		hs = append(hs, mdw.MaxBodyBytes(l.MaxBodyBytes))
	}
	if l.TimeoutSec > 0 {
		hs = append(hs, mdw.Timeout(time.Duration(l.TimeoutSec)*time.Second))
	}
	return hs
}
