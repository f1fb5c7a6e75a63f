package middleware

import (
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "go-gin-user-admin/internal/transport/http/response"
)

// Recovery panic 记录堆栈并返回 500 JSON
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(l, true, func(c *gin.Context, _ any) {
		resp.Abort(c, resp.CodeInternal, "internal server error")
	})
}
