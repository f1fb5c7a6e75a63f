package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "go-gin-user-admin/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小；分块上传超限时由绑定处返回 413
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, resp.CodePayloadTooLarge, "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
