package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-user-admin/internal/core/auth"
	resp "go-gin-user-admin/internal/transport/http/response"
)

const (
	KeyUserID = "userId"
	KeyClaims = "claims"
)

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthJWT 要求 Authorization: Bearer <token>，各类失败均为 401 但消息不同
func AuthJWT(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if ah == "" {
			resp.Abort(c, resp.CodeUnauthenticated, "missing authorization header")
			return
		}
		tok, ok := bearerToken(ah)
		if !ok {
			resp.Abort(c, resp.CodeUnauthenticated, "malformed authorization header")
			return
		}
		claims, err := v.VerifyToken(c.Request.Context(), tok)
		if err != nil {
			resp.Abort(c, resp.CodeUnauthenticated, tokenFailure(err))
			return
		}
		c.Set(KeyUserID, claims.UID)
		c.Set(KeyClaims, claims)
		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), claims.UID))
		c.Next()
	}
}

func bearerToken(h string) (string, bool) {
	tok, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || tok == "" || strings.ContainsAny(tok, " \t") {
		return "", false
	}
	return tok, true
}

func tokenFailure(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "token revoked"
	default:
		return "invalid token"
	}
}

// ClaimsFrom 取出鉴权中间件写入的 claims
func ClaimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return nil
	}
	cl, _ := v.(*auth.Claims)
	return cl
}
