package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"go-gin-user-admin/internal/core/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// jwtVerifier 用真实 JWTer，外加一个被拉黑的 jti
type jwtVerifier struct {
	j       *auth.JWTer
	revoked string
}

func (v jwtVerifier) VerifyToken(_ context.Context, tok string) (*auth.Claims, error) {
	c, err := v.j.Parse(tok)
	if err != nil {
		return nil, err
	}
	if c.ID == v.revoked {
		return nil, auth.ErrTokenRevoked
	}
	return c, nil
}

func TestAuthJWT_Failures(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("s"), Issuer: "test", TTL: time.Hour}
	good, _, err := j.Issue("u1")
	require.NoError(t, err)
	revoked, rc, err := j.Issue("u1")
	require.NoError(t, err)
	stale := *j
	stale.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := stale.Issue("u1")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthJWT(jwtVerifier{j: j, revoked: rc.ID}), func(c *gin.Context) {
		uid, _ := auth.UserIDFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"gin": c.GetString(KeyUserID), "ctx": uid})
	})

	cases := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{"missing", "", 401, "missing authorization header"},
		{"no scheme", good, 401, "malformed authorization header"},
		{"lowercase scheme", "bearer " + good, 401, "malformed authorization header"},
		{"empty token", "Bearer ", 401, "malformed authorization header"},
		{"extra part", "Bearer " + good + " x", 401, "malformed authorization header"},
		{"garbage", "Bearer abc.def.ghi", 401, "invalid token"},
		{"expired", "Bearer " + expired, 401, "token expired"},
		{"revoked", "Bearer " + revoked, 401, "token revoked"},
		{"ok", "Bearer " + good, 200, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(r, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == 200 {
				assert.JSONEq(t, `{"gin":"u1","ctx":"u1"}`, w.Body.String())
				return
			}
			assert.JSONEq(t, `{"error":"`+tc.msg+`","code":"UNAUTHENTICATED"}`, w.Body.String())
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(KeyRequestID), 36)
	assert.Equal(t, w.Header().Get(KeyRequestID), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(KeyRequestID, "abc")
	assert.Equal(t, "abc", serve(r, req).Header().Get(KeyRequestID))
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(0.001, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}
	assert.Equal(t, http.StatusNoContent, from("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, from("10.0.0.2"))

	g := gin.New()
	g.Use(RateLimit(0.001, 1))
	g.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, serve(g, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(g, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"too long"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")

	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/", func(c *gin.Context) { <-c.Request.Context().Done() })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "TIMEOUT")
}

func TestConcurrencyLimit(t *testing.T) {
	r := gin.New()
	r.Use(ConcurrencyLimit(1))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// 已取消的请求拿不到信号量时返回 503
	hold := gin.New()
	block := make(chan struct{})
	entered := make(chan struct{})
	hold.Use(ConcurrencyLimit(1))
	hold.GET("/", func(c *gin.Context) {
		close(entered)
		<-block
	})
	go serve(hold, httptest.NewRequest(http.MethodGet, "/", nil))
	<-entered
	w := serve(hold, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	close(block)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/", func(*gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error","code":"INTERNAL"}`, w.Body.String())
	assert.NotZero(t, logs.Len())
}

func TestAccessLog_MasksSecrets(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/x?token=abc&page=2", nil))
	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "/x", ctx["path"])
	assert.NotEmpty(t, ctx["rid"])
	q := ctx["query"].(map[string][]string)
	assert.Equal(t, []string{"****"}, q["token"])
	assert.Equal(t, []string{"2"}, q["page"])
}
