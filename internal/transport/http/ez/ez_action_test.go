package ez

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"go-gin-user-admin/internal/domain"
	"go-gin-user-admin/internal/transport/http/response"
)

type echoIn struct {
	Name string `json:"name"`
}

func newEngine() (*gin.Engine, EZ) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	return r, New(r.Group(""), response.NewRenderer(nil, false))
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_BindAndStatus(t *testing.T) {
	r, e := newEngine()
	Register(e, Action[echoIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/echo",
		Binder: BindJSON,
		Status: http.StatusCreated,
		Handler: func(_ *gin.Context, in *echoIn) (gin.H, error) {
			return gin.H{"name": in.Name}, nil
		},
	})

	w := do(r, http.MethodPost, "/echo", `{"name":"ana"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"name":"ana"}`, w.Body.String())

	w = do(r, http.MethodPost, "/echo", `{bad`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request body","code":"VALIDATION_ERROR"}`, w.Body.String())
}

func TestRegister_ErrorMapping(t *testing.T) {
	r, e := newEngine()
	Register(e, Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/things/:id",
		Binder: BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if c.Param("id") == "dup" {
				return nil, domain.ErrConflict
			}
			return nil, domain.ErrNotFound
		},
	})

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/things/x", "").Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodGet, "/things/dup", "").Code)
}

func TestRegister_AuthGuard(t *testing.T) {
	r, e := newEngine()
	Register(e, Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/secret",
		Auth:   true,
		Handler: func(*gin.Context, *struct{}) (gin.H, error) {
			return gin.H{"ok": true}, nil
		},
	})

	w := do(r, http.MethodDelete, "/secret", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHENTICATED")
}
