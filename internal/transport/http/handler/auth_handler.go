package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-user-admin/internal/core/auth"
	"go-gin-user-admin/internal/domain"
	"go-gin-user-admin/internal/service"
	"go-gin-user-admin/internal/transport/http/ez"
	mdw "go-gin-user-admin/internal/transport/http/middleware"
	"go-gin-user-admin/internal/transport/http/response"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// 登录先于其他模块挂载
func (h *AuthHandler) Priority() int { return 10 }

type loginIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) MountAPI(public, protected ez.EZ) {
	ez.Register(public, ez.Action[loginIn, *service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (*service.LoginResult, error) {
			return h.svc.Login(c.Request.Context(), in.Email, in.Password)
		},
	})

	ez.Register(protected, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			uid, ok := auth.UserIDFrom(c.Request.Context())
			if !ok {
				return nil, domain.ErrUnauthenticated
			}
			return h.svc.WhoAmI(c.Request.Context(), uid)
		},
	})

	ez.Register(protected, ez.Action[struct{}, response.MessageBody]{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (response.MessageBody, error) {
			if err := h.svc.Logout(c.Request.Context(), mdw.ClaimsFrom(c)); err != nil {
				return response.MessageBody{}, err
			}
			return response.Message("logged out"), nil
		},
	})
}
