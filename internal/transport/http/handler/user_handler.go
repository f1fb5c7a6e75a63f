package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-user-admin/internal/domain"
	"go-gin-user-admin/internal/service"
	"go-gin-user-admin/internal/transport/http/ez"
	"go-gin-user-admin/internal/transport/http/response"
)

// UserHandler /users 资源，全部需要登录
type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) MountAPI(_, protected ez.EZ) {
	ez.Register(protected, ez.Action[struct{}, []domain.User]{
		Method: http.MethodGet,
		Path:   "/users",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.User, error) {
			return h.svc.List(c.Request.Context())
		},
	})

	ez.Register(protected, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.svc.Get(c.Request.Context(), c.Param("id"))
		},
	})

	ez.Register(protected, ez.Action[service.CreateUserInput, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: ez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.CreateUserInput) (*domain.User, error) {
			return h.svc.Create(c.Request.Context(), *in)
		},
	})

	ez.Register(protected, ez.Action[service.UpdateUserInput, *domain.User]{
		Method: http.MethodPut,
		Path:   "/users/:id",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.UpdateUserInput) (*domain.User, error) {
			return h.svc.Update(c.Request.Context(), c.Param("id"), *in)
		},
	})

	ez.Register(protected, ez.Action[struct{}, response.MessageBody]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (response.MessageBody, error) {
			if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
				return response.MessageBody{}, err
			}
			return response.Message("user deleted"), nil
		},
	})
}
