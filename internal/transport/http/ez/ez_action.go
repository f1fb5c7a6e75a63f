package ez

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	mdw "go-gin-user-admin/internal/transport/http/middleware"
	"go-gin-user-admin/internal/transport/http/response"
)

// 绑定方式
type Binder string

const (
	BindJSON Binder = "json" // 从 JSON 绑定
	BindNone Binder = "none" // 不绑定，自己从 c.Param 取
)

type EZ struct {
	g *gin.RouterGroup
	r *response.Renderer
}

func New(g *gin.RouterGroup, r *response.Renderer) EZ { return EZ{g: g, r: r} }

// Action 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "DELETE"
	Path    string // 例："/auth/login"、"/users/:id"
	Binder  Binder
	Auth    bool // 要求鉴权中间件已写入 userId
	Status  int  // 成功状态码，默认 200
	Handler func(c *gin.Context, in *I) (O, error)
}

// Register 在当前 EZ 下注册动作接口
func Register[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}

	h := func(c *gin.Context) {
		if a.Auth && c.GetString(mdw.KeyUserID) == "" {
			response.Abort(c, response.CodeUnauthenticated, "unauthenticated")
			return
		}

		var in I
		if a.Binder == BindJSON {
			if err := c.ShouldBindJSON(&in); err != nil {
				e.r.BadBody(c, err)
				return
			}
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			e.r.Fail(c, err)
			return
		}
		c.JSON(status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}
