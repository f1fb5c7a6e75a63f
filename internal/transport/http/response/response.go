package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-user-admin/internal/domain"
)

const internalMsg = "internal server error"

// ErrorBody 统一错误响应；message 仅在非生产环境的 500 中出现
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type MessageBody struct {
	Message string `json:"message"`
}

func Message(msg string) MessageBody { return MessageBody{Message: msg} }

// Abort 以 code 对应的状态码终止请求
func Abort(c *gin.Context, code, msg string) {
	c.AbortWithStatusJSON(StatusOf(code), ErrorBody{Error: msg, Code: code})
}

// Classify 按错误分类得到 code 与对外消息
func Classify(err error) (code, msg string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return CodeValidation, ve.Msg
	case errors.Is(err, domain.ErrValidation):
		return CodeValidation, domain.ErrValidation.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return CodeInvalidCredentials, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		return CodeUnauthenticated, domain.ErrUnauthenticated.Error()
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound, domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrConflict):
		return CodeConflict, domain.ErrConflict.Error()
	case isBodyTooLarge(err):
		return CodePayloadTooLarge, "request body too large"
	default:
		return CodeInternal, internalMsg
	}
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// Renderer 负责把错误写成响应，500 记录日志
type Renderer struct {
	Log *zap.Logger
	// Detail 为 true 时 500 响应附带原始错误
	Detail bool
}

func NewRenderer(l *zap.Logger, detail bool) *Renderer {
	if l == nil {
		l = zap.NewNop()
	}
	return &Renderer{Log: l, Detail: detail}
}

func (r *Renderer) Fail(c *gin.Context, err error) {
	code, msg := Classify(err)
	body := ErrorBody{Error: msg, Code: code}
	if code == CodeInternal {
		r.Log.Error("request failed",
			zap.String("rid", c.Writer.Header().Get("X-Request-ID")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		if r.Detail {
			body.Message = err.Error()
		}
	}
	c.AbortWithStatusJSON(StatusOf(code), body)
}

// BadBody 请求体无法解析
func (r *Renderer) BadBody(c *gin.Context, err error) {
	if isBodyTooLarge(err) {
		Abort(c, CodePayloadTooLarge, "request body too large")
		return
	}
	Abort(c, CodeValidation, "invalid request body")
}
