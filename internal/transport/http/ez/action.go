// Package ez 一行注册带绑定、鉴权、事务与统一错误映射的 gin 接口。
package ez

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kapp-api/internal/domain"
	"kapp-api/internal/service"
	mdw "kapp-api/internal/transport/http/middleware"
	resp "kapp-api/internal/transport/http/response"
)

// EZ 路由分组 + 用例容器
type EZ struct {
	g   *gin.RouterGroup
	svc *service.Container
}

func New(g *gin.RouterGroup, svc *service.Container) EZ { return EZ{g: g, svc: svc} }

// Group 派生子分组，可追加中间件
func (e EZ) Group(path string, h ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, h...), svc: e.svc}
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindURI   Binder = "uri"   // 从路径参数 :id 绑定
	BindNone  Binder = "none"  // 不绑定
)

// AErr 传输层错误，直接指定业务码
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// Action 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string   // "GET" | "POST" | "PUT" | "DELETE"
	Path    string   // 例："/auth/login"、"/meals/:id"
	Binder  Binder   // 绑定方式
	Auth    bool     // 是否要求登录（检查 userId）
	Roles   []string // 限定角色（可选）
	UseTx   bool     // 是否包事务（Container.Transaction）
	Handler func(c *gin.Context, svc *service.Container, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth {
			if mdw.UserID(c) <= 0 {
				resp.Write(c, resp.Error(resp.CodeUnauthorized, "unauthorized"))
				return
			}
			if len(a.Roles) > 0 && !slices.Contains(a.Roles, c.GetString(mdw.KeyRole)) {
				resp.Write(c, resp.Error(resp.CodeForbidden, "forbidden"))
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindURI:
			bindErr = c.ShouldBindUri(&in)
		}
		if bindErr != nil {
			resp.Write(c, resp.Error(bindCode(bindErr), BindMessage(bindErr)))
			return
		}

		// 3) 执行（可选事务）
		var out O
		var err error
		if a.UseTx {
			err = e.svc.Transaction(c.Request.Context(), func(tx *service.Container) error {
				o, herr := a.Handler(c, tx, &in)
				out = o
				return herr
			})
		} else {
			out, err = a.Handler(c, e.svc, &in)
		}

		// 4) 统一错误映射
		if err != nil {
			writeError(c, e.svc.Log(), err)
			return
		}
		resp.Write(c, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

func writeError(c *gin.Context, l *zap.Logger, err error) {
	_ = c.Error(err)
	var ae *AErr
	if errors.As(err, &ae) {
		if ae.Code >= resp.CodeServerError {
			logInternal(c, l, err)
			resp.Write(c, resp.Error(ae.Code, ae.Msg))
			return
		}
		resp.Write(c, resp.Error(ae.Code, ae.Error()))
		return
	}
	if domain.KindOf(err) == 0 {
		logInternal(c, l, err)
	}
	resp.Write(c, resp.FromError(err))
}

func logInternal(c *gin.Context, l *zap.Logger, err error) {
	l.Error("request failed",
		zap.String("rid", mdw.RequestIDOf(c)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
}
