package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Resp 统一信封；HTTP 状态固定 200，业务结果看 Code
type Resp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func New(code int, msg string, data any) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data any) Resp { return New(CodeOK, CodeMsgMap[CodeOK], data) }

// Error customMsg 为空时用 CodeMsgMap 的默认文案
func Error(code int, customMsg string) Resp {
	msg := customMsg
	if msg == "" {
		msg = CodeMsgMap[code]
	}
	return New(code, msg, nil)
}

// Write 输出信封
func Write(c *gin.Context, r Resp) { c.JSON(http.StatusOK, r) }

// Abort 输出信封并终止后续 handler
func Abort(c *gin.Context, r Resp) { c.AbortWithStatusJSON(http.StatusOK, r) }
