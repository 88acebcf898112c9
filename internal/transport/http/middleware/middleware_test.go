package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"kapp-api/internal/core/auth"
	resp "kapp-api/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthJWT(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("k"), Issuer: "kapp", TTL: time.Hour}
	r := gin.New()
	r.GET("/me", AuthJWT(j, ""), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": UserID(c), "role": c.GetString(KeyRole)})
	})
	r.GET("/admin", AuthJWT(j, auth.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	userTok, err := j.Issue(7, "kim@koreatech.ac.kr", auth.RoleUser)
	require.NoError(t, err)
	adminTok, err := j.Issue(1, "admin@koreatech.ac.kr", auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		code   float64
	}{
		{"missing", "/me", "", resp.CodeUnauthorized},
		{"not bearer", "/me", "Basic abc", resp.CodeUnauthorized},
		{"garbage", "/me", "Bearer abc", resp.CodeUnauthorized},
		{"wrong role", "/admin", "Bearer " + userTok, resp.CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := do(r, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.code, decode(t, w)["code"])
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+userTok)
	body := decode(t, do(r, req))
	assert.Equal(t, float64(7), body["uid"])
	assert.Equal(t, auth.RoleUser, body["role"])

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminTok)
	assert.Equal(t, http.StatusNoContent, do(r, req).Code)
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(60, 2))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		return do(r, req)
	}

	w := call("10.0.0.1")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "1", w.Header().Get(HeaderRateLimitRemaining))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1").Code)

	w = call("10.0.0.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(resp.CodeTooManyRequests), decode(t, w)["code"])
	assert.Equal(t, "0", w.Header().Get(HeaderRateLimitRemaining))

	// 其他 IP 不受影响
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2").Code)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })

	w := do(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, float64(resp.CodeTimeout), decode(t, w)["code"])
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(resp.CodeServerError), decode(t, w)["code"])
	assert.NotEmpty(t, w.Header().Get(KeyRequestID))
}

func TestRequestIDPassthrough(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestIDOf(c)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "abc-123")
	w := do(r, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(KeyRequestID))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "bad id\nforged")
	w = do(r, req)
	assert.NotEqual(t, "bad id\nforged", w.Body.String())
	assert.Len(t, w.Body.String(), 36)
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := do(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":"0123456789"}`)))
	assert.Equal(t, float64(resp.CodeTooLarge), decode(t, w)["code"])

	w = do(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAccessLogMasksAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	do(r, httptest.NewRequest(http.MethodGet, "/ok?password=hunter2&date=2025-03-10", nil))
	do(r, httptest.NewRequest(http.MethodGet, "/fail", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	q, ok := entries[0].ContextMap()["query"].(url.Values)
	require.True(t, ok)
	assert.Equal(t, []string{"****"}, q["password"])
	assert.Equal(t, []string{"2025-03-10"}, q["date"])
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusBadGateway), entries[1].ContextMap()["status"])
	assert.NotContains(t, entries[1].ContextMap(), "query")
}
