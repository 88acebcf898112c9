package ez

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kapp-api/internal/core/auth"
	"kapp-api/internal/domain"
	"kapp-api/internal/repo/memory"
	"kapp-api/internal/service"
	mdw "kapp-api/internal/transport/http/middleware"
	resp "kapp-api/internal/transport/http/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	SetupValidator()
}

type plainHasher struct{}

func (plainHasher) Encode(raw string) (string, error) { return "h:" + raw, nil }
func (plainHasher) Matches(raw, hash string) bool     { return hash == "h:"+raw }

func newEZ(t *testing.T) (*gin.Engine, EZ, *service.Container) {
	t.Helper()
	svc := service.NewContainer(memory.New(), service.Deps{
		Clock:  domain.FixedClock{T: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)},
		Hasher: plainHasher{},
		JWT:    &auth.JWTer{Secret: []byte("k"), Issuer: "kapp", TTL: time.Hour},
	})
	r := gin.New()
	return r, New(r.Group(""), svc), svc
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func call(t *testing.T, r http.Handler, method, path, body string) envelope {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestBindingErrors(t *testing.T) {
	r, e, _ := newEZ(t)
	type form struct {
		Email      string `json:"email" binding:"required,email"`
		DiningTime string `json:"diningTime" binding:"omitempty,dining_time"`
		Date       string `json:"date" binding:"omitempty,civil_date"`
	}
	RegisterAction(e, Action[form, form]{
		Method: http.MethodPost, Path: "/x", Binder: BindJSON,
		Handler: func(_ *gin.Context, _ *service.Container, in *form) (form, error) { return *in, nil },
	})

	env := call(t, r, http.MethodPost, "/x", `{"email":"nope"}`)
	assert.Equal(t, resp.CodeBadRequest, env.Code)
	assert.Equal(t, "email must be a valid email", env.Msg)

	env = call(t, r, http.MethodPost, "/x", `{"email":"a@b.com","diningTime":"snack","date":"2025-13-01"}`)
	assert.Equal(t, resp.CodeBadRequest, env.Code)
	assert.Contains(t, env.Msg, "diningTime must be one of BREAKFAST, LUNCH, DINNER")
	assert.Contains(t, env.Msg, "date must be a date in YYYY-MM-DD format")

	env = call(t, r, http.MethodPost, "/x", `{"email":"a@b.com","diningTime":"lunch","date":"2025-03-10"}`)
	assert.Equal(t, resp.CodeOK, env.Code)

	env = call(t, r, http.MethodPost, "/x", `{`)
	assert.Equal(t, resp.CodeBadRequest, env.Code)
	assert.True(t, strings.HasPrefix(env.Msg, "invalid request: "))
}

func TestAuthAndRoles(t *testing.T) {
	r, e, _ := newEZ(t)
	ok := func(_ *gin.Context, _ *service.Container, _ *struct{}) (string, error) { return "ok", nil }
	setUser := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set(mdw.KeyUserID, int64(1))
			c.Set(mdw.KeyRole, role)
		}
	}
	RegisterAction(e, Action[struct{}, string]{Method: http.MethodGet, Path: "/anon", Auth: true, Handler: ok})
	RegisterAction(e.Group("/u", setUser(auth.RoleUser)), Action[struct{}, string]{
		Method: http.MethodGet, Path: "/admin", Auth: true, Roles: []string{auth.RoleAdmin}, Handler: ok,
	})
	RegisterAction(e.Group("/a", setUser(auth.RoleAdmin)), Action[struct{}, string]{
		Method: http.MethodGet, Path: "/admin", Auth: true, Roles: []string{auth.RoleAdmin}, Handler: ok,
	})

	assert.Equal(t, resp.CodeUnauthorized, call(t, r, http.MethodGet, "/anon", "").Code)
	assert.Equal(t, resp.CodeForbidden, call(t, r, http.MethodGet, "/u/admin", "").Code)
	env := call(t, r, http.MethodGet, "/a/admin", "")
	assert.Equal(t, resp.CodeOK, env.Code)
	assert.JSONEq(t, `"ok"`, string(env.Data))
}

func TestErrorMapping(t *testing.T) {
	r, e, _ := newEZ(t)
	fail := func(err error) func(*gin.Context, *service.Container, *struct{}) (struct{}, error) {
		return func(*gin.Context, *service.Container, *struct{}) (struct{}, error) { return struct{}{}, err }
	}
	RegisterAction(e, Action[struct{}, struct{}]{Method: http.MethodGet, Path: "/nf", Handler: fail(domain.ErrMealNotFound)})
	RegisterAction(e, Action[struct{}, struct{}]{Method: http.MethodGet, Path: "/dup", Handler: fail(domain.ErrDuplicateEmail)})
	RegisterAction(e, Action[struct{}, struct{}]{Method: http.MethodGet, Path: "/db", Handler: fail(errors.New("dial tcp 10.0.0.1:5432"))})
	RegisterAction(e, Action[struct{}, struct{}]{Method: http.MethodGet, Path: "/aerr", Handler: fail(NotFound("no such thing"))})
	RegisterAction(e, Action[struct{}, struct{}]{Method: http.MethodGet, Path: "/internal", Handler: fail(Internal("issue token failed", errors.New("secret")))})

	env := call(t, r, http.MethodGet, "/nf", "")
	assert.Equal(t, resp.CodeNotFound, env.Code)
	assert.Equal(t, "meal not found", env.Msg)

	assert.Equal(t, resp.CodeConflict, call(t, r, http.MethodGet, "/dup", "").Code)

	env = call(t, r, http.MethodGet, "/db", "")
	assert.Equal(t, resp.CodeServerError, env.Code)
	assert.NotContains(t, env.Msg, "10.0.0.1")

	env = call(t, r, http.MethodGet, "/aerr", "")
	assert.Equal(t, resp.CodeNotFound, env.Code)
	assert.Equal(t, "no such thing", env.Msg)

	env = call(t, r, http.MethodGet, "/internal", "")
	assert.Equal(t, resp.CodeServerError, env.Code)
	assert.Equal(t, "issue token failed", env.Msg)
}

func TestUseTxRollsBack(t *testing.T) {
	r, e, svc := newEZ(t)
	RegisterAction(e, Action[struct{}, struct{}]{
		Method: http.MethodPost, Path: "/reg", UseTx: true,
		Handler: func(c *gin.Context, tx *service.Container, _ *struct{}) (struct{}, error) {
			_, err := tx.Auth.Register(c.Request.Context(), service.RegisterInput{
				Email: "kim@koreatech.ac.kr", Password: "password1", Name: "Kim", StudentEmployeeID: "2020136001",
			})
			require.NoError(t, err)
			return struct{}{}, Internal("later step failed", nil)
		},
	})

	assert.Equal(t, resp.CodeServerError, call(t, r, http.MethodPost, "/reg", "").Code)

	_, err := svc.Auth.Login(context.Background(), "kim@koreatech.ac.kr", "password1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestBindURI(t *testing.T) {
	r, e, _ := newEZ(t)
	type idIn struct {
		ID int64 `uri:"id" binding:"required,gt=0"`
	}
	RegisterAction(e, Action[idIn, int64]{
		Method: http.MethodDelete, Path: "/items/:id", Binder: BindURI,
		Handler: func(_ *gin.Context, _ *service.Container, in *idIn) (int64, error) { return in.ID, nil },
	})

	env := call(t, r, http.MethodDelete, "/items/42", "")
	assert.Equal(t, resp.CodeOK, env.Code)
	assert.JSONEq(t, "42", string(env.Data))

	assert.Equal(t, resp.CodeBadRequest, call(t, r, http.MethodDelete, "/items/abc", "").Code)
	assert.Equal(t, resp.CodeBadRequest, call(t, r, http.MethodDelete, "/items/0", "").Code)
}
