package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kapp-api/internal/service"
	"kapp-api/internal/transport/http/ez"
	mdw "kapp-api/internal/transport/http/middleware"
)

// Auth 注册 / 登录 / 个人信息
type Auth struct{}

func (Auth) Priority() int { return 10 }

type registerIn struct {
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required,min=8,max=72"`
	Name              string `json:"name" binding:"required,max=50"`
	StudentEmployeeID string `json:"studentEmployeeId" binding:"required,max=20"`
}

type loginIn struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginOut struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      string    `json:"role"`
	User      UserDTO   `json:"user"`
}

type meOut struct {
	UserDTO
	Role string `json:"role"`
}

type renameIn struct {
	Name string `json:"name" binding:"required,max=50"`
}

type changePasswordIn struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

func (Auth) MountAPI(public, authed ez.EZ) {
	// 注册在事务里执行，邮箱唯一约束兜底并发
	ez.RegisterAction(public, ez.Action[registerIn, UserDTO]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: ez.BindJSON,
		UseTx:  true,
		Handler: func(c *gin.Context, svc *service.Container, in *registerIn) (UserDTO, error) {
			u, err := svc.Auth.Register(c.Request.Context(), service.RegisterInput{
				Email:             in.Email,
				Password:          in.Password,
				Name:              in.Name,
				StudentEmployeeID: in.StudentEmployeeID,
			})
			if err != nil {
				return UserDTO{}, err
			}
			return toUserDTO(u), nil
		},
	})

	ez.RegisterAction(public, ez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, svc *service.Container, in *loginIn) (loginOut, error) {
			res, err := svc.Auth.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return loginOut{}, err
			}
			return loginOut{
				Token:     res.Token,
				TokenType: "Bearer",
				ExpiresAt: res.ExpiresAt,
				Role:      res.Role,
				User:      toUserDTO(res.User),
			}, nil
		},
	})

	ez.RegisterAction(authed, ez.Action[struct{}, meOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, svc *service.Container, _ *struct{}) (meOut, error) {
			u, err := svc.Auth.Me(c.Request.Context(), mdw.UserID(c))
			if err != nil {
				return meOut{}, err
			}
			return meOut{UserDTO: toUserDTO(u), Role: c.GetString(mdw.KeyRole)}, nil
		},
	})

	ez.RegisterAction(authed, ez.Action[renameIn, UserDTO]{
		Method: http.MethodPut,
		Path:   "/me/name",
		Binder: ez.BindJSON,
		Auth:   true,
		UseTx:  true,
		Handler: func(c *gin.Context, svc *service.Container, in *renameIn) (UserDTO, error) {
			u, err := svc.Auth.Rename(c.Request.Context(), mdw.UserID(c), in.Name)
			if err != nil {
				return UserDTO{}, err
			}
			return toUserDTO(u), nil
		},
	})

	ez.RegisterAction(authed, ez.Action[changePasswordIn, gin.H]{
		Method: http.MethodPut,
		Path:   "/me/password",
		Binder: ez.BindJSON,
		Auth:   true,
		UseTx:  true,
		Handler: func(c *gin.Context, svc *service.Container, in *changePasswordIn) (gin.H, error) {
			if err := svc.Auth.ChangePassword(c.Request.Context(), mdw.UserID(c), in.CurrentPassword, in.NewPassword); err != nil {
				return nil, err
			}
			return gin.H{"changed": true}, nil
		},
	})
}
