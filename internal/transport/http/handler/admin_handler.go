package handler

import (
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"kapp-api/internal/core/auth"
	"kapp-api/internal/service"
	"kapp-api/internal/transport/http/ez"
)

// AdminMeals 管理端餐食登记 / 删除 / 区间查询；分组已走 AuthJWT("admin")
type AdminMeals struct{}

type mealIn struct {
	Date       string   `json:"date" binding:"required,civil_date"`
	DiningTime string   `json:"diningTime" binding:"required,dining_time"`
	Place      string   `json:"place" binding:"required,max=100"`
	Price      string   `json:"price" binding:"required,numeric"`
	Currency   string   `json:"currency" binding:"omitempty,len=3"`
	Calories   *int     `json:"calories" binding:"required"`
	Menu       []string `json:"menu" binding:"required,min=1,dive,max=100"`
}

type rangeQuery struct {
	Start string `form:"start" binding:"required,civil_date"`
	End   string `form:"end" binding:"required,civil_date"`
}

var adminOnly = []string{auth.RoleAdmin}

func (AdminMeals) MountAdmin(admin ez.EZ) {
	ez.RegisterAction(admin, ez.Action[mealIn, MealDTO]{
		Method: http.MethodPost,
		Path:   "/meals",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  adminOnly,
		UseTx:  true,
		Handler: func(c *gin.Context, svc *service.Container, in *mealIn) (MealDTO, error) {
			date, err := civil.ParseDate(in.Date)
			if err != nil {
				return MealDTO{}, ez.BadRequest("invalid date: " + in.Date)
			}
			m, err := svc.Meals.Register(c.Request.Context(), service.MealInput{
				Date:       date,
				DiningTime: in.DiningTime,
				Place:      in.Place,
				Price:      in.Price,
				Currency:   in.Currency,
				Calories:   *in.Calories,
				Menu:       in.Menu,
			})
			if err != nil {
				return MealDTO{}, err
			}
			return toMealDTO(m), nil
		},
	})

	ez.RegisterAction(admin, ez.Action[idParam, gin.H]{
		Method: http.MethodDelete,
		Path:   "/meals/:id",
		Binder: ez.BindURI,
		Auth:   true,
		Roles:  adminOnly,
		UseTx:  true,
		Handler: func(c *gin.Context, svc *service.Container, in *idParam) (gin.H, error) {
			if err := svc.Meals.Delete(c.Request.Context(), in.ID); err != nil {
				return nil, err
			}
			return gin.H{"id": in.ID}, nil
		},
	})

	ez.RegisterAction(admin, ez.Action[rangeQuery, []MealDTO]{
		Method: http.MethodGet,
		Path:   "/meals",
		Binder: ez.BindQuery,
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, svc *service.Container, in *rangeQuery) ([]MealDTO, error) {
			start, err := civil.ParseDate(in.Start)
			if err != nil {
				return nil, ez.BadRequest("invalid start: " + in.Start)
			}
			end, err := civil.ParseDate(in.End)
			if err != nil {
				return nil, ez.BadRequest("invalid end: " + in.End)
			}
			meals, err := svc.Meals.Range(c.Request.Context(), start, end)
			if err != nil {
				return nil, err
			}
			return toMealDTOs(meals), nil
		},
	})
}
