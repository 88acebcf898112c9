package handler

import (
	"context"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"kapp-api/internal/domain/meal"
	"kapp-api/internal/service"
	"kapp-api/internal/transport/http/ez"
)

// Meals 用户端餐食查询，不需要登录
type Meals struct{}

func (Meals) Priority() int { return 20 }

type dayQuery struct {
	Date string `form:"date" binding:"omitempty,civil_date"`
}

type listQuery struct {
	Date       string `form:"date" binding:"omitempty,civil_date"`
	DiningTime string `form:"diningTime" binding:"omitempty,dining_time"`
	Place      string `form:"place" binding:"max=100"`
}

type detailQuery struct {
	Date       string `form:"date" binding:"omitempty,civil_date"`
	DiningTime string `form:"diningTime" binding:"required,dining_time"`
	Place      string `form:"place" binding:"required,max=100"`
}

type searchQuery struct {
	Page        int    `form:"page,default=0" binding:"gte=0"`
	Size        int    `form:"size,default=20" binding:"gte=1,lte=100"`
	StartDate   string `form:"startDate" binding:"omitempty,civil_date"`
	EndDate     string `form:"endDate" binding:"omitempty,civil_date"`
	DiningTime  string `form:"diningTime" binding:"omitempty,dining_time"`
	Place       string `form:"place" binding:"max=100"`
	MinPrice    string `form:"minPrice" binding:"omitempty,numeric"`
	MaxPrice    string `form:"maxPrice" binding:"omitempty,numeric"`
	MinCalories *int   `form:"minCalories" binding:"omitempty,gte=0"`
	MaxCalories *int   `form:"maxCalories" binding:"omitempty,gte=0"`
	MenuKeyword string `form:"menuKeyword" binding:"max=50"`
}

type idParam struct {
	ID int64 `uri:"id" binding:"required,gt=0"`
}

type todayOut struct {
	Date  civil.Date `json:"date"`
	Meals []MealDTO  `json:"meals"`
}

func (Meals) MountAPI(public, _ ez.EZ) {
	ez.RegisterAction(public, ez.Action[listQuery, []MealDTO]{
		Method: http.MethodGet,
		Path:   "/meals",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, svc *service.Container, in *listQuery) ([]MealDTO, error) {
			date, err := optDate(in.Date)
			if err != nil {
				return nil, err
			}
			dt, err := optDiningTime(in.DiningTime)
			if err != nil {
				return nil, err
			}
			meals, err := svc.Meals.List(c.Request.Context(), date, dt, in.Place)
			if err != nil {
				return nil, err
			}
			return toMealDTOs(meals), nil
		},
	})

	ez.RegisterAction(public, ez.Action[struct{}, todayOut]{
		Method: http.MethodGet,
		Path:   "/meals/today",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, svc *service.Container, _ *struct{}) (todayOut, error) {
			meals, err := svc.Meals.TodayMeals(c.Request.Context())
			if err != nil {
				return todayOut{}, err
			}
			return todayOut{Date: svc.Meals.Today(), Meals: toMealDTOs(meals)}, nil
		},
	})

	ez.RegisterAction(public, ez.Action[detailQuery, MealDTO]{
		Method: http.MethodGet,
		Path:   "/meals/detail",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, svc *service.Container, in *detailQuery) (MealDTO, error) {
			date, err := optDate(in.Date)
			if err != nil {
				return MealDTO{}, err
			}
			dt, err := meal.ParseDiningTime(in.DiningTime)
			if err != nil {
				return MealDTO{}, err
			}
			m, err := svc.Meals.Detail(c.Request.Context(), date, dt, in.Place)
			if err != nil {
				return MealDTO{}, err
			}
			return toMealDTO(m), nil
		},
	})

	// 按天的派生查询：低卡、素食
	byDay := func(path string, query func(*service.MealService, context.Context, *civil.Date) ([]meal.Meal, error)) {
		ez.RegisterAction(public, ez.Action[dayQuery, []MealDTO]{
			Method: http.MethodGet,
			Path:   path,
			Binder: ez.BindQuery,
			Handler: func(c *gin.Context, svc *service.Container, in *dayQuery) ([]MealDTO, error) {
				date, err := optDate(in.Date)
				if err != nil {
					return nil, err
				}
				meals, err := query(svc.Meals, c.Request.Context(), date)
				if err != nil {
					return nil, err
				}
				return toMealDTOs(meals), nil
			},
		})
	}
	byDay("/meals/low-calorie", (*service.MealService).LowCalorie)
	byDay("/meals/vegetarian", (*service.MealService).Vegetarian)

	ez.RegisterAction(public, ez.Action[dayQuery, SummaryDTO]{
		Method: http.MethodGet,
		Path:   "/meals/summary",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, svc *service.Container, in *dayQuery) (SummaryDTO, error) {
			date, err := optDate(in.Date)
			if err != nil {
				return SummaryDTO{}, err
			}
			d, sum, err := svc.Meals.Summary(c.Request.Context(), date)
			if err != nil {
				return SummaryDTO{}, err
			}
			return toSummaryDTO(d, sum), nil
		},
	})

	ez.RegisterAction(public, ez.Action[searchQuery, PageDTO[MealDTO]]{
		Method: http.MethodGet,
		Path:   "/meals/search",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, svc *service.Container, in *searchQuery) (PageDTO[MealDTO], error) {
			start, err := optDate(in.StartDate)
			if err != nil {
				return PageDTO[MealDTO]{}, err
			}
			end, err := optDate(in.EndDate)
			if err != nil {
				return PageDTO[MealDTO]{}, err
			}
			dt, err := optDiningTime(in.DiningTime)
			if err != nil {
				return PageDTO[MealDTO]{}, err
			}
			page, err := svc.Meals.Search(c.Request.Context(), service.SearchInput{
				Page:        in.Page,
				Size:        in.Size,
				StartDate:   start,
				EndDate:     end,
				DiningTime:  dt,
				Place:       in.Place,
				MinPrice:    in.MinPrice,
				MaxPrice:    in.MaxPrice,
				MinCalories: in.MinCalories,
				MaxCalories: in.MaxCalories,
				MenuKeyword: in.MenuKeyword,
			})
			if err != nil {
				return PageDTO[MealDTO]{}, err
			}
			return toPageDTO(page), nil
		},
	})

	ez.RegisterAction(public, ez.Action[idParam, MealDTO]{
		Method: http.MethodGet,
		Path:   "/meals/:id",
		Binder: ez.BindURI,
		Handler: func(c *gin.Context, svc *service.Container, in *idParam) (MealDTO, error) {
			m, err := svc.Meals.ByID(c.Request.Context(), in.ID)
			if err != nil {
				return MealDTO{}, err
			}
			return toMealDTO(m), nil
		},
	})
}
