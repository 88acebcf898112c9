package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"kapp-api/internal/app"
	"kapp-api/internal/core/config"
	"kapp-api/internal/domain"
	"kapp-api/internal/domain/meal"
	"kapp-api/internal/service"
)

// mealRow YAML 中的一条餐食
type mealRow struct {
	Date       string   `mapstructure:"date"`
	DiningTime string   `mapstructure:"diningTime"`
	Place      string   `mapstructure:"place"`
	Price      string   `mapstructure:"price"`
	Currency   string   `mapstructure:"currency"`
	Calories   int      `mapstructure:"calories"`
	Menu       []string `mapstructure:"menu"`
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "seed",
		Short:        "Seed kapp-api data",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "config file (default ./configs/config.local.yaml)")
	root.AddCommand(newMealsCmd(&configPath))
	return root
}

func newMealsCmd(configPath *string) *cobra.Command {
	var (
		file   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "meals",
		Short: "Register meals from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := loadMeals(file)
			if err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, cleanup := app.NewLogger(cfg)
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := app.Open(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer rt.Close()

			n, err := seedMeals(ctx, rt.Svc, rows, dryRun)
			if err != nil {
				return err
			}
			report(cmd.OutOrStdout(), n, dryRun)
			log.Info("seed meals done", zap.Int("count", n), zap.Bool("dryRun", dryRun), zap.String("file", file))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with a top-level meals list")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only, do not save")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// loadMeals 用 viper 读取 YAML；价格写成数字也能接受
func loadMeals(file string) ([]mealRow, error) {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	var rows []mealRow
	if err := v.UnmarshalKey("meals", &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no meals found", file)
	}
	return rows, nil
}

func (r mealRow) input() (service.MealInput, error) {
	d, err := civil.ParseDate(r.Date)
	if err != nil {
		return service.MealInput{}, domain.Errorf(domain.ErrValidation, "date %q", r.Date)
	}
	return service.MealInput{
		Date:       d,
		DiningTime: r.DiningTime,
		Place:      r.Place,
		Price:      r.Price,
		Currency:   r.Currency,
		Calories:   r.Calories,
		Menu:       r.Menu,
	}, nil
}

// seedMeals 全部校验通过才写入，且在同一事务里；任何一条失败整体回滚
func seedMeals(ctx context.Context, svc *service.Container, rows []mealRow, dryRun bool) (int, error) {
	inputs := make([]service.MealInput, len(rows))
	for i, r := range rows {
		in, err := r.input()
		if err == nil {
			err = validate(svc.Clock(), in)
		}
		if err != nil {
			return 0, fmt.Errorf("meal #%d (%s %s %s): %w", i+1, r.Date, r.DiningTime, r.Place, err)
		}
		inputs[i] = in
	}
	if dryRun {
		return len(inputs), nil
	}
	err := svc.Transaction(ctx, func(tx *service.Container) error {
		for i, in := range inputs {
			if _, err := tx.Meals.Register(ctx, in); err != nil {
				return fmt.Errorf("meal #%d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(inputs), nil
}

func validate(clock domain.Clock, in service.MealInput) error {
	p, err := in.Params()
	if err != nil {
		return err
	}
	_, err = meal.New(clock, p)
	return err
}

func report(w io.Writer, n int, dryRun bool) {
	if dryRun {
		fmt.Fprintf(w, "%d meals valid (dry run, nothing saved)\n", n)
		return
	}
	fmt.Fprintf(w, "%d meals registered\n", n)
}
