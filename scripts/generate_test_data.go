package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vegcrib/internal/config"
	"github.com/vegcrib/internal/db"
	"github.com/vegcrib/internal/domain"
	"github.com/vegcrib/internal/logging"
	"github.com/vegcrib/internal/service"
)

type seedEnvironment struct {
	Name    string
	Rows    int
	Columns int
}

type seedPlant struct {
	Name        string
	HarvestType string
	GrowType    string
	THC         float64
	CBD         float64
	AgeDays     int
	Environment string
	Container   string
}

var seedEnvironments = []seedEnvironment{
	{Name: "veg tent", Rows: 2, Columns: 3},
	{Name: "flower room", Rows: 3, Columns: 4},
	{Name: "clone closet", Rows: 1, Columns: 4},
}

var seedPlants = []seedPlant{
	{Name: "Blue Dream", HarvestType: "hybrid:sativa", GrowType: "standard", THC: 21, CBD: 1, AgeDays: 20, Environment: "veg tent"},
	{Name: "Northern Lights", HarvestType: "indica", GrowType: "auto", THC: 18, CBD: 0.5, AgeDays: 34, Environment: "veg tent", Container: "5x5"},
	{Name: "Gelato", HarvestType: "hybrid", GrowType: "standard", THC: 24, CBD: 0.2, AgeDays: 75, Environment: "flower room"},
	{Name: "Sour Diesel", HarvestType: "sativa", GrowType: "standard", THC: 22, CBD: 0.4, AgeDays: 90, Environment: "flower room"},
	{Name: "Harlequin", HarvestType: "hybrid:sativa", GrowType: "standard", THC: 7, CBD: 12, AgeDays: 60, Environment: "flower room", Container: "4x6"},
	{Name: "Cutting 1", HarvestType: "hybrid", GrowType: "standard", THC: 20, CBD: 1, AgeDays: 3, Environment: "clone closet", Container: "1x1"},
}

var seedOverrides = []domain.Override{
	{Week: 6, Chemical: "signal", Value: 2},
	{Week: 10, Chemical: "bloom", Value: 12},
}

// 测试数据生成器
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "配置加载失败:", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, true, os.Stderr)

	gdb, err := db.Open(cfg.DatabasePath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("数据库初始化失败")
	}
	defer db.Close(gdb)

	backend := service.NewBackend(gdb, service.Options{Logger: &logger})
	ctx := context.Background()
	if err := backend.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("状态加载失败")
	}

	fmt.Println("开始生成测试数据...")
	created, err := seed(ctx, backend, time.Now().UTC())
	if err != nil {
		logger.Fatal().Err(err).Msg("测试数据生成失败")
	}
	fmt.Printf("测试数据生成完成！新增植株 %d 株\n", created)
}

// seed creates the demo environments, plants and overrides. Environments
// that already exist are reused, so running it twice only adds plants.
func seed(ctx context.Context, backend *service.Backend, now time.Time) (int, error) {
	for _, env := range seedEnvironments {
		if _, err := backend.CreateEnvironment(ctx, env.Name, env.Rows, env.Columns); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				fmt.Printf("环境 %s 已存在，跳过创建\n", env.Name)
				continue
			}
			return 0, fmt.Errorf("create environment %s: %w", env.Name, err)
		}
	}

	created := 0
	for _, p := range seedPlants {
		_, err := backend.CreatePlant(ctx, domain.PlantSpec{
			Name:                p.Name,
			HarvestType:         p.HarvestType,
			GrowType:            p.GrowType,
			THC:                 p.THC,
			CBD:                 p.CBD,
			BirthDate:           now.AddDate(0, 0, -p.AgeDays),
			Environment:         p.Environment,
			ContainerDimensions: p.Container,
		})
		if errors.Is(err, domain.ErrCapacity) {
			fmt.Printf("环境 %s 已满，跳过 %s\n", p.Environment, p.Name)
			continue
		}
		if err != nil {
			return created, fmt.Errorf("create plant %s: %w", p.Name, err)
		}
		created++
	}

	if len(backend.Overrides()) == 0 {
		for _, o := range seedOverrides {
			if _, err := backend.SetOverride(ctx, o.Week, o.Chemical, o.Value); err != nil {
				return created, fmt.Errorf("set override %s: %w", o.Chemical, err)
			}
		}
	}

	return created, nil
}
