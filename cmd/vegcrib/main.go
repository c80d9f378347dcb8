package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/vegcrib/internal/db"
	"github.com/vegcrib/internal/domain"
	"github.com/vegcrib/internal/logging"
	"github.com/vegcrib/internal/service"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "vegcrib",
		Usage: "Operate the veg crib tracker directly against its database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db-path", Value: db.DefaultPath, Usage: "SQLite database path", Sources: cli.EnvVars("DATABASE_PATH")},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "zerolog level", Sources: cli.EnvVars("LOG_LEVEL")},
		},
		Commands: []*cli.Command{
			environmentCommand(),
			plantCommand(),
			overrideCommand(),
			ledgerCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

// withBackend opens the database, loads the state and runs fn.
func withBackend(ctx context.Context, c *cli.Command, fn func(*service.Backend) error) error {
	logger := logging.Setup(c.String("log-level"), true, os.Stderr)

	gdb, err := db.Open(c.String("db-path"), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close(gdb)

	backend := service.NewBackend(gdb, service.Options{Logger: &logger})
	if err := backend.Load(ctx); err != nil {
		return err
	}
	return fn(backend)
}

func environmentCommand() *cli.Command {
	return &cli.Command{
		Name:    "env",
		Aliases: []string{"environment"},
		Usage:   "Manage container environments",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an empty grid environment",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.IntFlag{Name: "rows", Required: true},
					&cli.IntFlag{Name: "columns", Required: true},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						view, err := b.CreateEnvironment(ctx, c.String("name"), c.Int("rows"), c.Int("columns"))
						return finish(c, view, err, func() { printEnvironments([]service.EnvironmentView{view}) })
					})
				},
			},
			{
				Name:  "delete",
				Usage: "Delete an empty environment",
				Flags: []cli.Flag{&cli.StringFlag{Name: "name", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						err := b.DeleteEnvironment(ctx, c.String("name"))
						return finish(c, nil, err, func() { fmt.Printf("deleted environment %s\n", domain.NormalizeEnvironmentName(c.String("name"))) })
					})
				},
			},
			{
				Name:  "list",
				Usage: "List environments and their occupancy",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						views := b.ListEnvironments()
						return finish(c, views, nil, func() { printEnvironments(views) })
					})
				},
			},
		},
	}
}

func plantCommand() *cli.Command {
	return &cli.Command{
		Name:  "plant",
		Usage: "Manage plants",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a plant in the first free slot of an environment",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "env", Required: true},
					&cli.StringFlag{Name: "birth", Required: true, Usage: "birth date YYYY-MM-DD"},
					&cli.StringFlag{Name: "harvest-type", Value: "hybrid"},
					&cli.StringFlag{Name: "grow-type", Value: "standard"},
					&cli.FloatFlag{Name: "thc"},
					&cli.FloatFlag{Name: "cbd"},
					&cli.StringFlag{Name: "container", Value: domain.DefaultContainerDimensions},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					birth, err := domain.ParseDate(c.String("birth"))
					if err != nil {
						return err
					}
					return withBackend(ctx, c, func(b *service.Backend) error {
						view, err := b.CreatePlant(ctx, domain.PlantSpec{
							Name:                c.String("name"),
							HarvestType:         c.String("harvest-type"),
							GrowType:            c.String("grow-type"),
							THC:                 c.Float("thc"),
							CBD:                 c.Float("cbd"),
							BirthDate:           birth,
							Environment:         c.String("env"),
							ContainerDimensions: c.String("container"),
						})
						return finish(c, view, err, func() { printPlants([]service.PlantView{view}) })
					})
				},
			},
			{
				Name:  "move",
				Usage: "Move a plant to another environment",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "id", Required: true},
					&cli.StringFlag{Name: "env", Required: true},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						view, err := b.MovePlant(ctx, c.Int64("id"), c.String("env"))
						return finish(c, view, err, func() { printPlants([]service.PlantView{view}) })
					})
				},
			},
			{
				Name:  "relocate",
				Usage: "Move a plant to another slot of its environment",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "id", Required: true},
					&cli.StringFlag{Name: "slot", Required: true, Usage: "slot address RxC"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						view, err := b.RelocatePlant(ctx, c.Int64("id"), c.String("slot"))
						return finish(c, view, err, func() { printPlants([]service.PlantView{view}) })
					})
				},
			},
			{
				Name:  "harvest",
				Usage: "Record a harvest and remove the plant",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "id", Required: true},
					&cli.FloatFlag{Name: "amount", Usage: "harvested grams"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						view, err := b.DeletePlant(ctx, c.Int64("id"), c.Float("amount"))
						return finish(c, view, err, func() {
							fmt.Printf("harvested %s: %.2f\n", view.Key, view.HarvestAmount)
						})
					})
				},
			},
			{
				Name:  "list",
				Usage: "List plants",
				Flags: []cli.Flag{&cli.StringFlag{Name: "env"}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						views := b.ListPlants()
						if env := strings.TrimSpace(c.String("env")); env != "" {
							normalized := domain.NormalizeEnvironmentName(env)
							filtered := make([]service.PlantView, 0, len(views))
							for _, v := range views {
								if v.Environment == normalized {
									filtered = append(filtered, v)
								}
							}
							views = filtered
						}
						return finish(c, views, nil, func() { printPlants(views) })
					})
				},
			},
			{
				Name:  "schedule",
				Usage: "Show the doses due this week",
				Flags: []cli.Flag{&cli.Int64Flag{Name: "id", Required: true}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						view, err := b.ScheduleForPlant(c.Int64("id"))
						return finish(c, view, err, func() { printSchedule(view) })
					})
				},
			},
			{
				Name:  "water",
				Usage: "Record a watering with this week's doses",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "id", Required: true},
					&cli.FloatFlag{Name: "litres", Value: service.DefaultWaterLitres},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						view, err := b.RecordWatering(ctx, c.Int64("id"), c.Float("litres"))
						return finish(c, view, err, func() { printSchedule(view) })
					})
				},
			},
		},
	}
}

func overrideCommand() *cli.Command {
	return &cli.Command{
		Name:  "override",
		Usage: "Manage schedule overrides",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Override a chemical dose from a week onward",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "week", Required: true},
					&cli.StringFlag{Name: "chemical", Required: true},
					&cli.FloatFlag{Name: "value", Required: true},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						override, err := b.SetOverride(ctx, c.Int("week"), c.String("chemical"), c.Float("value"))
						return finish(c, override, err, func() { printOverrides([]domain.Override{override}) })
					})
				},
			},
			{
				Name:  "list",
				Usage: "List overrides in insertion order",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						overrides := b.Overrides()
						return finish(c, overrides, nil, func() { printOverrides(overrides) })
					})
				},
			},
		},
	}
}

func ledgerCommand() *cli.Command {
	return &cli.Command{
		Name:  "ledger",
		Usage: "Inspect the audit ledger",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List ledger rows, oldest first",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "plant-id"},
					&cli.StringFlag{Name: "env"},
					&cli.StringFlag{Name: "action"},
					&cli.IntFlag{Name: "limit", Value: 50},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						entries, err := b.Ledger().List(ctx, service.LedgerFilter{
							PlantID:     c.Int64("plant-id"),
							Environment: c.String("env"),
							Action:      c.String("action"),
							Limit:       c.Int("limit"),
						})
						if err != nil {
							return err
						}
						return finish(c, entries, nil, func() { printLedger(entries) })
					})
				},
			},
			{
				Name:  "verify",
				Usage: "Recompute the ledger digest chain",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withBackend(ctx, c, func(b *service.Backend) error {
						result, err := b.Ledger().Verify(ctx)
						if err != nil {
							return err
						}
						if err := finish(c, result, nil, func() { printVerification(result) }); err != nil {
							return err
						}
						if !result.Valid {
							return fmt.Errorf("ledger chain broken at row %d", result.BrokenAt)
						}
						return nil
					})
				},
			},
		},
	}
}
