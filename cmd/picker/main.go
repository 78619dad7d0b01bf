package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alexivanou/sportslocations/internal/client"
	"github.com/alexivanou/sportslocations/internal/config"
	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/alexivanou/sportslocations/internal/picker"
	"github.com/alexivanou/sportslocations/internal/widget"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	app := &cli.Command{
		Name:  "picker",
		Usage: "Select sports locations for a layout from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "Base URL of the sports locations API",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("PICKER_API_URL"),
			},
			&cli.StringFlag{
				Name:     "layout",
				Usage:    "Layout id to edit",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "module",
				Usage: "Module of a new layout (locations_selected or locations_selected_carousel)",
				Value: model.ModuleLocationsSelected,
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Title of a new layout",
			},
			&cli.StringFlag{
				Name:  "language",
				Usage: "Display language passed to the search as a filter",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "HTTP timeout",
				Value: 15 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, c)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := zap.NewNop()
	if c.Bool("debug") {
		if logger, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
	}
	defer logger.Sync()

	api := client.New(c.String("api"), c.Duration("timeout"))

	layout, err := api.GetLayout(ctx, c.String("layout"))
	switch {
	case errors.Is(err, client.ErrNotFound):
		layout = &model.Layout{
			ID:       c.String("layout"),
			Module:   c.String("module"),
			Title:    c.String("title"),
			Language: c.String("language"),
		}
	case err != nil:
		return fmt.Errorf("loading layout: %w", err)
	}

	title := layout.Title
	language := c.String("language")
	if language == "" {
		language = layout.Language
	}

	w := widget.New(api, widget.Config{
		MaxSelected: cfg.Selection.Max,
		MinSelected: cfg.Selection.Min,
		Debounce:    cfg.Widget.Debounce,
		Filters: func() map[string]string {
			filters := map[string]string{"title": title}
			if language != "" {
				filters["language"] = language
			}
			return filters
		},
	}, layout.Selected, logger)
	defer w.Close()

	w.OnChange(func(s model.Selection) {
		logger.Debug("Selection changed", zap.Ints("ids", s.IDs()))
	})

	return picker.New(w, api, layout, os.Stdout, logger).Run(ctx, os.Stdin)
}
