package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexivanou/sportslocations/internal/fixtures"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	app := &cli.Command{
		Name:  "stubupstream",
		Usage: "Serve venue fixtures through the graph-search contract",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: ":8081",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "Graph endpoint path",
				Value: "/graphql",
			},
			&cli.StringFlag{
				Name:    "venues",
				Usage:   "Venue TSV or zip file (id, then one name column per language)",
				Value:   "data/venues.tsv",
				Sources: cli.EnvVars("STUB_VENUES"),
			},
			&cli.StringFlag{
				Name:  "columns",
				Usage: "Comma separated languages of the name columns",
				Value: strings.Join(fixtures.DefaultColumns, ","),
			},
			&cli.StringFlag{
				Name:    "root-field",
				Usage:   "Root field of the graph response",
				Value:   "unifiedSearch",
				Sources: cli.EnvVars("UPSTREAM_ROOT_FIELD"),
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	parser := fixtures.NewParser(strings.Split(c.String("columns"), ","))
	locations, err := parser.ParseFile(c.String("venues"))
	if err != nil {
		return fmt.Errorf("loading venues: %w", err)
	}
	index := fixtures.NewIndex(locations)
	logger.Info("Loaded venues", zap.Int("count", index.Len()), zap.String("file", c.String("venues")))

	mux := http.NewServeMux()
	mux.Handle(c.String("path"), fixtures.Handler(index, c.String("root-field"), logger))

	srv := &http.Server{
		Addr:         c.String("addr"),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("Starting stub upstream", zap.String("addr", srv.Addr), zap.String("path", c.String("path")))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	logger.Info("Shutting down stub upstream...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
