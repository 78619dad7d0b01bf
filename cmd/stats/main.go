package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/alexivanou/sportslocations/internal/config"
	"github.com/alexivanou/sportslocations/internal/database"
	"github.com/alexivanou/sportslocations/internal/stats"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	app := &cli.Command{
		Name:  "stats",
		Usage: "Print layout, search cache and search counter statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Usage:   "Output format: json or text",
				Value:   "json",
				Sources: cli.EnvVars("OUTPUT_FORMAT"),
			},
			&cli.StringFlag{
				Name:  "migrations",
				Usage: "Migrations directory, applied when the database is in-memory",
				Value: "migrations",
			},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DB.IsMemory() {
		// a fresh in-memory database has no schema yet
		if err := database.Migrate(db, cfg.DB, c.String("migrations")); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	logger.Debug("Collecting statistics",
		zap.String("db_type", string(cfg.DB.Type)),
		zap.String("cache_backend", string(cfg.Cache.Backend)),
	)

	s, err := stats.NewCollector(db, cfg).Collect(ctx)
	if err != nil {
		return fmt.Errorf("collecting statistics: %w", err)
	}

	switch c.String("format") {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(s)
	case "text":
		printText(os.Stdout, s)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", c.String("format"))
	}
}

func printText(w io.Writer, s *stats.Stats) {
	fmt.Fprintf(w, "Sports locations (%s)\n\n", s.Timestamp.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(w, "Layouts: %d (%d without selection)\n", s.Layouts.Total, s.Layouts.Empty)
	modules := make([]string, 0, len(s.Layouts.ByModule))
	for m := range s.Layouts.ByModule {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	for _, m := range modules {
		fmt.Fprintf(w, "  %-30s %d\n", m, s.Layouts.ByModule[m])
	}
	fmt.Fprintf(w, "Selected: %d entries, %d distinct locations\n\n", s.Layouts.Selections, s.Layouts.DistinctLocations)

	fmt.Fprintf(w, "Search cache (%s)\n", s.Cache.Backend)
	if s.Cache.Backend == string(config.CacheBackendDatabase) {
		fmt.Fprintf(w, "  query entries  %d\n", s.Cache.QueryEntries)
		fmt.Fprintf(w, "  raw entries    %d\n", s.Cache.RawEntries)
		fmt.Fprintf(w, "  expired        %d\n", s.Cache.Expired)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Search counters (this process)")
	fmt.Fprintf(w, "  query cache    %d hit / %d miss\n", s.Search.QueryHits, s.Search.QueryMisses)
	fmt.Fprintf(w, "  raw cache      %d hit / %d miss\n", s.Search.RawHits, s.Search.RawMisses)
	fmt.Fprintf(w, "  upstream       %d ok / %d failed, %d malformed\n",
		s.Search.UpstreamOK, s.Search.UpstreamErrors, s.Search.MalformedResponses)
	fmt.Fprintln(w)

	for _, t := range s.Tables {
		fmt.Fprintf(w, "%-20s %8d rows\n", t.Name, t.RowCount)
	}
}
