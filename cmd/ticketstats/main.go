package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/pyconza/pyconza-site/internal/app/tickets"
	"github.com/pyconza/pyconza-site/internal/platform/bootstrap"
	"github.com/pyconza/pyconza-site/internal/platform/config"
	"github.com/pyconza/pyconza-site/internal/platform/logger"
)

// Prints the current value of every configured ticket counter:
//
//	ticketstats --fixtures testdata/tickets.yaml
//	ticketstats --storage postgres --database-url postgres://... --format json
func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ticketstats: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg, err := config.LoadServerConfigFromEnv()
	if err != nil {
		return err
	}

	var (
		format  string
		timeout time.Duration
		verbose bool
	)
	fs := pflag.NewFlagSet("ticketstats", pflag.ContinueOnError)
	fs.StringVar(&cfg.SiteConfigPath, "config", cfg.SiteConfigPath, "site settings YAML (defaults built in)")
	fs.StringVar(&cfg.StorageBackend, "storage", cfg.StorageBackend, "ticket store: memory or postgres")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "postgres DSN")
	fs.BoolVar(&cfg.Migrate, "migrate", false, "apply schema migrations before reading")
	fs.StringVar(&cfg.FixturesPath, "fixtures", cfg.FixturesPath, "ticket fixtures YAML for the memory store")
	fs.StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline")
	fs.BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	log := logger.Discard()
	if verbose {
		log = logger.NewWithWriter(os.Stderr, "ticketstats", cfg.AppEnv, slog.LevelDebug)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	snap, err := app.Tickets.Snapshot(ctx, app.Vars)
	if err != nil {
		return err
	}
	return write(out, format, app.Vars.Names(), snap)
}

type statsDoc struct {
	GeneratedAt time.Time      `json:"generatedAt" yaml:"generated_at"`
	Values      map[string]int `json:"values" yaml:"values"`
}

func write(out io.Writer, format string, names []string, snap tickets.Snapshot) error {
	doc := statsDoc{GeneratedAt: snap.GeneratedAt, Values: snap.Values}
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tVALUE")
	for _, n := range names {
		fmt.Fprintf(tw, "%s\t%d\n", n, snap.Values[n])
	}
	fmt.Fprintf(tw, "\nas of %s\n", snap.GeneratedAt.Format(time.RFC3339))
	return tw.Flush()
}
