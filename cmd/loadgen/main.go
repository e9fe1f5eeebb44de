// Command loadgen drives a running tourney service with a generated season
// and checks the standings it produces.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/okian/tourney/internal/loadgen"
	"github.com/okian/tourney/pkg/logger"
)

const logFilePermission = 0o600

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		os.Stderr.WriteString("loadgen: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "loadgen",
		Usage: "submit a fake season to the scoring API and verify the standings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:9080", Usage: "base URL of the service"},
			&cli.IntFlag{Name: "events", Value: 20, Usage: "number of events in the season"},
			&cli.IntFlag{Name: "players", Value: 120, Usage: "number of players on the roster"},
			&cli.StringSliceFlag{Name: "category", Value: cli.NewStringSlice("Open", "Senior", "Women", "Junior"), Usage: "player categories"},
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU() * 2, Usage: "concurrent submitters"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "HTTP request timeout"},
			&cli.DurationFlag{Name: "wait", Value: 2 * time.Minute, Usage: "how long to wait for results"},
			&cli.Uint64Flag{Name: "seed", Usage: "generator seed (0 picks one)"},
			&cli.StringFlag{Name: "output", Usage: "file to save the generated season to"},
			&cli.StringFlag{Name: "log", Usage: "also write logs to this file"},
			&cli.BoolFlag{Name: "verbose", Usage: "log every failed request"},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if err := setupLogging(c.String("log")); err != nil {
		return err
	}
	cfg := &loadgen.Config{
		BaseURL:    c.String("url"),
		Events:     c.Int("events"),
		Players:    c.Int("players"),
		Categories: c.StringSlice("category"),
		Workers:    c.Int("workers"),
		Timeout:    c.Duration("timeout"),
		Wait:       c.Duration("wait"),
		Seed:       c.Uint64("seed"),
		OutputFile: c.String("output"),
		Verbose:    c.Bool("verbose"),
	}
	if cfg.Events < 1 || cfg.Players < 1 {
		return fmt.Errorf("events and players must be positive")
	}
	_, err := loadgen.Run(c.Context, cfg)
	return err
}

// setupLogging sends logs to stdout and, when logFile is set, to that file.
func setupLogging(logFile string) error {
	var out io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.Init(logger.WithOutput(out)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}
