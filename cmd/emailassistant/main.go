// emailassistant triages a mailbox into a daily digest.
//
// Usage:
//
//	emailassistant [flags] run          classify new mail and print the digest
//	emailassistant [flags] serve        run the dashboard, optionally on a daily schedule
//	emailassistant [flags] cache stats  print cache statistics
//	emailassistant [flags] cache clear  drop every cache entry and the fetch cursor
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	assistant "github.com/udaytamma/AiEmailAssistant"
	"github.com/udaytamma/AiEmailAssistant/config"
	"github.com/udaytamma/AiEmailAssistant/internal/lock"
	"github.com/udaytamma/AiEmailAssistant/internal/render"
)

type options struct {
	configPath string
	format     string
	addr       string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, lock.ErrLocked) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("emailassistant", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to the YAML configuration file (defaults are used when empty)")
	flagSet.StringVar(&opts.format, "format", "terminal", "digest output of run: terminal, markdown or json")
	flagSet.StringVar(&opts.addr, "addr", "", "dashboard listen address, overrides server.addr")
	flagSet.Usage = func() { printHelp(flagSet) }

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(flagSet)
		return fmt.Errorf("missing command")
	}

	switch rest[0] {
	case "run":
		return runOnce(ctx, cfg, logger, opts.format, stdout)
	case "serve":
		if cfg.Server == nil {
			cfg.Server = &config.ServerCfg{}
		}
		if opts.addr != "" {
			cfg.Server.Addr = opts.addr
		}
		cfg.AdjustConfig()
		return serve(ctx, cfg, logger)
	case "cache":
		if len(rest) < 2 {
			return fmt.Errorf("cache: expected stats or clear")
		}
		return cacheCommand(cfg, logger, rest[1], stdout)
	default:
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func runOnce(ctx context.Context, cfg *config.Assistant, logger *slog.Logger, format string, stdout io.Writer) error {
	a, err := assistant.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.Run(ctx)
	if err != nil {
		return err
	}

	switch format {
	case "markdown":
		_, err = io.WriteString(stdout, render.Markdown(doc))
	case "json":
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(doc)
	default:
		_, err = io.WriteString(stdout, render.Terminal(doc))
	}
	return err
}

func serve(ctx context.Context, cfg *config.Assistant, logger *slog.Logger) error {
	a, err := assistant.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Serve(ctx)
}

func cacheCommand(cfg *config.Assistant, logger *slog.Logger, sub string, stdout io.Writer) error {
	a, err := assistant.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	switch sub {
	case "stats":
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(a.CacheStats())
	case "clear":
		if err = a.ClearCache(); err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, "cache cleared")
		return err
	default:
		return fmt.Errorf("cache: unknown subcommand %q", sub)
	}
}

func loadConfig(path string) (*config.Assistant, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	cfg := &config.Assistant{}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.AdjustConfig()
	return cfg, nil
}

func newLogger(cfg *config.LogsCfg) *slog.Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger := slog.New(h).With(
		slog.String("service", cfg.Service),
		slog.String("env", cfg.Env),
	)
	slog.SetDefault(logger)
	return logger
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprint(os.Stderr, `emailassistant triages unread mail into a daily digest.

Usage:
  emailassistant [flags] run
  emailassistant [flags] serve
  emailassistant [flags] cache stats
  emailassistant [flags] cache clear

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
