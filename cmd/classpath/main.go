// Command classpath instruments classpath entries into a shared cache and
// prints the path of each instrumented JAR, one per line, in argument order.
//
// Usage:
//
//	classpath [flags] ENTRY...
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/classpath"
	"github.com/meigma/classpath/contenthash"
	"github.com/meigma/classpath/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		configPath  string
		cacheDir    string
		relocations []string
		jobs        int
		logLevel    string
		lockTimeout time.Duration
	)

	flagSet := pflag.NewFlagSet("classpath", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", os.Getenv(config.PathEnv), "path to a YAML config file (env "+config.PathEnv+")")
	flagSet.StringVar(&cacheDir, "cache-dir", "", "cache root directory")
	flagSet.StringArrayVar(&relocations, "relocate", nil, "package relocation FROM=TO, such as com/example/=shaded/example/ (repeatable)")
	flagSet.IntVarP(&jobs, "jobs", "j", 0, "number of entries to transform at once")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flagSet.DurationVar(&lockTimeout, "lock-timeout", 0, "maximum wait for a cache entry locked by another process (0 waits indefinitely)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}
	entries := flagSet.Args()
	if len(entries) == 0 {
		return errors.New("no classpath entries given")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("cache-dir") {
		cfg.CacheDir = cacheDir
	}
	if flagSet.Changed("relocate") {
		cfg.Relocations = relocations
	}
	if flagSet.Changed("jobs") {
		cfg.Jobs = jobs
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flagSet.Changed("lock-timeout") {
		cfg.LockTimeout = lockTimeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	transformer, err := classpath.New(policy,
		classpath.WithLogger(logger),
		classpath.WithLockTimeout(cfg.LockTimeout),
	)
	if err != nil {
		return err
	}

	outputs, err := transformAll(ctx, transformer, cfg, entries)
	if err != nil {
		return err
	}
	for _, out := range outputs {
		if _, err := fmt.Fprintln(stdout, out); err != nil {
			return err
		}
	}
	return nil
}

// transformAll transforms entries with at most cfg.Jobs running at once and
// returns the artifact paths in the order of entries.
func transformAll(ctx context.Context, t *classpath.Transformer, cfg *config.Config, entries []string) ([]string, error) {
	outputs := make([]string, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Jobs)
	for i, entry := range entries {
		g.Go(func() error {
			hash, err := contenthash.Path(entry)
			if err != nil {
				return fmt.Errorf("hash %s: %w", entry, err)
			}
			out, err := t.Transform(ctx, classpath.Source{Path: entry, Hash: hash}, cfg.CacheDir)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `classpath instruments JAR files and class directories into a shared cache.

Each entry is hashed by content, so unchanged entries are served from the
cache without being transformed again. Any number of processes may share one
cache directory.

Usage:
  classpath [flags] ENTRY...

Examples:
  # Relocate Guava into a private package
  classpath --relocate com/google/common/=shaded/guava/ lib/guava.jar

  # Instrument a build's classpath four entries at a time
  classpath -j 4 build/classes lib/*.jar

Flags:
`)
	flagSet.PrintDefaults()
}
