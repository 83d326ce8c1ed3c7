package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teilomillet/gmail-agent/config"
	agenterrors "github.com/teilomillet/gmail-agent/errors"
	"github.com/teilomillet/gmail-agent/server"
)

const Version = "v0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gmail-agent: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configFile string
	envFile    string
	validate   bool
	version    bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options
	fset := flag.NewFlagSet("gmail-agent", flag.ContinueOnError)
	fset.SetOutput(out)
	fset.StringVar(&opts.configFile, "config", "config.yaml", "Path to configuration file")
	fset.StringVar(&opts.envFile, "env-file", ".env", "Optional dotenv file loaded before the configuration")
	fset.BoolVar(&opts.validate, "validate", false, "Validate configuration and exit")
	fset.BoolVar(&opts.version, "version", false, "Print version and exit")
	return opts, fset.Parse(args)
}

// loadConfig loads the dotenv file, if any, and then the configuration.
// Variables already set in the environment win over the dotenv file.
func loadConfig(opts options) (*config.Config, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	return config.LoadFileOrDefault(opts.configFile)
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args, out)
	if err != nil {
		return err
	}

	if opts.version {
		fmt.Fprintf(out, "gmail-agent %s\n", Version)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if opts.validate {
		fmt.Fprintln(out, "Configuration is valid")
		return nil
	}

	logger, level, err := cfg.Logging.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	agenterrors.SetLogger(logger)

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("server initialization failed: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if _, statErr := os.Stat(opts.configFile); statErr == nil {
		watcher, err := config.NewConfigWatcher(opts.configFile, cfg, logger)
		if err != nil {
			logger.Warn("Config hot reload disabled", zap.Error(err))
		} else {
			g.Go(func() error {
				config.WatchLogLevel(watcher, level, logger)
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				return watcher.Close()
			})
		}
	}

	logger.Info("Starting gmail-agent",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
	)
	g.Go(func() error {
		return srv.Start(ctx)
	})

	return g.Wait()
}
