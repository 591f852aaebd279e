package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iwvelando/mortgage-trust/internal/cache"
	"github.com/iwvelando/mortgage-trust/internal/calibrate"
	"github.com/iwvelando/mortgage-trust/internal/config"
	"github.com/iwvelando/mortgage-trust/internal/engine"
	"github.com/iwvelando/mortgage-trust/internal/server"
	"github.com/iwvelando/mortgage-trust/pkg/constants"
	"github.com/iwvelando/mortgage-trust/pkg/output"
	"github.com/iwvelando/mortgage-trust/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// parseLevel accepts the level names used in config files. Empty means info.
func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	zapLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	switch loggingConfig.Format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json", "":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", loggingConfig.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
		cfg.OutputPaths = []string{loggingConfig.OutputFile}
		cfg.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return cfg.Build()
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	calibrateFlag := flag.Bool("calibrate", false, "rank assumption sets against the configured statement instead of running scenarios")
	serve := flag.Bool("serve", false, "run the HTTP API instead of processing a configuration file")
	serverConfig := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file (with -serve)")
	flag.Parse()

	if *serve {
		runServer(*serverConfig, *logLevel)
		return
	}

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty // Default to pretty format
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	// Convert the configuration into engine inputs.
	job, err := engine.NewJob(conf)
	if err != nil {
		logger.Fatal("failed to convert configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if *calibrateFlag {
		if len(job.Statement) == 0 {
			logger.Fatal("calibration needs a statement in common.statement",
				zap.String("op", "main"),
			)
		}
		rankings, err := calibrate.NewRunner(logger, nil).Run(context.Background(), calibrate.RequestFromJob(job))
		if err != nil {
			logger.Fatal("failed to calibrate assumptions",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		if err := output.WriteRankings(os.Stdout, outputFormat, rankings); err != nil {
			logger.Fatal("failed to write rankings",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	// Generate and reconcile every active scenario.
	results, err := engine.New(logger, nil).Run(context.Background(), job)
	if err != nil {
		logger.Fatal("failed to compute schedules",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	if err := output.Write(os.Stdout, outputFormat, results); err != nil {
		logger.Fatal("failed to write results",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// runServer serves the HTTP API until SIGINT or SIGTERM.
func runServer(path, logLevel string) {
	cfg, err := server.LoadConfig(path)
	if err != nil {
		fmt.Printf("{\"op\": \"main.runServer\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", path, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(cfg.Logging, logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main.runServer\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	scheduleCache, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Fatal("failed to initialize schedule cache",
			zap.String("op", "main.runServer"),
			zap.Error(err),
		)
	}

	srv := &http.Server{
		Addr: cfg.Address,
		Handler: server.NewHandler(logger, server.Options{
			MaxUploadSize: cfg.UploadSizeBytes(),
			Version:       version,
			Cache:         scheduleCache,
			RateLimit:     cfg.RateLimit,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown failed",
				zap.String("op", "main.runServer"),
				zap.Error(err),
			)
		}
	}()

	logger.Info("serving mortgage-trust API",
		zap.String("op", "main.runServer"),
		zap.String("address", cfg.Address),
		zap.String("cache", cfg.Cache.Backend),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed",
			zap.String("op", "main.runServer"),
			zap.Error(err),
		)
	}
}
