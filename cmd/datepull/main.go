package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"datepull/internal/config"
	"datepull/internal/extract"
	"datepull/internal/gemini"
	appLog "datepull/internal/log"
	"datepull/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("datepull starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides the config file if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"model", conf.Model,
		"api_key_env", conf.APIKeyEnv,
		"request_timeout_seconds", conf.RequestTimeoutSeconds,
		"max_upload_bytes", conf.MaxUploadBytes,
	)

	if conf.APIKey() == "" {
		appLog.Error("extraction API key not set", errors.New("missing API key"), "env", conf.APIKeyEnv)
		os.Exit(1)
	}

	extractor := gemini.New(conf.APIKey(), conf.Model,
		gemini.WithTimeout(time.Duration(conf.RequestTimeoutSeconds)*time.Second),
		gemini.WithResponseSchema(extract.ResponseSchema),
	)
	svc := extract.NewService(extractor, conf.Timezone)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := web.StartServer(ctx, conf, svc); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	appLog.Info("datepull exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/datepull/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
