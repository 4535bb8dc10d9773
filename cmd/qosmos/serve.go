// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AerafalDev/Qosmos/internal/config"
	"github.com/AerafalDev/Qosmos/internal/factory"
	goplugin "github.com/AerafalDev/Qosmos/internal/factory/goplugin"
	luafactory "github.com/AerafalDev/Qosmos/internal/factory/lua"
	nativefactory "github.com/AerafalDev/Qosmos/internal/factory/native"
	"github.com/AerafalDev/Qosmos/internal/logging"
	"github.com/AerafalDev/Qosmos/internal/manifestio"
	"github.com/AerafalDev/Qosmos/internal/pluginsvc"
	"github.com/AerafalDev/Qosmos/pkg/errutil"
	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

const serveShutdownTimeout = 30 * time.Second

// NewServeCmd creates the serve subcommand: discover, resolve, run.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Discover and run every plugin under the plugins directory",
		RunE:  runServe,
	}
	cmd.Flags().String("pluginsDir", "", "override the configured plugins directory")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	logger := logging.Setup("qosmos", "dev", cfg.LogFormat, nil)
	registry := prometheus.NewRegistry()

	hostVersion, err := pluginapi.ParseVersion(cfg.HostVersion)
	if err != nil {
		return fmt.Errorf("parsing hostVersion %q: %w", cfg.HostVersion, err)
	}

	router := &factory.Router{
		Native: nativefactory.New(),
		Lua:    luafactory.New(cfg.PluginsDir),
		Exec:   goplugin.New(cfg.PluginsDir),
	}
	svc := pluginsvc.New(router, logging.NewSlogLogger(logger),
		pluginsvc.WithMetricsRegistry(registry),
		pluginsvc.WithHostVersion(hostVersion))

	units, err := manifestio.Discover(cfg.PluginsDir, func(dir string, err error) {
		logger.Warn("skipping plugin directory", "dir", dir, "error", err)
	})
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	for _, unit := range units {
		if err := svc.Register(unit); err != nil {
			errutil.LogError(logger, "failed to register plugin", err)
		}
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := svc.LoadAll(ctx); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	logger.Info("loaded plugins", "count", len(units))

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, registry, logger)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer shutdownCancel()
	for _, outcome := range svc.Shutdown(shutdownCtx) {
		if outcome.Err != nil {
			errutil.LogError(logger, "plugin failed to stop cleanly", outcome.Err)
		}
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger interface {
	Error(msg string, args ...any)
}) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server failed", "error", err)
	}
}

func loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return config.Config{}, err
	}
	if override, _ := flags.GetString("pluginsDir"); override != "" {
		cfg.PluginsDir = override
	}
	return cfg, nil
}
