/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// netops decides whether a network device may be upgraded and drives the
// upgrade through the automation executor.
//
// Usage:
//
//	netops analyze <device-id>
//	netops upgrade [-dry-run] <device-id>
//	netops rollback <upgrade-id>
//	netops history [-limit n] <device-id>
//	netops audit [-limit n] <device-id>
//	netops serve [-listen addr]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/SHARAN-RH/netops/pkg/api"
	"github.com/SHARAN-RH/netops/pkg/config"
	"github.com/SHARAN-RH/netops/pkg/db"
	"github.com/SHARAN-RH/netops/pkg/executor"
	"github.com/SHARAN-RH/netops/pkg/gate"
	"github.com/SHARAN-RH/netops/pkg/logger"
	"github.com/SHARAN-RH/netops/pkg/models"
	"github.com/SHARAN-RH/netops/pkg/natsutil"
	"github.com/SHARAN-RH/netops/pkg/orchestrator"
	"github.com/SHARAN-RH/netops/pkg/telemetry"
)

const (
	defaultConfigPath = "/etc/netops/core.json"
	defaultListenAddr = ":8090"

	shutdownGrace = 10 * time.Second
)

var errUsage = errors.New("usage: netops <analyze|upgrade|rollback|history|audit|serve> [flags] [args]")

func main() {
	if err := run(); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		return errUsage
	}

	command, args := os.Args[1], os.Args[2:]

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "analyze":
		return cmdAnalyze(ctx, args)
	case "upgrade":
		return cmdUpgrade(ctx, args)
	case "rollback":
		return cmdRollback(ctx, args)
	case "history":
		return cmdHistory(ctx, args)
	case "audit":
		return cmdAudit(ctx, args)
	case "serve":
		return cmdServe(ctx, args)
	default:
		return fmt.Errorf("%w (got %q)", errUsage, command)
	}
}

// backends bundles the wired adapters for one invocation.
type backends struct {
	cfg    *models.CoreConfig
	logger logger.Logger
	store  db.Service
	orch   orchestrator.Service
	close  func()
}

func setup(ctx context.Context, configPath string) (*backends, error) {
	bootstrapLog, err := logger.New(logger.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cfg := &models.CoreConfig{}
	if err := config.NewConfig(bootstrapLog).LoadAndValidate(ctx, configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
	}

	appLog := bootstrapLog
	if cfg.Logging != nil {
		appLog, err = logger.New(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	store, err := db.New(ctx, &cfg.Database, cfg.Defaults, appLog)
	if err != nil {
		return nil, err
	}

	metrics := telemetry.NewInfluxStore(&cfg.Telemetry, appLog)
	runner := executor.NewAnsibleRunner(&cfg.Executor, appLog)
	advisory := gate.NewAdvisoryGate(&cfg.Gate, nil, appLog)

	var events natsutil.Publisher = natsutil.NoopPublisher{}

	if cfg.Events != nil && cfg.Events.URL != "" {
		events, err = natsutil.Connect(ctx, cfg.Events, appLog)
		if err != nil {
			store.Close()
			metrics.Close()

			return nil, err
		}
	}

	orch := orchestrator.New(&orchestrator.Config{
		Window:    cfg.Telemetry.Window,
		Requester: cfg.Requester,
	}, &orchestrator.Deps{
		DB:        store,
		Telemetry: metrics,
		Executor:  runner,
		Gate:      advisory,
		Events:    events,
		Logger:    appLog,
	})

	return &backends{
		cfg:    cfg,
		logger: appLog,
		store:  store,
		orch:   orch,
		close: func() {
			events.Close()
			metrics.Close()
			store.Close()
		},
	}, nil
}

func cmdAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	_ = fs.Parse(args)

	deviceID := fs.Arg(0)
	if deviceID == "" {
		return fmt.Errorf("%w: analyze needs a device id", errUsage)
	}

	b, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer b.close()

	verdict, err := b.orch.Analyze(ctx, deviceID)
	if err != nil {
		return err
	}

	return printJSON(verdict)
}

func cmdUpgrade(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upgrade", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	dryRun := fs.Bool("dry-run", false, "Stop after a successful precheck")
	_ = fs.Parse(args)

	deviceID := fs.Arg(0)
	if deviceID == "" {
		return fmt.Errorf("%w: upgrade needs a device id", errUsage)
	}

	b, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer b.close()

	result, err := b.orch.Execute(ctx, deviceID, *dryRun)
	if err != nil {
		return err
	}

	if err := printJSON(result); err != nil {
		return err
	}

	if result.Status == models.StatusFailed {
		return fmt.Errorf("upgrade %s failed: %s", result.UpgradeID, result.Reason)
	}

	return nil
}

func cmdRollback(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	_ = fs.Parse(args)

	upgradeID := fs.Arg(0)
	if upgradeID == "" {
		return fmt.Errorf("%w: rollback needs an upgrade id", errUsage)
	}

	b, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer b.close()

	result, err := b.orch.Rollback(ctx, upgradeID)
	if err != nil {
		return err
	}

	return printJSON(result)
}

func cmdHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	limit := fs.Int("limit", 20, "Maximum entries to list")
	_ = fs.Parse(args)

	deviceID := fs.Arg(0)
	if deviceID == "" {
		return fmt.Errorf("%w: history needs a device id", errUsage)
	}

	b, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer b.close()

	upgrades, err := b.store.ListRecentUpgrades(ctx, deviceID, *limit)
	if err != nil {
		return err
	}

	return printJSON(upgrades)
}

func cmdAudit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	limit := fs.Int("limit", 50, "Maximum entries to list")
	_ = fs.Parse(args)

	deviceID := fs.Arg(0)
	if deviceID == "" {
		return fmt.Errorf("%w: audit needs a device id", errUsage)
	}

	b, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer b.close()

	events, err := b.store.ListAuditEvents(ctx, deviceID, *limit)
	if err != nil {
		return err
	}

	return printJSON(events)
}

func cmdServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	listen := fs.String("listen", "", "Listen address (overrides config)")
	_ = fs.Parse(args)

	b, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer b.close()

	addr := *listen
	if addr == "" {
		addr = b.cfg.ListenAddr
	}

	if addr == "" {
		addr = defaultListenAddr
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(b.orch, b.store, b.logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		b.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	b.logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
