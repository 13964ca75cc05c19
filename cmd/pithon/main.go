// Pithon console daemon - operator side of the rescue robot link.
//
// Waits for the robot to dial in, then serves the operator dashboard,
// streams telemetry, and relays actuator commands back over the link.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adam-Vandervorst/pithon/internal/config"
	"github.com/Adam-Vandervorst/pithon/internal/log"
	"github.com/Adam-Vandervorst/pithon/pkg/actuator"
	"github.com/Adam-Vandervorst/pithon/pkg/console"
	"github.com/Adam-Vandervorst/pithon/pkg/gesture"
	"github.com/Adam-Vandervorst/pithon/pkg/link"
	"github.com/Adam-Vandervorst/pithon/pkg/orientation"
	"github.com/Adam-Vandervorst/pithon/pkg/recorder"
	"github.com/Adam-Vandervorst/pithon/pkg/telemetry"
)

func main() {
	cfg := parseFlags()
	log.Init(cfg.Log.Level)
	logger := log.L()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

// parseFlags layers command line flags over the config file defaults.
func parseFlags() *config.Config {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "Robot link port (overrides config)")
	addr := flag.String("addr", "", "Dashboard listen address (overrides config)")
	record := flag.String("record", "", "Record sessions to this SQLite file")
	level := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logging isn't configured yet.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if *port != 0 {
		cfg.Link.Port = *port
	}
	if *addr != "" {
		cfg.Dashboard.Addr = *addr
	}
	if *record != "" {
		cfg.Record.Enabled = true
		cfg.Record.Path = *record
	}
	if *level != "" {
		cfg.Log.Level = *level
	}
	return cfg
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	srv, err := link.Listen(cfg.Link.Port, logger)
	if err != nil {
		return err
	}
	logger.Info("waiting for robot", "addr", srv.Addr())

	conn, err := srv.Accept()
	if err != nil {
		return err
	}
	logger.Info("robot connected", "remote", conn.RemoteAddr())

	var store *recorder.Store
	var sessionID string
	var sender recorder.Sender = conn
	if cfg.Record.Enabled {
		store = recorder.NewStore(cfg.Record.Path)
		defer store.Close()

		sessionID, err = store.BeginSession(ctx, conn.RemoteAddr())
		if err != nil {
			return err
		}
		sender = recorder.NewTap(conn, store, sessionID, logger)
		logger.Info("recording session", "id", sessionID, "path", cfg.Record.Path)
	}

	registry := actuator.NewRegistry()
	dashboard := console.NewServer(cfg.Dashboard.Addr, registry, logger)
	dashboard.SetController(gesture.NewController(
		actuator.NewDispatcher(registry, sender, logger),
		registry, dashboard, logger,
	))
	dashboard.LinkAlive = conn.Alive
	dashboard.OnShutdown = func() error {
		conn.Disconnect(true)
		return nil
	}
	dashboard.StartAsync()
	defer dashboard.Shutdown()

	// Telemetry pump: frames flow to the dashboard streams, angular
	// rates to the orientation estimate, metadata to the recorder.
	estimator := orientation.NewEstimator()
	reader := telemetry.NewReader(conn.Reader(), logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for frame := range reader.Frames() {
			dashboard.PublishFrame(frame)
			if report, ok := estimator.Update(frame.Sample); ok {
				dashboard.PublishOrientation(report)
			}
			if store != nil {
				if err := store.StoreFrame(ctx, sessionID, frame); err != nil {
					logger.Warn("frame not recorded", "error", err)
				}
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down", "frames", reader.Count())
		conn.Disconnect(true)
		<-done
	case <-done:
		logger.Info("robot hung up", "frames", reader.Count())
		conn.Disconnect(false)
	}
	return nil
}
