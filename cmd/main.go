package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bmrbridge/internal/bmr"
	"bmrbridge/internal/config"
	"bmrbridge/internal/coordinator"
	"bmrbridge/internal/handlers"
	"bmrbridge/internal/logger"
	"bmrbridge/internal/metrics"
	"bmrbridge/internal/mqtt"
	"bmrbridge/internal/repository"
	"bmrbridge/internal/repository/db"
	"bmrbridge/internal/server"
	"bmrbridge/internal/service"
)

const (
	probeInitialBackoff = 10 * time.Second
	probeMaxBackoff     = 5 * time.Minute
	shutdownTimeout     = 10 * time.Second
)

func main() {
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.LogLevel)

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(conn)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	client, err := newDeviceClient(cfg)
	if err != nil {
		log.Fatalw("failed to build device client", "err", err)
	}

	coord := coordinator.New(coordinator.Options{
		Client:   client,
		Circuits: cfg.Circuits,
		Interval: cfg.Controller.PollInterval(),
		Timeout:  cfg.Controller.Timeout(),
		Log:      log,
		Events:   repos.EventRepo,
		Metrics:  m,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First snapshot before serving: transient failures retry with
	// backoff, bad credentials or broken setup abort.
	if err := waitForController(ctx, coord, log); err != nil {
		log.Fatalw("controller unreachable", "err", err)
	}

	services := service.NewService(service.Deps{
		Client:      client,
		Coordinator: coord,
		Repos:       repos,
		Controller:  cfg.Controller,
		Circuits:    cfg.Circuits,
		Auth:        cfg.Auth,
		Log:         log,
	})

	go coord.Run(ctx)

	var bridge *mqtt.Bridge
	if cfg.MQTT.Enabled {
		bridge = mqtt.NewBridge(services, cfg.MQTT, cfg.Controller, cfg.Circuits, log)
		if err := bridge.Start(); err != nil {
			log.Fatalw("failed to start mqtt bridge", "err", err)
		}
	}

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	apiHandler := handlers.NewHandler(services, metricsHandler, log)

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(cancel, srv, bridge, log)
}

// newDeviceClient selects the controller transport. Only the simulated
// transport ships with the bridge; a vendor HTTP driver plugs in behind
// bmr.Client.
func newDeviceClient(cfg *config.Config) (bmr.Client, error) {
	if cfg.Controller.Simulate {
		ids := make([]int, 0, len(cfg.Circuits))
		for _, cc := range cfg.Circuits {
			ids = append(ids, cc.ID)
		}
		return bmr.NewSimulator(ids), nil
	}
	return nil, errors.New("no driver for controller.url: set controller.simulate or link a vendor driver")
}

// waitForController polls until the first snapshot lands. Not-ready
// conditions (timeouts, the midnight auth window) retry with capped
// exponential backoff; auth and setup errors are fatal.
func waitForController(ctx context.Context, coord *coordinator.Coordinator, log *logger.Logger) error {
	backoff := probeInitialBackoff
	for {
		err := coord.Refresh(ctx)
		if err == nil {
			return nil
		}

		var notReady *coordinator.NotReadyError
		if !errors.As(err, &notReady) {
			return err
		}

		log.Warnw("controller not ready, retrying", "err", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > probeMaxBackoff {
			backoff = probeMaxBackoff
		}
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, bridge *mqtt.Bridge, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	// stop background goroutines and announce offline on the broker
	cancel()
	if bridge != nil {
		bridge.Stop()
	}

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
