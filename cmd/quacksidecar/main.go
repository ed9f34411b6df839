// Command quacksidecar runs a standalone quACK sidecar: it observes
// packet identifiers and endpoint acknowledgements over HTTP, maintains
// the seen/acked power-sum accumulators, closes a round on a fixed
// period, and serves the resulting digest and decode API.
//
// # Usage
//
//	go run ./cmd/quacksidecar --config=sidecar.yaml
//	go run ./cmd/quacksidecar --addr=:8090 --threshold=64
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/flashbots/quack/quack"
	"github.com/flashbots/quack/sidecar"
	"github.com/flashbots/quack/sidecar/config"
	"github.com/flashbots/quack/sidecar/httpapi"
	"github.com/flashbots/quack/sidecar/round"
	"github.com/flashbots/quack/sidecar/store"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file path (flags below override it)")
		addr        = flag.String("addr", "", "HTTP listen address")
		threshold   = flag.Int("threshold", 0, "power-sum accumulator threshold")
		pgHost      = flag.String("pg-host", "", "Postgres host (empty uses an in-memory packet log)")
		enablePprof = flag.Bool("pprof", false, "mount the pprof debugging API")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("config error: %v\n", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg, *addr, *threshold, *pgHost, *enablePprof)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	quack.SetMaxThreshold(cfg.MaxThreshold)

	sc, err := sidecar.New(cfg.Threshold)
	if err != nil {
		logger.Error("failed to construct sidecar", "error", err)
		os.Exit(1)
	}
	signingPub, kemPub, ecdhPub := sc.Identity()
	logger.Info("sidecar identity generated",
		"signing_pub", signingPub.String(),
		"kem_pub_len", len(kemPub),
		"ecdh_pub_len", len(ecdhPub.Bytes()))

	packetLog, err := openPacketLogStore(cfg)
	if err != nil {
		logger.Error("failed to open packet log store", "error", err)
		os.Exit(1)
	}
	defer packetLog.Close()

	coordinator := round.NewLocalCoordinator(cfg.RoundDuration)
	closer := round.NewEpochCloser(coordinator, sc, packetLog, logger, cfg.RetainRounds)

	handlers := httpapi.NewHandlers(sc, coordinator, packetLog, logger)
	httpCfg := &httpapi.Config{
		ListenAddr:               cfg.HTTPAddr,
		EnablePprof:              cfg.EnablePprof,
		CORSAllowedOrigins:       cfg.CORSAllowedOrigins,
		Log:                      logger,
		DrainDuration:            cfg.DrainDuration,
		GracefulShutdownDuration: cfg.GracefulShutdownDuration,
		ReadTimeout:              cfg.ReadTimeout,
		WriteTimeout:             cfg.WriteTimeout,
	}
	server := httpapi.New(httpCfg, handlers)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	coordinator.Start(ctx)
	go closer.Run(ctx)
	server.RunInBackground()

	logger.Info("quacksidecar started", "addr", cfg.HTTPAddr, "threshold", cfg.Threshold)

	<-ctx.Done()
	logger.Info("shutting down")
	server.Shutdown()
}

func loadConfig(path string) (*config.SidecarConfig, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(path)
}

func applyFlagOverrides(cfg *config.SidecarConfig, addr string, threshold int, pgHost string, enablePprof bool) {
	if addr != "" {
		cfg.HTTPAddr = addr
	}
	if threshold > 0 {
		cfg.Threshold = threshold
	}
	if pgHost != "" {
		cfg.Postgres.Host = pgHost
	}
	if enablePprof {
		cfg.EnablePprof = true
	}
}

func openPacketLogStore(cfg *config.SidecarConfig) (store.PacketLogStore, error) {
	if !cfg.Postgres.HasPostgres() {
		return store.NewInMemoryStore(), nil
	}

	pgCfg := &store.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
		SSLMode:  cfg.Postgres.SSLMode,
	}
	return store.NewPostgresStore(pgCfg)
}
