package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"escrowd/config"
	"escrowd/core/events"
	"escrowd/native/escrow"
	"escrowd/native/token"
	"escrowd/observability/logging"
	"escrowd/rpc"
	"escrowd/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "./config.toml", "path to the escrowd configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("escrowd", cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	custody, err := cfg.CustodyAddress()
	if err != nil {
		logger.Error("invalid custody address", "err", err)
		os.Exit(1)
	}
	arbitrator, err := cfg.ArbitratorAddress()
	if err != nil {
		logger.Error("invalid arbitrator address", "err", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("open database", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	book := token.NewBook(custody)
	led, err := escrow.NewLedger(escrow.NewKVState(db), book, custody, arbitrator)
	if err != nil {
		logger.Error("construct ledger", "err", err)
		os.Exit(1)
	}
	led.SetMinTimeout(cfg.MinTimeoutSeconds)
	led.SetEmitter(events.SlogEmitter{Logger: logger})

	server := rpc.NewServer(led, cfg.RPCToken, logger)
	srv := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("escrowd listening", "addr", cfg.ListenAddress, "arbitrator", arbitrator.Hex())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down escrowd")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
