package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arena/config"
	"arena/network"
	"arena/room"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading ARENA_* variables")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("arena: config: %v", err)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	rooms := room.NewManager(cfg.World, logger)
	rooms.GetOrCreateRoom(cfg.DefaultRoom)

	handler := network.NewHandler(rooms, network.HandlerConfig{
		Logger:       logger,
		DefaultRoom:  cfg.DefaultRoom,
		ReadLimit:    cfg.ReadLimit,
		SendQueue:    cfg.SendQueue,
		PingInterval: cfg.PingInterval,
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: network.NewMux(handler)}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Printf("arena: listening on %s (ws endpoint: /ws)", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("arena: listen failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("arena: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("arena: shutdown: %v", err)
	}
	rooms.Shutdown()
}
