package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"auctionhub/internal/auction"
	"auctionhub/internal/config"
	"auctionhub/internal/eventbus"
	"auctionhub/internal/repository"
	"auctionhub/internal/scheduler"
	"auctionhub/internal/server"
	"auctionhub/internal/session"
	"auctionhub/internal/subscription"
	"auctionhub/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("invalid configuration", map[string]any{"error": err.Error()})
	}

	repo := repository.NewMemoryRepo()
	bus := eventbus.New()
	auctionService := auction.NewService(repo, bus)
	sessions := session.NewRegistry(cfg.SessionMaxIdle)
	subscriptions := subscription.NewRegistry(cfg.SendTimeout)

	// Fan accepted-bid events out to live subscribers.
	bus.Subscribe(subscriptions.HandleEvent)

	lifecycle := scheduler.New(scheduler.Config{Interval: cfg.SweepInterval}, auctionService, sessions)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lifecycle.Start(ctx)

	router := server.SetupRouter(auctionService, sessions, subscriptions, cfg.SendTimeout)
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("server failed", map[string]any{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	utils.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("server shutdown failed", map[string]any{"error": err.Error()})
	}
	if err := lifecycle.Stop(shutdownCtx); err != nil {
		utils.Error("scheduler shutdown failed", map[string]any{"error": err.Error()})
	}
	bus.Close()
}
