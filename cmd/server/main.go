package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fridge/internal/api"
	"fridge/internal/blob"
	"fridge/internal/config"
	"fridge/internal/db"
	"fridge/internal/intake"
	"fridge/internal/notify"
	"fridge/internal/provider"
	"fridge/internal/session"
	"fridge/internal/ws"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting server", "name", cfg.Server.Name)

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.Info("database opened", "path", cfg.Database.Path)

	assets, err := blob.NewService(cfg.Storage.AvatarRoot, cfg.Storage.AvatarMaxBytes)
	if err != nil {
		slog.Error("failed to initialize avatar storage", "error", err)
		os.Exit(1)
	}
	slog.Info("avatar storage initialized", "root", cfg.Storage.AvatarRoot, "max_bytes", cfg.Storage.AvatarMaxBytes)

	state, err := session.NewFileState(cfg.Storage.StatePath)
	if err != nil {
		slog.Error("failed to initialize session state", "error", err)
		os.Exit(1)
	}

	providerClient := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.RedirectURL, state)
	defer providerClient.Close()

	relay := notify.NewRelay(cfg.Notify.Endpoint, cfg.Notify.AccessKey, cfg.Notify.FromName, cfg.Notify.To)
	if !relay.Enabled() {
		slog.Warn("notification relay disabled, no access key configured")
	}

	hub := ws.NewHub()
	go hub.Run()

	sessions := session.NewManager(providerClient, hub, hub, state)
	sessions.Start(context.Background())

	profileRepo := db.NewProfileRepository(database)
	donationRepo := db.NewDonationRepository(database)
	volunteerRepo := db.NewVolunteerRepository(database)

	donations := intake.NewDonationPipeline(donationRepo, relay, hub, hub)
	volunteers := intake.NewVolunteerPipeline(volunteerRepo, relay, hub, hub)
	avatars := intake.NewAvatarWorkflow(profileRepo, assets, hub, cfg.Server.BaseURL, cfg.Storage.AvatarMaxBytes)

	server := api.NewServer(cfg, database, assets, hub, sessions, providerClient,
		profileRepo, donationRepo, volunteerRepo,
		donations, volunteers, avatars)

	addr := cfg.Addr()
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server,
	}

	go func() {
		slog.Info("server listening", "addr", addr, "base_url", cfg.Server.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")

	sessions.Close()
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
