package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/genai"

	"github.com/journi-app/journi/internal/agent"
	"github.com/journi-app/journi/internal/auth"
	"github.com/journi-app/journi/internal/blob"
	"github.com/journi-app/journi/internal/checkpoint"
	"github.com/journi-app/journi/internal/config"
	"github.com/journi-app/journi/internal/metrics"
	"github.com/journi-app/journi/internal/middleware"
	"github.com/journi-app/journi/internal/rpc"
	"github.com/journi-app/journi/internal/service"
	"github.com/journi-app/journi/internal/session"
	"github.com/journi-app/journi/internal/storage/sqlite"
	"github.com/journi-app/journi/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Durable trip storage.
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	collector := metrics.NewCollector("journi")

	// Session checkpoints: Postgres when configured, in-memory otherwise.
	var checkpoints checkpoint.Store
	if cfg.PostgresDSN != "" {
		checkpoints, err = checkpoint.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("checkpoint store: %w", err)
		}
		logger.Info("Checkpointing to postgres")
	} else {
		checkpoints = checkpoint.NewMemoryStore()
		logger.Warn("POSTGRES_DSN not set, sessions will not survive restarts")
	}
	checkpoints = checkpoint.Instrument(checkpoints, collector.CheckpointSaves, collector.CheckpointErrors)
	defer checkpoints.Close()

	sessions := session.NewManager(checkpoints, logger)

	// Photo blob storage is optional; without it photo uploads are
	// rejected but everything else works.
	var uploader blob.Uploader
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceRoleKey != "" {
		supabaseUploader, err := blob.NewSupabaseUploader(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.PhotoBucket)
		if err != nil {
			return fmt.Errorf("blob storage: %w", err)
		}
		uploader = supabaseUploader
		logger.Info("Photo storage enabled", "bucket", cfg.PhotoBucket)
	} else {
		logger.Warn("Photo storage not configured")
	}

	mux := http.NewServeMux()
	logged := connect.WithInterceptors(middleware.LoggingInterceptor())

	// Token verification depends on the auth mode. Local mode also
	// mounts the register/login endpoints.
	var verifier auth.TokenVerifier
	switch cfg.AuthMode {
	case "local":
		jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
		verifier = jwtManager
		authService := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, logger)

		mux.Handle(rpc.NewHandler("/journi.v1.AuthService/Register", authService.Register, logged))
		mux.Handle(rpc.NewHandler("/journi.v1.AuthService/Login", authService.Login, logged))
		mux.Handle(rpc.NewHandler("/journi.v1.AuthService/GuestLogin", authService.GuestLogin, logged))
		mux.Handle(rpc.NewHandler("/journi.v1.AuthService/GetCurrentUser", authService.GetCurrentUser,
			logged, connect.WithInterceptors(middleware.RequireAuth(jwtManager))))
		logger.Info("Auth mode: local accounts")
	case "supabase":
		verifier, err = auth.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
		if err != nil {
			return fmt.Errorf("supabase auth: %w", err)
		}
		logger.Info("Auth mode: supabase tokens")
	default:
		return fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
	authed := connect.WithInterceptors(middleware.RequireAuth(verifier))

	tripService := service.NewTripService(store, sessions, uploader, collector, logger)
	mux.Handle(rpc.NewHandler("/journi.v1.TripService/CreateTrip", tripService.CreateTrip, logged, authed))
	mux.Handle(rpc.NewHandler("/journi.v1.TripService/JoinTrip", tripService.JoinTrip, logged, authed))
	mux.Handle(rpc.NewHandler("/journi.v1.TripService/GetTrip", tripService.GetTrip, logged, authed))
	mux.Handle(rpc.NewHandler("/journi.v1.TripService/ListTrips", tripService.ListTrips, logged, authed))
	mux.Handle(rpc.NewHandler("/journi.v1.TripService/Apply", tripService.Apply, logged, authed))
	mux.Handle(rpc.NewHandler("/journi.v1.TripService/UploadPhoto", tripService.UploadPhoto, logged, authed))
	mux.Handle(rpc.NewHandler("/journi.v1.TripService/FinalizeTrip", tripService.FinalizeTrip, logged, authed))
	mux.Handle(rpc.NewHandler("/journi.v1.TripService/DeleteTrip", tripService.DeleteTrip, logged, authed))

	// The chat surface needs a Gemini key; without one the trip service
	// still serves the structured API.
	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return fmt.Errorf("gemini client: %w", err)
		}
		chatAgent, err := agent.New(client, cfg.Models, sessions, collector, logger)
		if err != nil {
			return fmt.Errorf("agent: %w", err)
		}
		chatService := service.NewChatService(chatAgent, sessions, store, uploader, logger)
		mux.Handle(rpc.NewHandler("/journi.v1.ChatService/SendMessage", chatService.SendMessage, logged, authed))
		mux.Handle(rpc.NewHandler("/journi.v1.ChatService/SendPhoto", chatService.SendPhoto, logged, authed))
		logger.Info("Chat agent enabled", "models", cfg.Models)
	} else {
		logger.Warn("GEMINI_API_KEY not set, chat endpoints disabled")
	}

	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// h2c allows HTTP/2 without TLS, which Connect clients use locally.
	handler := h2c.NewHandler(corsMiddleware(mux), &http2.Server{})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
