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

	"lobby-chat/api"
	"lobby-chat/auth"
	"lobby-chat/domain/chat"
	"lobby-chat/internal"
	"lobby-chat/moderation"
	"lobby-chat/observability"
	"lobby-chat/repositories"
	"lobby-chat/runtime"
	"lobby-chat/services"
	ws "lobby-chat/transport/websocket"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// It is preferred over calling os.Exit or panic directly because it ensures
// all 'defer' statements (like database cleanup) run before the program exits.
func run() (int, error) {
	// 1. Configuration & Logger
	// A missing .env file is fine, the environment may already be populated.
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.Level(),
	}))

	ctx := context.Background()

	// 2. Storage (BadgerDB & Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Repositories
	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitReplay)
	defer func() {
		// Releases the leased sequence numbers back to Badger.
		_ = messageRepository.Close()
	}()
	userRepository := repositories.NewUserRepository(db)
	sessionRepository := repositories.NewSessionRepository(db)
	searchIndex := repositories.NewSearchIndex(blugeWriter, logger)

	// 4. Moderation
	words, err := moderation.DefaultWords()
	if err != nil {
		return exitConfig, err
	}
	moderator, err := moderation.NewModerator(words, charReplacement)
	if err != nil {
		return exitConfig, fmt.Errorf("moderator init failed: %w", err)
	}

	// 5. Lobby core
	room := chat.RoomID(config.RoomName)
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(logger, registry)

	tokens := auth.NewTokenManager([]byte(config.TokenSigningKey), config.AuthTokenDuration)
	authService := services.NewAuthService(userRepository, sessionRepository, tokens)
	lobbyService := services.NewLobbyService(logger, room, &moderator,
		messageRepository, searchIndex, registry, broadcaster)
	arbiter := runtime.NewArbiter(logger, authService, registry, broadcaster,
		messageRepository, room)

	monitor, err := observability.NewMonitor(logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("monitor init failed: %w", err)
	}

	// 6. Transport & API
	wsHandler := ws.NewHandler(logger, arbiter, lobbyService, config.SendQueueSize)
	apiServer := api.NewServer(logger, authService, lobbyService, monitor,
		wsHandler, config.SearchLimit)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:         address,
		Handler:      apiServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket connections outlive any write deadline
		IdleTimeout:  120 * time.Second,
	}

	// 7. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting HTTP server", "address", address, "room", string(room), "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 9. Final Cleanup (Graceful Shutdown)
	// In-flight HTTP requests get a grace period, then open websockets are cut.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown did not complete in time", "error", err)
		_ = httpServer.Close()
	}
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}
