package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"talkboard/auth"
	"talkboard/contract"
	"talkboard/httpapi"
	"talkboard/moderation"
	"talkboard/repositories"
	"talkboard/runtime"
	"talkboard/runtime/workers"
	"talkboard/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanups always execute before
// the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Record store backend
	var store contract.Store
	switch config.StoreBackend {
	case "badger":
		db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		store = storage.NewBadgerStore(db)
	default:
		diskStore, err := storage.NewDiskStore(config.DataDir)
		if err != nil {
			return fmt.Errorf("store opening failed: %w", err)
		}
		store = diskStore
	}

	// 3. Repositories & moderation
	groups := repositories.NewGroupRepository(store, log)
	messages := repositories.NewMessageRepository(store, log)
	directs := repositories.NewDirectRepository(store, log)
	alerts := repositories.NewAlertRepository(store, log)
	users := repositories.NewUserRepository(store, log)

	wordList, err := moderation.LoadWordList()
	if err != nil {
		return fmt.Errorf("loading censored words: %w", err)
	}
	log.Info(fmt.Sprintf("%d censored words loaded from %d languages",
		len(wordList.Words), len(wordList.Languages)))

	replacement, err := characterRune(config.ModerationChar)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(wordList.Words, replacement)
	if err != nil {
		return fmt.Errorf("building moderator: %w", err)
	}

	// 4. Realtime core
	tokens := auth.NewTokenManager(config.AuthSecret, config.AuthTokenDuration)
	presence := runtime.NewPresence()
	router := runtime.NewRouter(log, presence)
	dispatcher := runtime.NewDispatcher(log, presence, router,
		groups, messages, directs, alerts, users,
		moderator, tokens.UserID, config.BufferSize)

	// 5. Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewFanoutWorker(log, router, dispatcher.Outbound()),
		workers.NewOnlineStatsWorker(log, presence, router, config.StatsInterval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 6. HTTP server
	server := httpapi.NewServer(log, dispatcher, groups, messages, directs,
		alerts, tokens, config.ConnectionBufferSize)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv := &http.Server{Addr: address, Handler: server.Router()}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "store", config.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}

func characterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q", str)
	}
	return r[0], nil
}
