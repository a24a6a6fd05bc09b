package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/gridmatch-backend/internal/config"
	"github.com/rocketscienceinc/gridmatch-backend/internal/repository"
	"github.com/rocketscienceinc/gridmatch-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gridmatch-backend/internal/usecase"
	"github.com/rocketscienceinc/gridmatch-backend/transport/rest"
	"github.com/rocketscienceinc/gridmatch-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	matchRepo, closeRepo, err := newMatchRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeRepo()

	matchUseCase := usecase.NewMatchManager(logger, matchRepo, conf.Match)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		httpErrCh <- rest.Start(ctx, conf.HTTPPort, rest.NewRouter(logger, matchUseCase))
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, matchUseCase)
		wsErrCh <- wsServer.Start(ctx, conf.SocketPort)
	}()

	var httpErr, wsErr error
	httpDone, wsDone := false, false

	select {
	case httpErr = <-httpErrCh:
		httpDone = true
	case wsErr = <-wsErrCh:
		wsDone = true
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	// one server stopping takes the other one down
	cancel()

	if !httpDone {
		httpErr = <-httpErrCh
	}

	if !wsDone {
		wsErr = <-wsErrCh
	}

	if httpErr != nil {
		return fmt.Errorf("HTTP server error: %w", httpErr)
	}

	if wsErr != nil {
		return fmt.Errorf("WebSocket server error: %w", wsErr)
	}

	return nil
}

// newMatchRepository picks the match storage named by the config.
func newMatchRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.MatchRepository, func(), error) {
	if conf.Storage != config.StorageRedis {
		log.Info("Using in-memory match storage")
		return repository.NewMemoryMatchRepository(), func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	log.Info("Using redis match storage", "addr", redisAddrString, "ttl", conf.Redis.MatchTTL)

	closeStorage := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewMatchRepository(redisStorage.Connection, conf.Redis.MatchTTL), closeStorage, nil
}
