package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/gridmatch-backend/internal/entity"
	"github.com/rocketscienceinc/gridmatch-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type matchUseCase interface {
	StartMatch(ctx context.Context, settings usecase.Settings) (*usecase.MatchView, error)
	GetMatch(ctx context.Context, id string) (*usecase.MatchView, error)
	SubmitMove(ctx context.Context, id string, coord entity.Coordinate) (*usecase.MoveResult, error)
	IsAvailable(ctx context.Context, id string, coord entity.Coordinate) (bool, error)
	PlayAgain(ctx context.Context, id string, settings usecase.Settings) (*usecase.MatchView, error)
	EndMatch(ctx context.Context, id string) error
}

// NewRouter wires the REST routes.
func NewRouter(logger *slog.Logger, matchUseCase matchUseCase) http.Handler {
	h := newMatchHandlers(logger, matchUseCase)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ping", h.ping)
	r.Post("/matches", h.startMatch)
	r.Route("/matches/{id}", func(r chi.Router) {
		r.Get("/", h.getMatch)
		r.Delete("/", h.endMatch)
		r.Post("/moves", h.submitMove)
		r.Post("/replay", h.playAgain)
		r.Get("/cells/{x}/{y}", h.isAvailable)
	})

	return r
}

// Start - starts HTTP server and stops it when ctx is done.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}

	return nil
}
