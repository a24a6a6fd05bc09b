package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/gridmatch-backend/internal/apperror"
	"github.com/rocketscienceinc/gridmatch-backend/internal/config"
	"github.com/rocketscienceinc/gridmatch-backend/internal/entity"
	"github.com/rocketscienceinc/gridmatch-backend/internal/tictactoe"
)

type matchRepo interface {
	CreateOrUpdate(ctx context.Context, match *entity.MatchRecord) error
	GetByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	DeleteByID(ctx context.Context, id string) error
}

// Settings are the choices a client makes before a match. Zero values fall back to defaults.
type Settings struct {
	BoardSize      int         `json:"board_size,omitempty"`
	HumanMark      entity.Mark `json:"human_mark,omitempty"`
	HumanGoesFirst *bool       `json:"human_goes_first,omitempty"`
}

// MatchView is everything a client needs to draw a match.
type MatchView struct {
	ID        string             `json:"id"`
	BoardSize int                `json:"board_size"`
	State     string             `json:"state"`
	Cells     []entity.Mark      `json:"cells"`
	Human     entity.Player      `json:"human"`
	Computer  entity.Player      `json:"computer"`
	Moves     int                `json:"moves"`
	History   []entity.Placement `json:"history"`
	Outcome   entity.Outcome     `json:"outcome"`
}

// MoveResult is the update produced by one human move.
type MoveResult struct {
	MatchID string `json:"match_id"`
	tictactoe.MatchUpdate
}

// MatchManager hosts matches between requests: each call restores a match, applies it and stores it back.
type MatchManager struct {
	logger    *slog.Logger
	matchRepo matchRepo

	defaultBoardSize int
	maxBoardSize     int

	// mu serializes match updates and guards rnd.
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMatchManager(logger *slog.Logger, matchRepo matchRepo, conf config.Match) *MatchManager {
	seed := conf.ComputerSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &MatchManager{
		logger:    logger.With("component", "matchManager"),
		matchRepo: matchRepo,

		defaultBoardSize: conf.DefaultBoardSize,
		maxBoardSize:     conf.MaxBoardSize,

		rnd: rand.New(rand.NewSource(seed)), //nolint: gosec // it's ok
	}
}

func (that *MatchManager) StartMatch(ctx context.Context, settings Settings) (*MatchView, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.startMatch(ctx, settings)
}

func (that *MatchManager) startMatch(ctx context.Context, settings Settings) (*MatchView, error) {
	log := that.logger.With("method", "StartMatch")

	settings = that.withDefaults(settings)

	match, err := tictactoe.StartMatch(
		settings.BoardSize,
		settings.HumanMark,
		*settings.HumanGoesFirst,
		tictactoe.WithRand(that.rnd),
		tictactoe.WithMaxBoardSize(that.maxBoardSize),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start match: %w", err)
	}

	matchID := uuid.NewString()
	if err = that.matchRepo.CreateOrUpdate(ctx, match.Record(matchID)); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	log.Info("match started", "matchID", matchID, "boardSize", settings.BoardSize, "humanMark", settings.HumanMark)

	return newMatchView(matchID, match), nil
}

func (that *MatchManager) GetMatch(ctx context.Context, id string) (*MatchView, error) {
	match, err := that.getMatchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return newMatchView(id, match), nil
}

// SubmitMove plays the human move and the computer's answer. A rejected move is not stored.
func (that *MatchManager) SubmitMove(ctx context.Context, id string, coord entity.Coordinate) (*MoveResult, error) {
	log := that.logger.With("method", "SubmitMove", "matchID", id)

	that.mu.Lock()
	defer that.mu.Unlock()

	match, err := that.getMatchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update, err := match.SubmitHumanMove(coord)
	if err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	if err = that.updateMatch(ctx, id, match); err != nil {
		return nil, err
	}

	if update.Outcome.IsFinished() {
		log.Info("match finished", "outcome", update.Outcome.String(), "moves", match.Moves())
	}

	return &MoveResult{
		MatchID:     id,
		MatchUpdate: *update,
	}, nil
}

func (that *MatchManager) IsAvailable(ctx context.Context, id string, coord entity.Coordinate) (bool, error) {
	match, err := that.getMatchByID(ctx, id)
	if err != nil {
		return false, err
	}

	return match.IsAvailable(coord), nil
}

// PlayAgain drops the old match and starts a fresh one. A missing old match is not an error.
func (that *MatchManager) PlayAgain(ctx context.Context, id string, settings Settings) (*MatchView, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.matchRepo.DeleteByID(ctx, id); err != nil && !errors.Is(err, apperror.ErrMatchNotFound) {
		return nil, fmt.Errorf("failed to delete match: %w", err)
	}

	return that.startMatch(ctx, settings)
}

// EndMatch deletes the match. It waits for a running update so a deleted match is never written back.
func (that *MatchManager) EndMatch(ctx context.Context, id string) error {
	log := that.logger.With("method", "EndMatch", "matchID", id)

	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.matchRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}

	log.Info("match deleted")

	return nil
}

func (that *MatchManager) withDefaults(settings Settings) Settings {
	if settings.BoardSize == 0 {
		settings.BoardSize = that.defaultBoardSize
	}

	if settings.HumanMark == entity.EmptyCell {
		settings.HumanMark = entity.MarkX
	}

	// X opens unless the client says otherwise.
	if settings.HumanGoesFirst == nil {
		humanGoesFirst := settings.HumanMark == entity.MarkX
		settings.HumanGoesFirst = &humanGoesFirst
	}

	return settings
}

func (that *MatchManager) getMatchByID(ctx context.Context, id string) (*tictactoe.Match, error) {
	record, err := that.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	match, err := tictactoe.Restore(record, tictactoe.WithRand(that.rnd), tictactoe.WithMaxBoardSize(that.maxBoardSize))
	if err != nil {
		return nil, fmt.Errorf("failed to restore match %s: %w", id, err)
	}

	return match, nil
}

func (that *MatchManager) updateMatch(ctx context.Context, id string, match *tictactoe.Match) error {
	if err := that.matchRepo.CreateOrUpdate(ctx, match.Record(id)); err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}

	return nil
}

func newMatchView(id string, match *tictactoe.Match) *MatchView {
	return &MatchView{
		ID:        id,
		BoardSize: match.BoardSize(),
		State:     match.State(),
		Cells:     match.Cells(),
		Human:     match.Human(),
		Computer:  match.Computer(),
		Moves:     match.Moves(),
		History:   match.History(),
		Outcome:   match.Outcome(),
	}
}
