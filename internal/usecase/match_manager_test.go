package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gridmatch-backend/internal/apperror"
	"github.com/rocketscienceinc/gridmatch-backend/internal/config"
	"github.com/rocketscienceinc/gridmatch-backend/internal/entity"
	"github.com/rocketscienceinc/gridmatch-backend/internal/repository"
	"github.com/rocketscienceinc/gridmatch-backend/internal/tictactoe"
)

var (
	errRedisDown     = errors.New("redis down")
	errStorageIsFull = errors.New("storage is full")
)

type mockMatchRepo struct {
	mock.Mock
}

func (that *mockMatchRepo) CreateOrUpdate(ctx context.Context, match *entity.MatchRecord) error {
	args := that.Called(ctx, match)
	return args.Error(0)
}

func (that *mockMatchRepo) GetByID(ctx context.Context, id string) (*entity.MatchRecord, error) {
	args := that.Called(ctx, id)
	record, _ := args.Get(0).(*entity.MatchRecord)
	return record, args.Error(1)
}

func (that *mockMatchRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testMatchConfig() config.Match {
	return config.Match{DefaultBoardSize: 3, MaxBoardSize: 10, ComputerSeed: 21}
}

func newManager() *MatchManager {
	return NewMatchManager(testLogger(), repository.NewMemoryMatchRepository(), testMatchConfig())
}

func boolPtr(v bool) *bool {
	return &v
}

func TestMatchManager_StartMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults to a 3x3 board with the human as X moving first", func(t *testing.T) {
		// Given: a manager backed by the in-memory repository
		manager := newManager()

		// When: a match is started without settings
		view, err := manager.StartMatch(ctx, Settings{})

		// Then: the defaults are applied and the match is stored
		require.NoError(t, err)
		assert.NotEmpty(t, view.ID)
		assert.Equal(t, 3, view.BoardSize)
		assert.Equal(t, tictactoe.StateAwaitingMove, view.State)
		assert.Equal(t, entity.MarkX, view.Human.Mark)
		assert.True(t, view.Human.MyTurn)
		assert.Equal(t, 0, view.Moves)
		assert.Len(t, view.Cells, 9)

		stored, err := manager.GetMatch(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, view, stored)
	})

	t.Run("Human as O lets the computer open", func(t *testing.T) {
		manager := newManager()

		view, err := manager.StartMatch(ctx, Settings{BoardSize: 5, HumanMark: entity.MarkO})

		require.NoError(t, err)
		assert.Equal(t, 5, view.BoardSize)
		require.Len(t, view.History, 1)
		assert.Equal(t, entity.MarkX, view.History[0].Mark)
		assert.Equal(t, entity.ComputerKind, view.Computer.Kind)
	})

	t.Run("Explicit turn order overrides the mark default", func(t *testing.T) {
		manager := newManager()

		view, err := manager.StartMatch(ctx, Settings{HumanMark: entity.MarkO, HumanGoesFirst: boolPtr(true)})

		require.NoError(t, err)
		assert.Empty(t, view.History)
		assert.True(t, view.Human.MyTurn)
	})

	t.Run("Error on invalid configuration", func(t *testing.T) {
		manager := newManager()

		_, err := manager.StartMatch(ctx, Settings{BoardSize: 2})
		require.ErrorIs(t, err, apperror.ErrInvalidConfiguration)

		_, err = manager.StartMatch(ctx, Settings{BoardSize: 10})
		require.ErrorIs(t, err, apperror.ErrInvalidConfiguration)

		_, err = manager.StartMatch(ctx, Settings{HumanMark: "Q"})
		require.ErrorIs(t, err, apperror.ErrInvalidConfiguration)
	})

	t.Run("Error if matchRepo.CreateOrUpdate fails", func(t *testing.T) {
		// Given: a repository that cannot store
		mockRepo := &mockMatchRepo{}
		mockRepo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.MatchRecord")).
			Return(errStorageIsFull).
			Once()
		manager := NewMatchManager(testLogger(), mockRepo, testMatchConfig())

		// When: a match is started
		view, err := manager.StartMatch(ctx, Settings{})

		// Then: the storage error is returned
		require.ErrorIs(t, err, errStorageIsFull)
		assert.Nil(t, view)
		mockRepo.AssertExpectations(t)
	})
}

func TestMatchManager_SubmitMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Human move and computer answer are stored", func(t *testing.T) {
		// Given: a started match
		manager := newManager()
		view, err := manager.StartMatch(ctx, Settings{})
		require.NoError(t, err)

		// When: the human plays the centre
		result, err := manager.SubmitMove(ctx, view.ID, entity.Coordinate{X: 1, Y: 1})

		// Then: both placements are returned and stored
		require.NoError(t, err)
		assert.Equal(t, view.ID, result.MatchID)
		require.Len(t, result.Placements, 2)

		stored, err := manager.GetMatch(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Moves)
		assert.Equal(t, result.Placements, stored.History)
	})

	t.Run("Rejected move is not stored", func(t *testing.T) {
		manager := newManager()
		view, err := manager.StartMatch(ctx, Settings{})
		require.NoError(t, err)
		_, err = manager.SubmitMove(ctx, view.ID, entity.Coordinate{X: 0, Y: 0})
		require.NoError(t, err)

		// When: the human plays the same cell again
		_, err = manager.SubmitMove(ctx, view.ID, entity.Coordinate{X: 0, Y: 0})

		// Then: ErrInvalidInput is returned and the stored match still has two moves
		require.ErrorIs(t, err, apperror.ErrInvalidInput)

		stored, err := manager.GetMatch(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Moves)
	})

	t.Run("Match plays to a terminal outcome and then rejects moves", func(t *testing.T) {
		manager := newManager()
		view, err := manager.StartMatch(ctx, Settings{BoardSize: 4})
		require.NoError(t, err)

		for view.Outcome.IsOngoing() {
			var coord entity.Coordinate
			for i, mark := range view.Cells {
				if mark == entity.EmptyCell {
					coord = entity.Coordinate{X: i / view.BoardSize, Y: i % view.BoardSize}
					break
				}
			}

			_, err = manager.SubmitMove(ctx, view.ID, coord)
			require.NoError(t, err)

			view, err = manager.GetMatch(ctx, view.ID)
			require.NoError(t, err)
		}

		assert.Equal(t, tictactoe.StateFinished, view.State)

		_, err = manager.SubmitMove(ctx, view.ID, entity.Coordinate{X: 0, Y: 0})
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Error if match not found", func(t *testing.T) {
		manager := newManager()

		result, err := manager.SubmitMove(ctx, "missing", entity.Coordinate{})

		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
		assert.Nil(t, result)
	})

	t.Run("Error if matchRepo.GetByID fails", func(t *testing.T) {
		mockRepo := &mockMatchRepo{}
		mockRepo.On("GetByID", mock.Anything, "m1").
			Return(nil, errRedisDown).
			Once()
		manager := NewMatchManager(testLogger(), mockRepo, testMatchConfig())

		result, err := manager.SubmitMove(ctx, "m1", entity.Coordinate{})

		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, result)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error if matchRepo.CreateOrUpdate fails after the move", func(t *testing.T) {
		// Given: a stored record and a repository that fails on write
		match, err := tictactoe.StartMatch(3, entity.MarkX, true)
		require.NoError(t, err)

		mockRepo := &mockMatchRepo{}
		mockRepo.On("GetByID", mock.Anything, "m2").
			Return(match.Record("m2"), nil).
			Once()
		mockRepo.On("CreateOrUpdate", mock.Anything, mock.MatchedBy(func(record *entity.MatchRecord) bool {
			return record.ID == "m2" && len(record.History) == 2
		})).
			Return(errRedisDown).
			Once()
		manager := NewMatchManager(testLogger(), mockRepo, testMatchConfig())

		// When: the human moves
		result, err := manager.SubmitMove(ctx, "m2", entity.Coordinate{X: 2, Y: 2})

		// Then: the storage error is returned
		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, result)
		mockRepo.AssertExpectations(t)
	})
}

func TestMatchManager_IsAvailable(t *testing.T) {
	ctx := context.Background()
	manager := newManager()

	view, err := manager.StartMatch(ctx, Settings{HumanMark: entity.MarkO})
	require.NoError(t, err)
	opening := view.History[0].Coordinate

	available, err := manager.IsAvailable(ctx, view.ID, opening)
	require.NoError(t, err)
	assert.False(t, available)

	for _, coord := range []entity.Coordinate{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}} {
		if coord == opening {
			continue
		}

		available, err = manager.IsAvailable(ctx, view.ID, coord)
		require.NoError(t, err)
		assert.True(t, available)
	}

	available, err = manager.IsAvailable(ctx, view.ID, entity.Coordinate{X: 7, Y: 7})
	require.NoError(t, err)
	assert.False(t, available)

	_, err = manager.IsAvailable(ctx, "missing", entity.Coordinate{})
	require.ErrorIs(t, err, apperror.ErrMatchNotFound)
}

func TestMatchManager_PlayAgain(t *testing.T) {
	ctx := context.Background()

	t.Run("Replaces the old match with a fresh one", func(t *testing.T) {
		// Given: a match with one exchange played
		manager := newManager()
		old, err := manager.StartMatch(ctx, Settings{})
		require.NoError(t, err)
		_, err = manager.SubmitMove(ctx, old.ID, entity.Coordinate{X: 0, Y: 0})
		require.NoError(t, err)

		// When: the client plays again on a bigger board
		fresh, err := manager.PlayAgain(ctx, old.ID, Settings{BoardSize: 4})
		require.NoError(t, err)

		// Then: a new empty match exists and the old one is gone
		assert.NotEqual(t, old.ID, fresh.ID)
		assert.Equal(t, 4, fresh.BoardSize)
		assert.Equal(t, 0, fresh.Moves)

		_, err = manager.GetMatch(ctx, old.ID)
		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})

	t.Run("Missing old match still starts a new one", func(t *testing.T) {
		manager := newManager()

		fresh, err := manager.PlayAgain(ctx, "expired", Settings{})

		require.NoError(t, err)
		assert.NotEmpty(t, fresh.ID)
	})

	t.Run("Error if matchRepo.DeleteByID fails", func(t *testing.T) {
		mockRepo := &mockMatchRepo{}
		mockRepo.On("DeleteByID", mock.Anything, "m3").
			Return(errRedisDown).
			Once()
		manager := NewMatchManager(testLogger(), mockRepo, testMatchConfig())

		_, err := manager.PlayAgain(ctx, "m3", Settings{})

		require.ErrorIs(t, err, errRedisDown)
		mockRepo.AssertExpectations(t)
	})
}

func TestMatchManager_EndMatch(t *testing.T) {
	ctx := context.Background()
	manager := newManager()

	view, err := manager.StartMatch(ctx, Settings{})
	require.NoError(t, err)

	require.NoError(t, manager.EndMatch(ctx, view.ID))

	_, err = manager.GetMatch(ctx, view.ID)
	require.ErrorIs(t, err, apperror.ErrMatchNotFound)

	err = manager.EndMatch(ctx, view.ID)
	require.ErrorIs(t, err, apperror.ErrMatchNotFound)
}

func TestMatchManager_EndMatchWaitsForSubmitMove(t *testing.T) {
	ctx := context.Background()

	// Given: a move whose repository read is held open
	match, err := tictactoe.StartMatch(3, entity.MarkX, true)
	require.NoError(t, err)

	var (
		callsMu sync.Mutex
		calls   []string
	)
	record := func(name string) {
		callsMu.Lock()
		calls = append(calls, name)
		callsMu.Unlock()
	}

	readStarted := make(chan struct{})
	releaseRead := make(chan struct{})

	mockRepo := &mockMatchRepo{}
	mockRepo.On("GetByID", mock.Anything, "m4").
		Run(func(mock.Arguments) {
			close(readStarted)
			<-releaseRead
		}).
		Return(match.Record("m4"), nil).
		Once()
	mockRepo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.MatchRecord")).
		Run(func(mock.Arguments) { record("CreateOrUpdate") }).
		Return(nil).
		Once()
	mockRepo.On("DeleteByID", mock.Anything, "m4").
		Run(func(mock.Arguments) { record("DeleteByID") }).
		Return(nil).
		Once()
	manager := NewMatchManager(testLogger(), mockRepo, testMatchConfig())

	moveDone := make(chan error, 1)
	go func() {
		_, err := manager.SubmitMove(ctx, "m4", entity.Coordinate{X: 1, Y: 1})
		moveDone <- err
	}()
	<-readStarted

	// When: the match is ended while the move is in flight
	endDone := make(chan error, 1)
	go func() {
		endDone <- manager.EndMatch(ctx, "m4")
	}()

	// Then: the delete waits for the move to be stored
	select {
	case <-endDone:
		t.Fatal("EndMatch returned while a move was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(releaseRead)
	require.NoError(t, <-moveDone)
	require.NoError(t, <-endDone)

	assert.Equal(t, []string{"CreateOrUpdate", "DeleteByID"}, calls)
	mockRepo.AssertExpectations(t)
}
