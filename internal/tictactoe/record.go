package tictactoe

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gridmatch-backend/internal/entity"
)

// Record returns the serializable state of the match under the given id.
func (that *Match) Record(id string) *entity.MatchRecord {
	record := &entity.MatchRecord{
		ID:        id,
		BoardSize: that.board.Size(),
		History:   that.History(),
		Outcome:   that.outcome,
	}

	for i, mover := range that.players {
		player := *mover.Player()
		if player.LastMove != nil {
			lastMove := *player.LastMove
			player.LastMove = &lastMove
		}
		record.Players[i] = &player
	}

	return record
}

// Restore rebuilds a match from a record by replaying its history on a fresh board.
// The history must alternate marks starting with the first player, and the stored
// outcome and turn flags must be the ones the replay produces.
func Restore(record *entity.MatchRecord, opts ...Option) (*Match, error) {
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("failed to restore match: %w", err)
	}

	o := newOptions(opts)

	board, err := entity.NewBoard(record.BoardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to restore board: %w", err)
	}

	match := &Match{
		board:   board,
		outcome: entity.Ongoing(),
	}

	for i, stored := range record.Players {
		mover, err := restoreMover(stored, o)
		if err != nil {
			return nil, fmt.Errorf("%w: match %s: %w", entity.ErrInvalidRecord, record.ID, err)
		}
		match.players[i] = mover
	}

	if match.players[0].Player().Kind == match.players[1].Player().Kind {
		return nil, fmt.Errorf("%w: match %s needs one human and one computer", entity.ErrInvalidRecord, record.ID)
	}

	if err = match.replay(record.History); err != nil {
		return nil, fmt.Errorf("%w: match %s: %w", entity.ErrInvalidRecord, record.ID, err)
	}

	if match.outcome != record.Outcome {
		return nil, fmt.Errorf("%w: match %s: outcome %s does not follow from the history (%s)",
			entity.ErrInvalidRecord, record.ID, record.Outcome, match.outcome)
	}

	if err = match.checkTurns(); err != nil {
		return nil, fmt.Errorf("%w: match %s: %w", entity.ErrInvalidRecord, record.ID, err)
	}

	return match, nil
}

func (that *Match) replay(history []entity.Placement) error {
	for i, placement := range history {
		if that.outcome.IsFinished() {
			return fmt.Errorf("placement %d comes after the end of the match", i)
		}

		if want := that.players[i%2].Player().Mark; placement.Mark != want {
			return fmt.Errorf("placement %d is %s, want %s", i, placement.Mark, want)
		}

		if err := that.board.Place(placement.Coordinate, placement.Mark); err != nil {
			return fmt.Errorf("placement %d: %w", i, err)
		}

		that.moves++
		that.history = append(that.history, placement)
		that.evaluate(placement.Coordinate, placement.Mark)
	}

	return nil
}

// checkTurns sets the active player from the move count. An ongoing match always waits for the human.
func (that *Match) checkTurns() error {
	first, second := that.players[0].Player(), that.players[1].Player()

	if that.outcome.IsFinished() {
		if first.MyTurn || second.MyTurn {
			return errors.New("finished match has a player holding the turn")
		}
		return nil
	}

	that.active = that.moves % 2
	active, waiting := that.players[that.active].Player(), that.players[1-that.active].Player()

	if !active.MyTurn || waiting.MyTurn {
		return fmt.Errorf("turn flags do not match move %d", that.moves)
	}

	if active.IsComputer() {
		return errors.New("ongoing match waits for the computer")
	}

	return nil
}

func restoreMover(stored *entity.Player, o *options) (Mover, error) {
	var mover Mover

	switch stored.Kind {
	case entity.HumanKind:
		mover = NewHumanPlayer(stored.Mark)
	case entity.ComputerKind:
		mover = NewComputerPlayer(stored.Mark, o.rnd)
	default:
		return nil, fmt.Errorf("unknown player kind %q", stored.Kind)
	}

	if !stored.Mark.IsPlayer() {
		return nil, fmt.Errorf("unknown player mark %q", stored.Mark)
	}

	player := mover.Player()
	player.MyTurn = stored.MyTurn
	if stored.LastMove != nil {
		lastMove := *stored.LastMove
		player.LastMove = &lastMove
	}

	return mover, nil
}
