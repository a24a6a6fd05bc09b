package tictactoe

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rocketscienceinc/gridmatch-backend/internal/apperror"
	"github.com/rocketscienceinc/gridmatch-backend/internal/entity"
)

const (
	DefaultMaxBoardSize = 10

	StateAwaitingMove = "awaiting_move"
	StateFinished     = "finished"
)

// MatchUpdate lists the placements made by one call and the outcome after them.
type MatchUpdate struct {
	Placements []entity.Placement `json:"placements"`
	Outcome    entity.Outcome     `json:"outcome"`
}

type options struct {
	rnd          *rand.Rand
	maxBoardSize int
}

type Option func(*options)

// WithRand sets the random source of the computer player.
func WithRand(rnd *rand.Rand) Option {
	return func(o *options) {
		o.rnd = rnd
	}
}

// WithMaxBoardSize sets the exclusive upper bound of the board size.
func WithMaxBoardSize(size int) Option {
	return func(o *options) {
		o.maxBoardSize = size
	}
}

func newOptions(opts []Option) *options {
	o := &options{maxBoardSize: DefaultMaxBoardSize}
	for _, opt := range opts {
		opt(o)
	}

	if o.rnd == nil {
		o.rnd = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec // it's ok
	}

	return o
}

// Match is one game between a human and a computer player on a single board.
type Match struct {
	board   *entity.Board
	players [2]Mover
	active  int

	moves   int
	outcome entity.Outcome
	history []entity.Placement
}

// StartMatch creates a match. When the computer goes first its opening move is already played.
func StartMatch(boardSize int, humanMark entity.Mark, humanGoesFirst bool, opts ...Option) (*Match, error) {
	o := newOptions(opts)

	if err := validateSettings(boardSize, humanMark, o.maxBoardSize); err != nil {
		return nil, err
	}

	board, err := entity.NewBoard(boardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	human := NewHumanPlayer(humanMark)
	computer := NewComputerPlayer(humanMark.Opponent(), o.rnd)

	match := &Match{
		board:   board,
		outcome: entity.Ongoing(),
	}

	if humanGoesFirst {
		match.players = [2]Mover{human, computer}
	} else {
		match.players = [2]Mover{computer, human}
	}

	match.players[0].Player().MyTurn = true

	if match.current().Player().IsComputer() {
		if _, err = match.play(entity.Coordinate{}); err != nil {
			return nil, fmt.Errorf("computer failed to make opening move: %w", err)
		}
	}

	return match, nil
}

func validateSettings(boardSize int, humanMark entity.Mark, maxBoardSize int) error {
	if boardSize < entity.MinBoardSize || boardSize >= maxBoardSize {
		return fmt.Errorf("%w: board size %d is outside [%d, %d)", apperror.ErrInvalidConfiguration, boardSize, entity.MinBoardSize, maxBoardSize)
	}

	if !humanMark.IsPlayer() {
		return fmt.Errorf("%w: mark %q is neither %s nor %s", apperror.ErrInvalidConfiguration, humanMark, entity.MarkX, entity.MarkO)
	}

	return nil
}

// SubmitHumanMove plays coord for the human and, if the match goes on, the computer's answer.
// On invalid input the match is left as it was.
func (that *Match) SubmitHumanMove(coord entity.Coordinate) (*MatchUpdate, error) {
	if that.outcome.IsFinished() {
		return nil, apperror.ErrGameFinished
	}

	if that.current().Player().IsComputer() {
		return nil, apperror.ErrNotYourTurn
	}

	placements, err := that.play(coord)
	if err != nil {
		return nil, fmt.Errorf("invalid turn: %w", err)
	}

	return &MatchUpdate{
		Placements: placements,
		Outcome:    that.outcome,
	}, nil
}

// IsAvailable reports whether a click on coord can be forwarded.
func (that *Match) IsAvailable(coord entity.Coordinate) bool {
	return that.outcome.IsOngoing() && that.board.IsEmpty(coord)
}

// play runs turns until the match ends or a human has to move.
func (that *Match) play(input entity.Coordinate) ([]entity.Placement, error) {
	var placements []entity.Placement

	for {
		mover := that.current()
		mark := mover.Player().Mark

		coord, err := mover.ChooseMove(that.board, input)
		if err != nil {
			return placements, err
		}

		if err = that.board.Place(coord, mark); err != nil {
			return placements, fmt.Errorf("failed to place %s on %s: %w", mark, coord, err)
		}

		that.moves++

		placement := entity.Placement{Coordinate: coord, Mark: mark}
		that.history = append(that.history, placement)
		placements = append(placements, placement)

		that.evaluate(coord, mark)
		if that.outcome.IsFinished() {
			that.endTurns()
			return placements, nil
		}

		that.changeTurn()

		if !that.current().Player().IsComputer() {
			return placements, nil
		}
	}
}

// evaluate skips the line checks until enough moves were made for anybody to own a full line.
func (that *Match) evaluate(coord entity.Coordinate, mark entity.Mark) {
	if that.moves < MinMovesToWin(that.board.Size()) {
		return
	}

	if that.board.CheckWinThrough(coord, mark) {
		that.outcome = entity.Win(mark)
		return
	}

	if that.board.IsFull() {
		that.outcome = entity.Tie()
	}
}

func (that *Match) changeTurn() {
	for i, mover := range that.players {
		player := mover.Player()
		player.MyTurn = !player.MyTurn

		if player.MyTurn {
			that.active = i
		}
	}
}

func (that *Match) endTurns() {
	for _, mover := range that.players {
		mover.Player().MyTurn = false
	}
}

func (that *Match) current() Mover {
	return that.players[that.active]
}

// MinMovesToWin is the total number of moves, both players included, before a line of size cells can exist.
func MinMovesToWin(size int) int {
	return 2*size - 1
}

func (that *Match) State() string {
	if that.outcome.IsFinished() {
		return StateFinished
	}
	return StateAwaitingMove
}

func (that *Match) Outcome() entity.Outcome {
	return that.outcome
}

func (that *Match) Moves() int {
	return that.moves
}

func (that *Match) BoardSize() int {
	return that.board.Size()
}

// Cells returns the marks row by row.
func (that *Match) Cells() []entity.Mark {
	return that.board.Cells()
}

func (that *Match) EmptyCells() []entity.Coordinate {
	return that.board.EmptyCells()
}

func (that *Match) History() []entity.Placement {
	history := make([]entity.Placement, len(that.history))
	copy(history, that.history)
	return history
}

// ActivePlayer returns a copy of the player holding the turn, false once the match is finished.
func (that *Match) ActivePlayer() (entity.Player, bool) {
	if that.outcome.IsFinished() {
		return entity.Player{}, false
	}
	return *that.current().Player(), true
}

func (that *Match) Human() entity.Player {
	return *that.find(entity.HumanKind)
}

func (that *Match) Computer() entity.Player {
	return *that.find(entity.ComputerKind)
}

func (that *Match) find(kind string) *entity.Player {
	for _, mover := range that.players {
		if mover.Player().Kind == kind {
			return mover.Player()
		}
	}
	return &entity.Player{}
}
