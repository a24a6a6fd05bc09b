package tictactoe

import (
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/gridmatch-backend/internal/apperror"
	"github.com/rocketscienceinc/gridmatch-backend/internal/entity"
)

// Mover is a player able to pick the next cell. HumanPlayer and ComputerPlayer are the only implementations.
type Mover interface {
	// ChooseMove returns the cell to play. input is the externally supplied cell, ignored by the computer.
	ChooseMove(board *entity.Board, input entity.Coordinate) (entity.Coordinate, error)
	Player() *entity.Player

	sealed()
}

// HumanPlayer plays the cell supplied from outside.
type HumanPlayer struct {
	player *entity.Player
}

func NewHumanPlayer(mark entity.Mark) *HumanPlayer {
	return &HumanPlayer{
		player: &entity.Player{Kind: entity.HumanKind, Mark: mark},
	}
}

func (that *HumanPlayer) ChooseMove(board *entity.Board, input entity.Coordinate) (entity.Coordinate, error) {
	if !board.Contains(input) {
		return entity.Coordinate{}, fmt.Errorf("%w: cell %s is outside the %dx%d board", apperror.ErrInvalidInput, input, board.Size(), board.Size())
	}

	if !board.IsEmpty(input) {
		return entity.Coordinate{}, fmt.Errorf("%w: cell %s: %w", apperror.ErrInvalidInput, input, apperror.ErrCellOccupied)
	}

	that.player.LastMove = &input

	return input, nil
}

func (that *HumanPlayer) Player() *entity.Player {
	return that.player
}

func (that *HumanPlayer) sealed() {}

// ComputerPlayer picks uniformly at random among the empty cells.
type ComputerPlayer struct {
	player *entity.Player
	rnd    *rand.Rand
}

func NewComputerPlayer(mark entity.Mark, rnd *rand.Rand) *ComputerPlayer {
	return &ComputerPlayer{
		player: &entity.Player{Kind: entity.ComputerKind, Mark: mark},
		rnd:    rnd,
	}
}

func (that *ComputerPlayer) ChooseMove(board *entity.Board, _ entity.Coordinate) (entity.Coordinate, error) {
	count := board.EmptyCount()
	if count == 0 {
		return entity.Coordinate{}, apperror.ErrNoMovesAvailable
	}

	coord, ok := board.EmptyAt(that.rnd.Intn(count))
	if !ok {
		return entity.Coordinate{}, apperror.ErrNoMovesAvailable
	}

	that.player.LastMove = &coord

	return coord, nil
}

func (that *ComputerPlayer) Player() *entity.Player {
	return that.player
}

func (that *ComputerPlayer) sealed() {}
