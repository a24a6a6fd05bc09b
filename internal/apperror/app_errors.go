package apperror

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid match configuration")
	ErrCellOccupied         = errors.New("cell is already occupied")
	ErrInvalidInput         = errors.New("invalid input")
	ErrNoMovesAvailable     = errors.New("no moves available")

	ErrGameFinished  = errors.New("game is already finished")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrMatchNotFound = errors.New("match not found")
)
