package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gridmatch-backend/internal/apperror"
)

const (
	MarkX Mark = "X"
	MarkO Mark = "O"

	EmptyCell Mark = ""

	MinBoardSize = 3
)

var ErrInvalidCell = errors.New("invalid cell coordinate")

// Mark is the symbol a player places on a cell.
type Mark string

func (that Mark) IsPlayer() bool {
	return that == MarkX || that == MarkO
}

// Opponent returns the other player's mark.
func (that Mark) Opponent() Mark {
	if that == MarkX {
		return MarkO
	}
	return MarkX
}

// Coordinate addresses a cell: X is the row, Y is the column.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (that Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", that.X, that.Y)
}

// Board is an N×N grid which keeps the set of empty cells in sync with every placement.
type Board struct {
	size  int
	cells []Mark

	empty      []Coordinate
	emptyIndex map[Coordinate]int
}

func NewBoard(size int) (*Board, error) {
	if size < MinBoardSize {
		return nil, fmt.Errorf("%w: board size %d is less than %d", apperror.ErrInvalidConfiguration, size, MinBoardSize)
	}

	board := &Board{
		size:       size,
		cells:      make([]Mark, size*size),
		empty:      make([]Coordinate, 0, size*size),
		emptyIndex: make(map[Coordinate]int, size*size),
	}

	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			coord := Coordinate{X: x, Y: y}
			board.emptyIndex[coord] = len(board.empty)
			board.empty = append(board.empty, coord)
		}
	}

	return board, nil
}

func (that *Board) Size() int {
	return that.size
}

func (that *Board) Contains(coord Coordinate) bool {
	return coord.X >= 0 && coord.X < that.size && coord.Y >= 0 && coord.Y < that.size
}

// MarkAt returns the mark on the cell, EmptyCell for out-of-range coordinates.
func (that *Board) MarkAt(coord Coordinate) Mark {
	if !that.Contains(coord) {
		return EmptyCell
	}
	return that.cells[that.index(coord)]
}

func (that *Board) IsEmpty(coord Coordinate) bool {
	if !that.Contains(coord) {
		return false
	}
	return that.cells[that.index(coord)] == EmptyCell
}

// Place puts mark on an empty cell. The board is left unchanged on error.
func (that *Board) Place(coord Coordinate, mark Mark) error {
	if !that.Contains(coord) {
		return fmt.Errorf("%w: %s on %dx%d board", ErrInvalidCell, coord, that.size, that.size)
	}

	if !mark.IsPlayer() {
		return fmt.Errorf("%w: mark %q", apperror.ErrInvalidInput, mark)
	}

	if that.cells[that.index(coord)] != EmptyCell {
		return fmt.Errorf("%w: %s", apperror.ErrCellOccupied, coord)
	}

	that.cells[that.index(coord)] = mark
	that.removeEmpty(coord)

	return nil
}

// EmptyCells returns a copy of the currently empty cells.
func (that *Board) EmptyCells() []Coordinate {
	cells := make([]Coordinate, len(that.empty))
	copy(cells, that.empty)
	return cells
}

func (that *Board) EmptyCount() int {
	return len(that.empty)
}

// EmptyAt returns the i-th empty cell, used for uniform sampling without copying.
func (that *Board) EmptyAt(i int) (Coordinate, bool) {
	if i < 0 || i >= len(that.empty) {
		return Coordinate{}, false
	}
	return that.empty[i], true
}

func (that *Board) IsFull() bool {
	return len(that.empty) == 0
}

// CheckWinThrough reports whether any full line passing through coord is uniformly mark.
// Only the row, the column and the diagonals that contain coord are inspected.
func (that *Board) CheckWinThrough(coord Coordinate, mark Mark) bool {
	if !that.Contains(coord) || !mark.IsPlayer() {
		return false
	}

	n := that.size

	if that.lineIs(mark, func(i int) Coordinate { return Coordinate{X: coord.X, Y: i} }) {
		return true
	}

	if that.lineIs(mark, func(i int) Coordinate { return Coordinate{X: i, Y: coord.Y} }) {
		return true
	}

	if coord.X == coord.Y && that.lineIs(mark, func(i int) Coordinate { return Coordinate{X: i, Y: i} }) {
		return true
	}

	if coord.X+coord.Y == n-1 && that.lineIs(mark, func(i int) Coordinate { return Coordinate{X: i, Y: n - 1 - i} }) {
		return true
	}

	return false
}

// Cells returns the marks row by row.
func (that *Board) Cells() []Mark {
	cells := make([]Mark, len(that.cells))
	copy(cells, that.cells)
	return cells
}

func (that *Board) lineIs(mark Mark, at func(i int) Coordinate) bool {
	for i := 0; i < that.size; i++ {
		if that.cells[that.index(at(i))] != mark {
			return false
		}
	}
	return true
}

func (that *Board) index(coord Coordinate) int {
	return coord.X*that.size + coord.Y
}

// removeEmpty swaps the last empty cell into the removed slot.
func (that *Board) removeEmpty(coord Coordinate) {
	i, ok := that.emptyIndex[coord]
	if !ok {
		return
	}

	last := len(that.empty) - 1
	moved := that.empty[last]

	that.empty[i] = moved
	that.emptyIndex[moved] = i

	that.empty = that.empty[:last]
	delete(that.emptyIndex, coord)
}
