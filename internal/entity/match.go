package entity

import (
	"errors"
	"fmt"
)

const (
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"

	// PlayerTie is stored as the winner of a finished match without a winning line.
	PlayerTie Mark = "-"
)

var (
	ErrUnknownMatchStatus = errors.New("unknown match status")
	ErrInvalidRecord      = errors.New("invalid match record")
)

// Outcome is the result of a match so far: ongoing, a win for Winner, or a tie.
type Outcome struct {
	Status string `json:"status"`
	Winner Mark   `json:"winner,omitempty"`
}

func Ongoing() Outcome {
	return Outcome{Status: StatusOngoing}
}

func Win(mark Mark) Outcome {
	return Outcome{Status: StatusFinished, Winner: mark}
}

func Tie() Outcome {
	return Outcome{Status: StatusFinished, Winner: PlayerTie}
}

func (that Outcome) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that Outcome) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that Outcome) IsTie() bool {
	return that.IsFinished() && that.Winner == PlayerTie
}

func (that Outcome) String() string {
	switch {
	case that.IsOngoing():
		return StatusOngoing
	case that.IsTie():
		return "tie"
	default:
		return fmt.Sprintf("win(%s)", that.Winner)
	}
}

// Placement is one mark put on one cell.
type Placement struct {
	Coordinate Coordinate `json:"coordinate"`
	Mark       Mark       `json:"mark"`
}

// MatchRecord is the serializable state of a match.
type MatchRecord struct {
	ID        string      `json:"id"`
	BoardSize int         `json:"board_size"`
	Players   [2]*Player  `json:"players"`
	History   []Placement `json:"history"`
	Outcome   Outcome     `json:"outcome"`
}

// Validate checks the fields a restore depends on.
func (that *MatchRecord) Validate() error {
	switch that.Outcome.Status {
	case StatusOngoing, StatusFinished:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMatchStatus, that.Outcome.Status)
	}

	if that.Players[0] == nil || that.Players[1] == nil {
		return fmt.Errorf("%w: match %s is missing a player", ErrInvalidRecord, that.ID)
	}

	if that.Players[0].Mark == that.Players[1].Mark {
		return fmt.Errorf("%w: match %s players share mark %s", ErrInvalidRecord, that.ID, that.Players[0].Mark)
	}

	return nil
}
