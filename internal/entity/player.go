package entity

const (
	HumanKind    = "human"
	ComputerKind = "computer"
)

// Player holds the attributes shared by every player kind.
type Player struct {
	Kind     string      `json:"kind"`
	Mark     Mark        `json:"mark"`
	MyTurn   bool        `json:"my_turn"`
	LastMove *Coordinate `json:"last_move,omitempty"`
}

func (that *Player) IsComputer() bool {
	return that.Kind == ComputerKind
}
