package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	t.Run("Ongoing", func(t *testing.T) {
		outcome := Ongoing()

		assert.True(t, outcome.IsOngoing())
		assert.False(t, outcome.IsFinished())
		assert.Equal(t, "ongoing", outcome.String())
	})

	t.Run("Win", func(t *testing.T) {
		outcome := Win(MarkO)

		assert.True(t, outcome.IsFinished())
		assert.False(t, outcome.IsTie())
		assert.Equal(t, MarkO, outcome.Winner)
		assert.Equal(t, "win(O)", outcome.String())
	})

	t.Run("Tie", func(t *testing.T) {
		outcome := Tie()

		assert.True(t, outcome.IsFinished())
		assert.True(t, outcome.IsTie())
		assert.Equal(t, "tie", outcome.String())
	})
}

func TestMatchRecord_Validate(t *testing.T) {
	human := &Player{Kind: HumanKind, Mark: MarkX, MyTurn: true}
	computer := &Player{Kind: ComputerKind, Mark: MarkO}

	t.Run("Valid record", func(t *testing.T) {
		record := &MatchRecord{ID: "m1", BoardSize: 3, Players: [2]*Player{human, computer}, Outcome: Ongoing()}

		assert.NoError(t, record.Validate())
	})

	t.Run("Unknown status", func(t *testing.T) {
		record := &MatchRecord{ID: "m1", BoardSize: 3, Players: [2]*Player{human, computer}, Outcome: Outcome{Status: "paused"}}

		require.ErrorIs(t, record.Validate(), ErrUnknownMatchStatus)
	})

	t.Run("Missing player", func(t *testing.T) {
		record := &MatchRecord{ID: "m1", BoardSize: 3, Players: [2]*Player{human, nil}, Outcome: Ongoing()}

		require.ErrorIs(t, record.Validate(), ErrInvalidRecord)
	})

	t.Run("Players share a mark", func(t *testing.T) {
		twin := &Player{Kind: ComputerKind, Mark: MarkX}
		record := &MatchRecord{ID: "m1", BoardSize: 3, Players: [2]*Player{human, twin}, Outcome: Ongoing()}

		require.ErrorIs(t, record.Validate(), ErrInvalidRecord)
	})
}
