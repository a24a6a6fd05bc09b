package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gridmatch-backend/internal/apperror"
	"github.com/rocketscienceinc/gridmatch-backend/internal/entity"
	"github.com/rocketscienceinc/gridmatch-backend/internal/usecase"
)

const (
	actionMatchStart    = "match:start"
	actionMatchGet      = "match:get"
	actionMatchMove     = "match:move"
	actionCellAvailable = "cell:available"
	actionMatchReplay   = "match:replay"
	actionMatchLeave    = "match:leave"
	actionError         = "error"

	internalErrorMessage = "internal error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	MatchID   string              `json:"match_id,omitempty"`
	Settings  *usecase.Settings   `json:"settings,omitempty"`
	Cell      *entity.Coordinate  `json:"cell,omitempty"`
	Match     *usecase.MatchView  `json:"match,omitempty"`
	Move      *usecase.MoveResult `json:"move,omitempty"`
	Available *bool               `json:"available,omitempty"`
	Error     string              `json:"error,omitempty"`
}

func sendMessage(conn *websocket.Conn, action string, payload Payload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err = conn.WriteJSON(Message{Action: action, Payload: payloadJSON}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func sendErrorResponse(conn *websocket.Conn, action, errorMsg string) error {
	if err := sendMessage(conn, action, Payload{Error: errorMsg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

// isClientError reports whether err was caused by the request rather than the server.
func isClientError(err error) bool {
	for _, target := range []error{
		apperror.ErrInvalidInput,
		apperror.ErrInvalidConfiguration,
		apperror.ErrCellOccupied,
		apperror.ErrGameFinished,
		apperror.ErrNotYourTurn,
		apperror.ErrMatchNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
