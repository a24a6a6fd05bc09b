package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gridmatch-backend/internal/apperror"
	"github.com/rocketscienceinc/gridmatch-backend/internal/usecase"
)

// session is the state of one connection. Messages of a connection are handled one at a time.
type session struct {
	conn    *websocket.Conn
	matchID string
}

// ownMatchID returns the match of the connection. A connection only acts on the match it started.
func (that *session) ownMatchID(payload *Payload) (string, error) {
	if that.matchID == "" {
		return "", fmt.Errorf("%w: no match on this connection, start one first", apperror.ErrInvalidInput)
	}

	if payload.MatchID != "" && payload.MatchID != that.matchID {
		return "", fmt.Errorf("%w: match %s does not belong to this connection", apperror.ErrInvalidInput, payload.MatchID)
	}

	return that.matchID, nil
}

func settingsOf(payload *Payload) usecase.Settings {
	if payload.Settings == nil {
		return usecase.Settings{}
	}

	return *payload.Settings
}

func (that *Server) handleMatchStart(ctx context.Context, sess *session, payload *Payload, action string) error {
	log := that.logger.With("method", "handleMatchStart")

	if sess.matchID != "" {
		return fmt.Errorf("%w: match %s is in progress, replay or leave it first", apperror.ErrInvalidInput, sess.matchID)
	}

	view, err := that.matchUseCase.StartMatch(ctx, settingsOf(payload))
	if err != nil {
		return err
	}

	sess.matchID = view.ID
	log.Info("match started", "matchID", view.ID)

	return sendMessage(sess.conn, action, Payload{MatchID: view.ID, Match: view})
}

func (that *Server) handleMatchGet(ctx context.Context, sess *session, payload *Payload, action string) error {
	matchID, err := sess.ownMatchID(payload)
	if err != nil {
		return err
	}

	view, err := that.matchUseCase.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}

	return sendMessage(sess.conn, action, Payload{MatchID: matchID, Match: view})
}

func (that *Server) handleMatchMove(ctx context.Context, sess *session, payload *Payload, action string) error {
	matchID, err := sess.ownMatchID(payload)
	if err != nil {
		return err
	}

	if payload.Cell == nil {
		return fmt.Errorf("%w: cell is required", apperror.ErrInvalidInput)
	}

	result, err := that.matchUseCase.SubmitMove(ctx, matchID, *payload.Cell)
	if err != nil {
		return err
	}

	return sendMessage(sess.conn, action, Payload{MatchID: matchID, Move: result})
}

func (that *Server) handleCellAvailable(ctx context.Context, sess *session, payload *Payload, action string) error {
	matchID, err := sess.ownMatchID(payload)
	if err != nil {
		return err
	}

	if payload.Cell == nil {
		return fmt.Errorf("%w: cell is required", apperror.ErrInvalidInput)
	}

	available, err := that.matchUseCase.IsAvailable(ctx, matchID, *payload.Cell)
	if err != nil {
		return err
	}

	return sendMessage(sess.conn, action, Payload{MatchID: matchID, Cell: payload.Cell, Available: &available})
}

func (that *Server) handleMatchReplay(ctx context.Context, sess *session, payload *Payload, action string) error {
	log := that.logger.With("method", "handleMatchReplay")

	matchID, err := sess.ownMatchID(payload)
	if err != nil {
		return err
	}

	view, err := that.matchUseCase.PlayAgain(ctx, matchID, settingsOf(payload))
	if err != nil {
		return err
	}

	sess.matchID = view.ID
	log.Info("match replayed", "oldMatchID", matchID, "matchID", view.ID)

	return sendMessage(sess.conn, action, Payload{MatchID: view.ID, Match: view})
}

func (that *Server) handleMatchLeave(ctx context.Context, sess *session, payload *Payload, action string) error {
	matchID, err := sess.ownMatchID(payload)
	if err != nil {
		return err
	}

	err = that.matchUseCase.EndMatch(ctx, matchID)
	if err != nil && !errors.Is(err, apperror.ErrMatchNotFound) {
		return err
	}

	// an expired match is left as well
	sess.matchID = ""

	return sendMessage(sess.conn, action, Payload{MatchID: matchID})
}
