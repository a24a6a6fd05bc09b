package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gridmatch-backend/internal/apperror"
	"github.com/rocketscienceinc/gridmatch-backend/internal/entity"
	"github.com/rocketscienceinc/gridmatch-backend/internal/usecase"
)

const (
	maxMessageSize  = 4096
	shutdownTimeout = 5 * time.Second
)

type matchUseCase interface {
	StartMatch(ctx context.Context, settings usecase.Settings) (*usecase.MatchView, error)
	GetMatch(ctx context.Context, id string) (*usecase.MatchView, error)
	SubmitMove(ctx context.Context, id string, coord entity.Coordinate) (*usecase.MoveResult, error)
	IsAvailable(ctx context.Context, id string, coord entity.Coordinate) (bool, error)
	PlayAgain(ctx context.Context, id string, settings usecase.Settings) (*usecase.MatchView, error)
	EndMatch(ctx context.Context, id string) error
}

type handlerFunc func(ctx context.Context, sess *session, payload *Payload, action string) error

type Server struct {
	logger       *slog.Logger
	matchUseCase matchUseCase
	upgrader     websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, matchUseCase matchUseCase) *Server {
	server := &Server{
		logger:       logger.With("component", "websocket"),
		matchUseCase: matchUseCase,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	server.handlers = map[string]handlerFunc{
		actionMatchStart:    server.handleMatchStart,
		actionMatchGet:      server.handleMatchGet,
		actionMatchMove:     server.handleMatchMove,
		actionCellAvailable: server.handleCellAvailable,
		actionMatchReplay:   server.handleMatchReplay,
		actionMatchLeave:    server.handleMatchLeave,
	}

	return server
}

// Router exposes the upgrade endpoint.
func (that *Server) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		that.upgradeToWebSocket(ctx, w, req)
	})

	return r
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Router(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, w http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)

	log.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	sess := &session{conn: conn}
	defer that.handleDisconnect(sess)

	if err = that.handleMessages(ctx, sess); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client until the connection closes.
func (that *Server) handleMessages(ctx context.Context, sess *session) error {
	log := that.logger.With("method", "handleMessages")

	for {
		_, reqBody, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}

			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Debug("failed to unmarshal message", "error", err)

			if err = sendErrorResponse(sess.conn, actionError, "malformed message"); err != nil {
				return err
			}

			continue
		}

		if err = that.dispatch(ctx, sess, &message); err != nil {
			return err
		}
	}
}

// dispatch runs the handler of the message action. Only failures to write back are returned.
func (that *Server) dispatch(ctx context.Context, sess *session, message *Message) error {
	log := that.logger.With("method", "dispatch", "action", message.Action)

	handler, ok := that.handlers[message.Action]
	if !ok {
		return sendErrorResponse(sess.conn, message.Action, fmt.Sprintf("unknown action %q", message.Action))
	}

	var payload Payload
	if len(message.Payload) > 0 {
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return sendErrorResponse(sess.conn, message.Action, fmt.Sprintf("%v: malformed payload", apperror.ErrInvalidInput))
		}
	}

	err := handler(ctx, sess, &payload, message.Action)
	if err == nil {
		return nil
	}

	if isClientError(err) {
		log.Debug("request rejected", "error", err)
		return sendErrorResponse(sess.conn, message.Action, err.Error())
	}

	log.Error("error processing message", "error", err)

	return sendErrorResponse(sess.conn, message.Action, internalErrorMessage)
}

// handleDisconnect ends the match owned by a closed connection.
func (that *Server) handleDisconnect(sess *session) {
	log := that.logger.With("method", "handleDisconnect")

	if sess.matchID == "" {
		log.Info("connection closed")
		return
	}

	err := that.matchUseCase.EndMatch(context.Background(), sess.matchID)
	if err != nil && !errors.Is(err, apperror.ErrMatchNotFound) {
		log.Error("failed to end match", "matchID", sess.matchID, "error", err)
		return
	}

	log.Info("connection closed, match ended", "matchID", sess.matchID)
}
