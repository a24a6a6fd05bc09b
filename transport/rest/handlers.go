package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/gridmatch-backend/internal/apperror"
	"github.com/rocketscienceinc/gridmatch-backend/internal/entity"
	"github.com/rocketscienceinc/gridmatch-backend/internal/usecase"
)

type errorResponse struct {
	Error string `json:"error"`
}

// moveRequest uses pointers so a missing coordinate is not read as zero.
type moveRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func (that moveRequest) coordinate() (entity.Coordinate, error) {
	if that.X == nil || that.Y == nil {
		return entity.Coordinate{}, fmt.Errorf("%w: both x and y are required", apperror.ErrInvalidInput)
	}

	return entity.Coordinate{X: *that.X, Y: *that.Y}, nil
}

type availabilityResponse struct {
	Coordinate entity.Coordinate `json:"coordinate"`
	Available  bool              `json:"available"`
}

type matchHandlers struct {
	logger       *slog.Logger
	matchUseCase matchUseCase
}

func newMatchHandlers(logger *slog.Logger, matchUseCase matchUseCase) *matchHandlers {
	return &matchHandlers{
		logger:       logger.With("component", "rest"),
		matchUseCase: matchUseCase,
	}
}

// ping answers liveness checks of the match API.
func (that *matchHandlers) ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (that *matchHandlers) startMatch(w http.ResponseWriter, r *http.Request) {
	var settings usecase.Settings
	if err := decodeOptional(r.Body, &settings); err != nil {
		that.writeError(w, "startMatch", err)
		return
	}

	view, err := that.matchUseCase.StartMatch(r.Context(), settings)
	if err != nil {
		that.writeError(w, "startMatch", err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (that *matchHandlers) getMatch(w http.ResponseWriter, r *http.Request) {
	view, err := that.matchUseCase.GetMatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, "getMatch", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (that *matchHandlers) submitMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, "submitMove", errors.Join(apperror.ErrInvalidInput, err))
		return
	}

	coord, err := req.coordinate()
	if err != nil {
		that.writeError(w, "submitMove", err)
		return
	}

	result, err := that.matchUseCase.SubmitMove(r.Context(), chi.URLParam(r, "id"), coord)
	if err != nil {
		that.writeError(w, "submitMove", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (that *matchHandlers) isAvailable(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	y, errY := strconv.Atoi(chi.URLParam(r, "y"))
	if err := errors.Join(errX, errY); err != nil {
		that.writeError(w, "isAvailable", errors.Join(apperror.ErrInvalidInput, err))
		return
	}

	coord := entity.Coordinate{X: x, Y: y}

	available, err := that.matchUseCase.IsAvailable(r.Context(), chi.URLParam(r, "id"), coord)
	if err != nil {
		that.writeError(w, "isAvailable", err)
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{Coordinate: coord, Available: available})
}

func (that *matchHandlers) playAgain(w http.ResponseWriter, r *http.Request) {
	var settings usecase.Settings
	if err := decodeOptional(r.Body, &settings); err != nil {
		that.writeError(w, "playAgain", err)
		return
	}

	view, err := that.matchUseCase.PlayAgain(r.Context(), chi.URLParam(r, "id"), settings)
	if err != nil {
		that.writeError(w, "playAgain", err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (that *matchHandlers) endMatch(w http.ResponseWriter, r *http.Request) {
	if err := that.matchUseCase.EndMatch(r.Context(), chi.URLParam(r, "id")); err != nil {
		that.writeError(w, "endMatch", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *matchHandlers) writeError(w http.ResponseWriter, method string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
	} else {
		that.logger.Debug("request rejected", "method", method, "error", err)
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// StatusFor maps a use case error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrNotYourTurn):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidInput),
		errors.Is(err, apperror.ErrInvalidConfiguration):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeOptional accepts an empty body as the zero value.
func decodeOptional(body io.Reader, v any) error {
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(apperror.ErrInvalidInput, err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
