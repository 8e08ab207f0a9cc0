package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	defaultResultsLimit = 20
	maxResultsLimit     = 100
)

type roomInspector interface {
	Snapshot(code string) (entity.RoomSnapshot, error)
}

type resultLister interface {
	List(ctx context.Context, limit int64) ([]entity.RoomResult, error)
}

type handlers struct {
	logger  *slog.Logger
	rooms   roomInspector
	results resultLister
}

type errorResponse struct {
	Error string `json:"error"`
}

// getRoom handles GET /api/rooms/{code}.
func (that *handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	snapshot, err := that.rooms.Snapshot(code)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Room not found"})
		return
	}

	if err != nil {
		that.logger.Error("failed to get room", "method", "getRoom", "roomCode", code, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// listResults handles GET /api/results?limit=N.
func (that *handlers) listResults(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultResultsLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}

		limit = min(parsed, maxResultsLimit)
	}

	results, err := that.results.List(r.Context(), limit)
	if err != nil {
		that.logger.Error("failed to list results", "method", "listResults", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
