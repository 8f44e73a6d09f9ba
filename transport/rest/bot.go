package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/service"
)

type BotHandler interface {
	MoveHandler(w http.ResponseWriter, r *http.Request)
}

type botMoveRequest struct {
	Board  [entity.BoardSize][entity.BoardSize]string `json:"board"`
	Player string                                     `json:"player"`
}

type botHandler struct {
	logger     *slog.Logger
	botService service.BotService
}

func NewBotHandler(logger *slog.Logger, botService service.BotService) BotHandler {
	return &botHandler{
		logger:     logger.With("component", "rest"),
		botService: botService,
	}
}

// MoveHandler - picks a move for the given side on the given board. The
// handler is stateless: the caller owns the board and applies the move.
func (that *botHandler) MoveHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "MoveHandler")

	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req botMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if req.Player != entity.PlayerBlack && req.Player != entity.PlayerWhite {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	cell, err := that.botService.ChooseMove(req.Board, req.Player)
	if err != nil {
		if errors.Is(err, service.ErrNoAvailableMoves) {
			http.Error(w, "Conflict", http.StatusConflict)
			return
		}

		log.Error("failed to choose move", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(cell); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}
