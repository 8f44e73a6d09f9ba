package service

import (
	"errors"
	"math/rand"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// BotService picks a move for the single-player opponent. It is stateless:
// every call works purely off the board it is handed.
type BotService interface {
	ChooseMove(board [entity.BoardSize][entity.BoardSize]string, aiPlayer string) (entity.Cell, error)
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

// ChooseMove - completes a five-in-a-row for the bot if one move does it,
// otherwise blocks the opponent's immediate win, otherwise picks an empty
// cell uniformly at random.
func (that *botService) ChooseMove(board [entity.BoardSize][entity.BoardSize]string, aiPlayer string) (entity.Cell, error) {
	emptyCells := make([]entity.Cell, 0, entity.BoardSize*entity.BoardSize)
	for row := 0; row < entity.BoardSize; row++ {
		for col := 0; col < entity.BoardSize; col++ {
			if board[row][col] == entity.EmptyCell {
				emptyCells = append(emptyCells, entity.Cell{Row: row, Col: col})
			}
		}
	}

	if len(emptyCells) == 0 {
		return entity.Cell{}, ErrNoAvailableMoves
	}

	if cell, ok := winningCell(board, emptyCells, aiPlayer); ok {
		return cell, nil
	}

	if cell, ok := winningCell(board, emptyCells, entity.OpposingPlayer(aiPlayer)); ok {
		return cell, nil
	}

	return emptyCells[rand.Intn(len(emptyCells))], nil //nolint: gosec // it's ok
}

// winningCell - finds a cell that would complete five in a row for the
// given player, trying each empty cell on a scratch board.
func winningCell(board [entity.BoardSize][entity.BoardSize]string, emptyCells []entity.Cell, player string) (entity.Cell, bool) {
	for _, cell := range emptyCells {
		scratch := entity.Game{Board: board}
		scratch.Board[cell.Row][cell.Col] = player

		if scratch.CheckWin(cell.Row, cell.Col) {
			return cell, true
		}
	}

	return entity.Cell{}, false
}
