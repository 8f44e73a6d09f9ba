package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

func TestBotService_ChooseMove(t *testing.T) {
	botService := NewBotService()

	t.Run("Completes its own five in a row", func(t *testing.T) {
		// Given: the bot has four stones in a row
		var board [entity.BoardSize][entity.BoardSize]string
		for col := 0; col < 4; col++ {
			board[0][col] = entity.PlayerBlack
		}

		// When: the bot picks a move as black
		cell, err := botService.ChooseMove(board, entity.PlayerBlack)

		// Then: it finishes the line
		require.NoError(t, err)
		assert.Equal(t, entity.Cell{Row: 0, Col: 4}, cell)
	})

	t.Run("Blocks the opponent's open four", func(t *testing.T) {
		// Given: the opponent threatens five in a row
		var board [entity.BoardSize][entity.BoardSize]string
		for col := 4; col < 8; col++ {
			board[5][col] = entity.PlayerBlack
		}

		// When: the bot picks a move as white
		cell, err := botService.ChooseMove(board, entity.PlayerWhite)

		// Then: it takes one of the two closing cells
		require.NoError(t, err)
		assert.Contains(t, []entity.Cell{{Row: 5, Col: 3}, {Row: 5, Col: 8}}, cell)
	})

	t.Run("Prefers its own win over blocking", func(t *testing.T) {
		// Given: both sides have an open four
		var board [entity.BoardSize][entity.BoardSize]string
		for col := 0; col < 4; col++ {
			board[0][col] = entity.PlayerBlack
			board[14][col] = entity.PlayerWhite
		}

		// When: the bot picks a move as white
		cell, err := botService.ChooseMove(board, entity.PlayerWhite)

		// Then: it completes its own line instead of blocking
		require.NoError(t, err)
		assert.Equal(t, entity.Cell{Row: 14, Col: 4}, cell)
	})

	t.Run("Fallback move lands on an empty cell", func(t *testing.T) {
		// Given: a quiet board with a single stone
		var board [entity.BoardSize][entity.BoardSize]string
		board[7][7] = entity.PlayerBlack

		// When: the bot picks a move as white
		cell, err := botService.ChooseMove(board, entity.PlayerWhite)

		// Then: the chosen cell is on the board and unoccupied
		require.NoError(t, err)
		assert.Equal(t, entity.EmptyCell, board[cell.Row][cell.Col])
	})

	t.Run("Full board leaves no move", func(t *testing.T) {
		// Given: a board without a single empty cell
		var board [entity.BoardSize][entity.BoardSize]string
		for row := 0; row < entity.BoardSize; row++ {
			for col := 0; col < entity.BoardSize; col++ {
				board[row][col] = entity.PlayerBlack
			}
		}

		// When: the bot is asked for a move
		_, err := botService.ChooseMove(board, entity.PlayerWhite)

		// Then: it reports there is nothing to play
		assert.ErrorIs(t, err, ErrNoAvailableMoves)
	})
}
