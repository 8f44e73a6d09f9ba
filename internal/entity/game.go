package entity

const (
	BoardSize = 15
	winLength = 5

	StatusFinished = "finished"
	StatusPlaying  = "playing"
	StatusWaiting  = "waiting"

	PlayerBlack = "black"
	PlayerWhite = "white"

	EmptyCell = ""
)

// lineDirections are the four direction families checked for a win:
// horizontal, vertical and the two diagonals.
var lineDirections = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Game struct {
	Board    [BoardSize][BoardSize]string `json:"board"`
	Turn     string                       `json:"currentPlayer"`
	Status   string                       `json:"status"`
	Winner   string                       `json:"winner,omitempty"`
	LastMove *Cell                        `json:"lastMove,omitempty"`
	Moves    int                          `json:"moves"`
}

func NewGame() *Game {
	return &Game{
		Turn:   PlayerBlack,
		Status: StatusWaiting,
	}
}

// ApplyMove - places a mark for the given player and reports whether the
// move was applied. Out-of-range coordinates, an occupied cell, a move out
// of turn or a move after the game is decided are all silent no-ops: the
// board stays untouched and the caller simply gets false back. Malformed
// intents from a client must never tear down the game for the opponent.
func (that *Game) ApplyMove(player string, row, col int) bool {
	if that.IsFinished() {
		return false
	}

	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return false
	}

	if that.Board[row][col] != EmptyCell {
		return false
	}

	if that.Turn != player {
		return false
	}

	that.Board[row][col] = player
	that.LastMove = &Cell{Row: row, Col: col}
	that.Moves++

	if that.CheckWin(row, col) {
		that.Winner = player
		that.Status = StatusFinished
		return true
	}

	that.Turn = OpposingPlayer(player)

	return true
}

// CheckWin - reports whether the mark at (row, col) completes a line of
// five or more. Only the four lines through the given cell are scanned,
// at most four cells out in each direction; the rest of the board is
// never rescanned.
func (that *Game) CheckWin(row, col int) bool {
	player := that.Board[row][col]
	if player == EmptyCell {
		return false
	}

	for _, dir := range lineDirections {
		count := 1
		count += that.countLine(player, row, col, dir[0], dir[1])
		count += that.countLine(player, row, col, -dir[0], -dir[1])

		if count >= winLength {
			return true
		}
	}

	return false
}

// countLine - counts contiguous same-player cells from (row, col)
// exclusive, walking in direction (dr, dc). Board edges stop the scan.
func (that *Game) countLine(player string, row, col, dr, dc int) int {
	count := 0

	for i := 1; i < winLength; i++ {
		r := row + i*dr
		c := col + i*dc

		if r < 0 || r >= BoardSize || c < 0 || c >= BoardSize {
			break
		}

		if that.Board[r][c] != player {
			break
		}

		count++
	}

	return count
}

// Reset - returns the board to its initial state for a new round. The
// black player always opens.
func (that *Game) Reset() {
	that.Board = [BoardSize][BoardSize]string{}
	that.Turn = PlayerBlack
	that.Status = StatusPlaying
	that.Winner = ""
	that.LastMove = nil
	that.Moves = 0
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func OpposingPlayer(player string) string {
	if player == PlayerBlack {
		return PlayerWhite
	}
	return PlayerBlack
}
