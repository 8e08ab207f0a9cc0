package tictactoe

import "errors"

var ErrInvalidBoard = errors.New("invalid board")

// Status is the terminal state of a board as seen by the evaluator.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusDraw    Status = "draw"
)

// WinCombos lists every winning line in scan order: rows, columns, then diagonals.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Outcome is the evaluator verdict for a board.
type Outcome struct {
	Status Status
	Winner Symbol
	Line   []int
}

// Evaluate returns the first completed line in WinCombos order, a draw when the board
// is full without one, or playing otherwise. Any board is accepted, including ones
// that cannot arise in legal play.
func Evaluate(board Board) Outcome {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a.IsPlayer() && a == b && b == c {
			return Outcome{
				Status: StatusWon,
				Winner: a,
				Line:   []int{combo[0], combo[1], combo[2]},
			}
		}
	}

	if board.IsFull() {
		return Outcome{Status: StatusDraw}
	}

	return Outcome{Status: StatusPlaying}
}
