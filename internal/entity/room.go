package entity

import (
	"fmt"
	"slices"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const MaxSeats = 2

// Seat binds a connection to a symbol. The first seat is always X.
type Seat struct {
	ConnID string           `json:"id"`
	Symbol tictactoe.Symbol `json:"symbol"`
}

// Scores survive restarts for the lifetime of the room.
type Scores struct {
	X     int `json:"X"`
	O     int `json:"O"`
	Draws int `json:"draws"`
}

// Room is one paired game session. It is not safe for concurrent use.
type Room struct {
	Code          string
	Players       []Seat
	Board         tictactoe.Board
	CurrentPlayer tictactoe.Symbol
	Winner        tictactoe.Symbol
	WinningLine   []int
	Status        tictactoe.Status
	Scores        Scores
	GamesPlayed   int
	CreatedAt     time.Time

	restartRequests map[string]struct{}
}

func NewRoom(code, connID string, createdAt time.Time) *Room {
	return &Room{
		Code:            code,
		Players:         []Seat{{ConnID: connID, Symbol: tictactoe.PlayerX}},
		CurrentPlayer:   tictactoe.PlayerX,
		Status:          tictactoe.StatusPlaying,
		CreatedAt:       createdAt,
		restartRequests: make(map[string]struct{}),
	}
}

func (that *Room) IsFull() bool {
	return len(that.Players) >= MaxSeats
}

func (that *Room) IsEmpty() bool {
	return len(that.Players) == 0
}

// SeatOf returns the seat held by connID.
func (that *Room) SeatOf(connID string) (Seat, bool) {
	for _, seat := range that.Players {
		if seat.ConnID == connID {
			return seat, true
		}
	}

	return Seat{}, false
}

// ConnIDs returns the seated connections in seat order.
func (that *Room) ConnIDs() []string {
	ids := make([]string, 0, len(that.Players))
	for _, seat := range that.Players {
		ids = append(ids, seat.ConnID)
	}

	return ids
}

// Join seats connID as O.
func (that *Room) Join(connID string) (tictactoe.Symbol, error) {
	if that.IsFull() {
		return tictactoe.EmptyCell, fmt.Errorf("%w: %s", apperror.ErrRoomFull, that.Code)
	}

	symbol := tictactoe.PlayerX
	if len(that.Players) > 0 {
		symbol = that.Players[0].Symbol.Opponent()
	}

	that.Players = append(that.Players, Seat{ConnID: connID, Symbol: symbol})

	return symbol, nil
}

// Move places the mover's mark on cell. The symbol comes from the mover's seat; a non-empty
// claimed symbol must agree with it. On acceptance the turn passes to the opponent and the
// board is evaluated for a terminal state.
func (that *Room) Move(connID string, claimed tictactoe.Symbol, cell int) error {
	seat, ok := that.SeatOf(connID)
	if !ok {
		return apperror.ErrNotSeated
	}

	if claimed != tictactoe.EmptyCell && claimed != seat.Symbol {
		return fmt.Errorf("%w: claimed %q, seat %q", apperror.ErrSymbolMismatch, claimed, seat.Symbol)
	}

	if !that.IsFull() {
		return apperror.ErrGameIsNotStarted
	}

	if that.Status != tictactoe.StatusPlaying {
		return apperror.ErrGameFinished
	}

	if cell < 0 || cell >= tictactoe.BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.CurrentPlayer != seat.Symbol {
		return apperror.ErrNotYourTurn
	}

	if that.Board[cell] != tictactoe.EmptyCell {
		return apperror.ErrCellOccupied
	}

	that.Board[cell] = seat.Symbol
	that.CurrentPlayer = seat.Symbol.Opponent()
	that.updateGameState()

	return nil
}

func (that *Room) updateGameState() {
	outcome := tictactoe.Evaluate(that.Board)

	that.Status = outcome.Status

	switch outcome.Status {
	case tictactoe.StatusWon:
		that.Winner = outcome.Winner
		that.WinningLine = outcome.Line
		if outcome.Winner == tictactoe.PlayerX {
			that.Scores.X++
		} else {
			that.Scores.O++
		}
		that.GamesPlayed++
	case tictactoe.StatusDraw:
		that.Scores.Draws++
		that.GamesPlayed++
	case tictactoe.StatusPlaying:
	}
}

// RequestRestart records connID's vote. It returns true when every seat has voted, in
// which case the room has already been reset.
func (that *Room) RequestRestart(connID string) (bool, error) {
	if _, ok := that.SeatOf(connID); !ok {
		return false, apperror.ErrNotSeated
	}

	that.restartRequests[connID] = struct{}{}

	if len(that.restartRequests) < MaxSeats {
		return false, nil
	}

	that.Reset()

	return true, nil
}

// RejectRestart drops every pending vote, including ones cast by the other seat.
func (that *Room) RejectRestart(connID string) error {
	if _, ok := that.SeatOf(connID); !ok {
		return apperror.ErrNotSeated
	}

	clear(that.restartRequests)

	return nil
}

// RestartRequests returns the pending votes in sorted order.
func (that *Room) RestartRequests() []string {
	ids := make([]string, 0, len(that.restartRequests))
	for id := range that.restartRequests {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// Reset clears the board for a new game. Scores are kept.
func (that *Room) Reset() {
	that.Board = tictactoe.Board{}
	that.CurrentPlayer = tictactoe.PlayerX
	that.Winner = tictactoe.EmptyCell
	that.WinningLine = nil
	that.Status = tictactoe.StatusPlaying

	clear(that.restartRequests)
}

// RemoveSeat frees connID's seat and withdraws its restart vote.
func (that *Room) RemoveSeat(connID string) bool {
	idx := slices.IndexFunc(that.Players, func(seat Seat) bool {
		return seat.ConnID == connID
	})
	if idx == -1 {
		return false
	}

	that.Players = slices.Delete(that.Players, idx, idx+1)
	delete(that.restartRequests, connID)

	return true
}
