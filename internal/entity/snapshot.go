package entity

import (
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

// RoomSnapshot is the wire view of a room sent in game_start and game_reset.
type RoomSnapshot struct {
	Code            string           `json:"code"`
	Players         []Seat           `json:"players"`
	Board           tictactoe.Board  `json:"board"`
	CurrentPlayer   tictactoe.Symbol `json:"currentPlayer"`
	Winner          tictactoe.Symbol `json:"winner"`
	WinningLine     []int            `json:"winningLine"`
	Status          tictactoe.Status `json:"status"`
	Scores          Scores           `json:"scores"`
	RestartRequests []string         `json:"restartRequests"`
}

// RoomResult summarises a room when its last seat leaves.
type RoomResult struct {
	Code        string    `json:"code"`
	Scores      Scores    `json:"scores"`
	GamesPlayed int       `json:"gamesPlayed"`
	CreatedAt   time.Time `json:"createdAt"`
	ClosedAt    time.Time `json:"closedAt"`
}

func (that *Room) Snapshot() RoomSnapshot {
	players := make([]Seat, len(that.Players))
	copy(players, that.Players)

	var line []int
	if that.WinningLine != nil {
		line = append([]int(nil), that.WinningLine...)
	}

	return RoomSnapshot{
		Code:            that.Code,
		Players:         players,
		Board:           that.Board,
		CurrentPlayer:   that.CurrentPlayer,
		Winner:          that.Winner,
		WinningLine:     line,
		Status:          that.Status,
		Scores:          that.Scores,
		RestartRequests: that.RestartRequests(),
	}
}

func (that *Room) Result(closedAt time.Time) RoomResult {
	return RoomResult{
		Code:        that.Code,
		Scores:      that.Scores,
		GamesPlayed: that.GamesPlayed,
		CreatedAt:   that.CreatedAt,
		ClosedAt:    closedAt,
	}
}
