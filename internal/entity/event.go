package entity

import "github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"

// Inbound actions.
const (
	ActionCreateRoom     = "create_room"
	ActionJoinRoom       = "join_room"
	ActionMakeMove       = "make_move"
	ActionRequestRestart = "request_restart"
	ActionRejectRestart  = "reject_restart"
	ActionLeaveRoom      = "leave_room"
)

// Outbound actions.
const (
	ActionConnected        = "connected"
	ActionRoomCreated      = "room_created"
	ActionGameStart        = "game_start"
	ActionMoveMade         = "move_made"
	ActionRestartRequested = "restart_requested"
	ActionGameReset        = "game_reset"
	ActionRestartRejected  = "restart_rejected"
	ActionPlayerLeft       = "player_left"
	ActionError            = "error"
)

// Event is an outbound protocol message addressed to one connection.
type Event struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

type GameStartPayload struct {
	Symbol    tictactoe.Symbol `json:"symbol"`
	RoomCode  string           `json:"roomCode"`
	RoomState RoomSnapshot     `json:"roomState"`
}

type MoveMadePayload struct {
	Board         tictactoe.Board  `json:"board"`
	CurrentPlayer tictactoe.Symbol `json:"currentPlayer"`
	Status        tictactoe.Status `json:"status"`
	Winner        tictactoe.Symbol `json:"winner"`
	WinningLine   []int            `json:"winningLine"`
	Scores        Scores           `json:"scores"`
}

// MoveCommand is the make_move request body.
type MoveCommand struct {
	RoomCode string           `json:"roomCode"`
	Index    *int             `json:"index"`
	Symbol   tictactoe.Symbol `json:"symbol"`
}

func NewMoveMadePayload(room *Room) MoveMadePayload {
	snapshot := room.Snapshot()

	return MoveMadePayload{
		Board:         snapshot.Board,
		CurrentPlayer: snapshot.CurrentPlayer,
		Status:        snapshot.Status,
		Winner:        snapshot.Winner,
		WinningLine:   snapshot.WinningLine,
		Scores:        snapshot.Scores,
	}
}

func ErrorEvent(message string) Event {
	return Event{Action: ActionError, Payload: message}
}
