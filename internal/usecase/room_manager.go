package usecase

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

type roomStore interface {
	Create(connID string) (*entity.Room, error)
	Lookup(code string) (*entity.Room, error)
	Join(code, connID string) (*entity.Room, tictactoe.Symbol, error)
	RemoveSeat(connID string) (repository.Departure, bool)
	Len() int
}

type notifier interface {
	Notify(connID string, event entity.Event)
}

type recorder interface {
	Record(result entity.RoomResult)
}

// RoomManager applies room commands one at a time. Every command runs to completion,
// including enqueueing its outbound events, before the next one starts.
type RoomManager struct {
	logger   *slog.Logger
	rooms    roomStore
	notifier notifier
	recorder recorder
	now      func() time.Time

	mu          sync.Mutex
	memberships map[string]string // connID -> room code
}

func NewRoomManager(logger *slog.Logger, rooms roomStore, notifier notifier, recorder recorder) *RoomManager {
	if recorder == nil {
		recorder = NopRecorder{}
	}

	return &RoomManager{
		logger:   logger,
		rooms:    rooms,
		notifier: notifier,
		recorder: recorder,
		now:      time.Now,

		memberships: make(map[string]string),
	}
}

// CreateRoom opens a new room with connID seated as X and replies room_created to it.
func (that *RoomManager) CreateRoom(connID string) (string, error) {
	log := that.logger.With("method", "CreateRoom", "connID", connID)

	that.mu.Lock()
	defer that.mu.Unlock()

	that.leave(connID)

	room, err := that.rooms.Create(connID)
	if err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}

	that.memberships[connID] = room.Code
	that.notifier.Notify(connID, entity.Event{Action: entity.ActionRoomCreated, Payload: room.Code})

	log.Info("room created", "roomCode", room.Code)

	return room.Code, nil
}

// JoinRoom seats connID in the room with the given code and sends game_start to both seats.
func (that *RoomManager) JoinRoom(connID, rawCode string) error {
	code := pkg.NormalizeRoomCode(rawCode)
	log := that.logger.With("method", "JoinRoom", "connID", connID, "roomCode", code)

	if !pkg.IsValidRoomCode(code) {
		return fmt.Errorf("%w: %w %q", apperror.ErrRoomNotFound, apperror.ErrInvalidRoomCode, rawCode)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.memberships[connID] == code {
		return nil
	}

	target, err := that.rooms.Lookup(code)
	if err != nil {
		return fmt.Errorf("failed to find room: %w", err)
	}

	if target.IsFull() {
		return fmt.Errorf("%w: %s", apperror.ErrRoomFull, code)
	}

	that.leave(connID)

	room, symbol, err := that.rooms.Join(code, connID)
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	that.memberships[connID] = code

	snapshot := room.Snapshot()
	for _, seat := range room.Players {
		that.notifier.Notify(seat.ConnID, entity.Event{
			Action: entity.ActionGameStart,
			Payload: entity.GameStartPayload{
				Symbol:    seat.Symbol,
				RoomCode:  code,
				RoomState: snapshot,
			},
		})
	}

	log.Info("player joined room", "symbol", symbol)

	return nil
}

// MakeMove applies a move for connID and broadcasts move_made. Illegal moves leave the room
// untouched and are reported only through the returned error.
func (that *RoomManager) MakeMove(connID string, cmd entity.MoveCommand) error {
	if cmd.Index == nil {
		return fmt.Errorf("%w: missing index", apperror.ErrInvalidCell)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.seatedRoom(connID, cmd.RoomCode)
	if err != nil {
		return err
	}

	if err = room.Move(connID, cmd.Symbol, *cmd.Index); err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	that.broadcast(room, entity.Event{Action: entity.ActionMoveMade, Payload: entity.NewMoveMadePayload(room)})

	if room.Status != tictactoe.StatusPlaying {
		that.logger.Info("game finished",
			"method", "MakeMove",
			"roomCode", room.Code,
			"status", room.Status,
			"winner", room.Winner,
		)
	}

	return nil
}

// RequestRestart registers connID's restart vote. Once every seat has voted the board is
// cleared and game_reset follows restart_requested.
func (that *RoomManager) RequestRestart(connID, rawCode string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.seatedRoom(connID, rawCode)
	if err != nil {
		return err
	}

	reset, err := room.RequestRestart(connID)
	if err != nil {
		return fmt.Errorf("failed to request restart: %w", err)
	}

	that.broadcast(room, entity.Event{Action: entity.ActionRestartRequested, Payload: connID})

	if reset {
		that.broadcast(room, entity.Event{Action: entity.ActionGameReset, Payload: room.Snapshot()})
		that.logger.Info("room reset", "method", "RequestRestart", "roomCode", room.Code)
	}

	return nil
}

// RejectRestart drops all pending restart votes in connID's room.
func (that *RoomManager) RejectRestart(connID, rawCode string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.seatedRoom(connID, rawCode)
	if err != nil {
		return err
	}

	if err = room.RejectRestart(connID); err != nil {
		return fmt.Errorf("failed to reject restart: %w", err)
	}

	that.broadcast(room, entity.Event{Action: entity.ActionRestartRejected})

	return nil
}

// Leave frees connID's seat. Calling it for a connection without a seat does nothing, so an
// explicit leave followed by a disconnect notifies only once.
func (that *RoomManager) Leave(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.leave(connID)
}

// Snapshot returns the current state of the room with the given code.
func (that *RoomManager) Snapshot(rawCode string) (entity.RoomSnapshot, error) {
	code := pkg.NormalizeRoomCode(rawCode)
	if !pkg.IsValidRoomCode(code) {
		return entity.RoomSnapshot{}, fmt.Errorf("%w: %w %q", apperror.ErrRoomNotFound, apperror.ErrInvalidRoomCode, rawCode)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.rooms.Lookup(code)
	if err != nil {
		return entity.RoomSnapshot{}, fmt.Errorf("failed to find room: %w", err)
	}

	return room.Snapshot(), nil
}

// RoomCount returns the number of live rooms.
func (that *RoomManager) RoomCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.rooms.Len()
}

func (that *RoomManager) leave(connID string) {
	log := that.logger.With("method", "leave", "connID", connID)

	delete(that.memberships, connID)

	departure, ok := that.rooms.RemoveSeat(connID)
	if !ok {
		return
	}

	room := departure.Room
	if departure.Destroyed {
		log.Info("room destroyed", "roomCode", room.Code, "gamesPlayed", room.GamesPlayed)

		if room.GamesPlayed > 0 {
			that.recorder.Record(room.Result(that.now()))
		}

		return
	}

	that.broadcast(room, entity.Event{Action: entity.ActionPlayerLeft})

	log.Info("player left room", "roomCode", room.Code)
}

// seatedRoom resolves the room connID sits in. rawCode must name that room.
func (that *RoomManager) seatedRoom(connID, rawCode string) (*entity.Room, error) {
	code, ok := that.memberships[connID]
	if !ok {
		return nil, apperror.ErrNotSeated
	}

	if pkg.NormalizeRoomCode(rawCode) != code {
		return nil, fmt.Errorf("%w: %q is not the sender's room", apperror.ErrRoomNotFound, rawCode)
	}

	room, err := that.rooms.Lookup(code)
	if err != nil {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	return room, nil
}

func (that *RoomManager) broadcast(room *entity.Room, event entity.Event) {
	for _, connID := range room.ConnIDs() {
		that.notifier.Notify(connID, event)
	}
}
