package repository

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const DefaultMaxCodeAttempts = 100

type codeGenerator interface {
	Generate() (string, error)
}

// Departure describes the room a connection was removed from.
type Departure struct {
	Room      *entity.Room
	Destroyed bool
}

// RoomStore is the registry of live rooms keyed by code. It is not safe for concurrent
// use; callers serialise access.
type RoomStore struct {
	rooms       map[string]*entity.Room
	codes       codeGenerator
	maxAttempts int
	now         func() time.Time
}

func NewRoomStore(codes codeGenerator, maxAttempts int) *RoomStore {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxCodeAttempts
	}

	return &RoomStore{
		rooms:       make(map[string]*entity.Room),
		codes:       codes,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Create opens a room under a fresh code with connID seated as X. A generated code that
// is already live is discarded and drawn again.
func (that *RoomStore) Create(connID string) (*entity.Room, error) {
	for i := 0; i < that.maxAttempts; i++ {
		code, err := that.codes.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}

		if _, exists := that.rooms[code]; exists {
			continue
		}

		room := entity.NewRoom(code, connID, that.now())
		that.rooms[code] = room

		return room, nil
	}

	return nil, fmt.Errorf("%w after %d attempts", apperror.ErrCodeSpaceExhausted, that.maxAttempts)
}

func (that *RoomStore) Lookup(code string) (*entity.Room, error) {
	room, ok := that.rooms[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	return room, nil
}

// Join seats connID in the room with the given code.
func (that *RoomStore) Join(code, connID string) (*entity.Room, tictactoe.Symbol, error) {
	room, err := that.Lookup(code)
	if err != nil {
		return nil, tictactoe.EmptyCell, err
	}

	symbol, err := room.Join(connID)
	if err != nil {
		return nil, tictactoe.EmptyCell, fmt.Errorf("failed to join room: %w", err)
	}

	return room, symbol, nil
}

// RemoveSeat scans every room for connID and frees its seat. A room left empty is
// deleted and its code becomes available again.
func (that *RoomStore) RemoveSeat(connID string) (Departure, bool) {
	for code, room := range that.rooms {
		if !room.RemoveSeat(connID) {
			continue
		}

		if room.IsEmpty() {
			delete(that.rooms, code)
			return Departure{Room: room, Destroyed: true}, true
		}

		return Departure{Room: room}, true
	}

	return Departure{}, false
}

func (that *RoomStore) Len() int {
	return len(that.rooms)
}
