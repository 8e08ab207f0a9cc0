package usecase

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

type sentEvent struct {
	connID string
	event  entity.Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (that *recordingNotifier) Notify(connID string, event entity.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = append(that.events, sentEvent{connID: connID, event: event})
}

func (that *recordingNotifier) take() []sentEvent {
	that.mu.Lock()
	defer that.mu.Unlock()

	events := that.events
	that.events = nil

	return events
}

func (that *recordingNotifier) actionsFor(connID string) []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	var actions []string
	for _, sent := range that.events {
		if sent.connID == connID {
			actions = append(actions, sent.event.Action)
		}
	}

	return actions
}

type mockRecorder struct {
	mock.Mock
}

func (that *mockRecorder) Record(result entity.RoomResult) {
	that.Called(result)
}

type fixedCodes struct {
	codes []string
	next  int
}

func (that *fixedCodes) Generate() (string, error) {
	code := that.codes[that.next%len(that.codes)]
	that.next++

	return code, nil
}

func newTestManager(t *testing.T, codes ...string) (*RoomManager, *recordingNotifier, *mockRecorder) {
	t.Helper()

	if len(codes) == 0 {
		codes = []string{"K3F9Q", "ZZ9ZZ", "AB12C"}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &recordingNotifier{}
	rec := &mockRecorder{}
	store := repository.NewRoomStore(&fixedCodes{codes: codes}, 10)

	manager := NewRoomManager(logger, store, notifier, rec)
	manager.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	return manager, notifier, rec
}

func cell(i int) *int {
	return &i
}

// startGame seats a as X and b as O in room K3F9Q.
func startGame(t *testing.T, manager *RoomManager, notifier *recordingNotifier, a, b string) string {
	t.Helper()

	code, err := manager.CreateRoom(a)
	require.NoError(t, err)
	require.NoError(t, manager.JoinRoom(b, code))

	notifier.take()

	return code
}

func TestRoomManager_CreateRoom(t *testing.T) {
	manager, notifier, _ := newTestManager(t)

	// When: a connection creates a room
	code, err := manager.CreateRoom("A")

	// Then: only the creator is told the code
	require.NoError(t, err)
	assert.Equal(t, "K3F9Q", code)

	events := notifier.take()
	require.Len(t, events, 1)
	assert.Equal(t, "A", events[0].connID)
	assert.Equal(t, entity.ActionRoomCreated, events[0].event.Action)
	assert.Equal(t, "K3F9Q", events[0].event.Payload)
	assert.Equal(t, 1, manager.RoomCount())
}

func TestRoomManager_JoinRoom(t *testing.T) {
	t.Run("Both seats receive game_start", func(t *testing.T) {
		manager, notifier, _ := newTestManager(t)

		code, err := manager.CreateRoom("A")
		require.NoError(t, err)
		notifier.take()

		// When: B joins with a lower-case, padded code
		err = manager.JoinRoom("B", "  k3f9q ")

		// Then: A gets X and B gets O with an empty board and X to move
		require.NoError(t, err)

		events := notifier.take()
		require.Len(t, events, 2)

		symbols := map[string]tictactoe.Symbol{}
		for _, sent := range events {
			assert.Equal(t, entity.ActionGameStart, sent.event.Action)

			payload, ok := sent.event.Payload.(entity.GameStartPayload)
			require.True(t, ok)
			assert.Equal(t, code, payload.RoomCode)
			assert.Equal(t, tictactoe.Board{}, payload.RoomState.Board)
			assert.Equal(t, tictactoe.PlayerX, payload.RoomState.CurrentPlayer)
			require.Len(t, payload.RoomState.Players, 2)

			symbols[sent.connID] = payload.Symbol
		}

		assert.Equal(t, tictactoe.PlayerX, symbols["A"])
		assert.Equal(t, tictactoe.PlayerO, symbols["B"])
	})

	t.Run("Unknown code reports room not found", func(t *testing.T) {
		manager, notifier, _ := newTestManager(t)

		err := manager.JoinRoom("B", "NOPE1")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Empty(t, notifier.take())
	})

	t.Run("Malformed code reports room not found", func(t *testing.T) {
		manager, _, _ := newTestManager(t)

		err := manager.JoinRoom("B", "not-a-code")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		require.ErrorIs(t, err, apperror.ErrInvalidRoomCode)
	})

	t.Run("Third connection is refused without touching seats", func(t *testing.T) {
		manager, notifier, _ := newTestManager(t)
		code := startGame(t, manager, notifier, "A", "B")

		// When: C tries to join a full room
		err := manager.JoinRoom("C", code)

		// Then: RoomFull and the seats are unchanged
		require.ErrorIs(t, err, apperror.ErrRoomFull)
		assert.Empty(t, notifier.take())

		snapshot, err := manager.Snapshot(code)
		require.NoError(t, err)
		require.Len(t, snapshot.Players, 2)
		assert.Equal(t, "A", snapshot.Players[0].ConnID)
		assert.Equal(t, "B", snapshot.Players[1].ConnID)
	})

	t.Run("Rejoining the current room is a no-op", func(t *testing.T) {
		manager, notifier, _ := newTestManager(t)
		code := startGame(t, manager, notifier, "A", "B")

		err := manager.JoinRoom("B", code)

		require.NoError(t, err)
		assert.Empty(t, notifier.take())
	})

	t.Run("Joining another room leaves the current one", func(t *testing.T) {
		manager, notifier, rec := newTestManager(t)

		first, err := manager.CreateRoom("A")
		require.NoError(t, err)
		second, err := manager.CreateRoom("C")
		require.NoError(t, err)
		require.NoError(t, manager.JoinRoom("B", first))
		notifier.take()

		// When: B moves over to C's room
		err = manager.JoinRoom("B", second)

		// Then: A is told B left, and B starts with C
		require.NoError(t, err)
		assert.Equal(t, []string{entity.ActionPlayerLeft}, notifier.actionsFor("A"))
		assert.Equal(t, []string{entity.ActionGameStart}, notifier.actionsFor("B"))
		assert.Equal(t, 2, manager.RoomCount())
		rec.AssertNotCalled(t, "Record", mock.Anything)
	})
}

func TestRoomManager_MakeMove(t *testing.T) {
	t.Run("Accepted move is broadcast", func(t *testing.T) {
		manager, notifier, _ := newTestManager(t)
		code := startGame(t, manager, notifier, "A", "B")

		// When: X plays the centre
		err := manager.MakeMove("A", entity.MoveCommand{RoomCode: code, Index: cell(4), Symbol: tictactoe.PlayerX})

		// Then: both seats see the board with O to move
		require.NoError(t, err)

		events := notifier.take()
		require.Len(t, events, 2)
		for _, sent := range events {
			assert.Equal(t, entity.ActionMoveMade, sent.event.Action)

			payload, ok := sent.event.Payload.(entity.MoveMadePayload)
			require.True(t, ok)
			assert.Equal(t, tictactoe.Board{4: tictactoe.PlayerX}, payload.Board)
			assert.Equal(t, tictactoe.PlayerO, payload.CurrentPlayer)
			assert.Equal(t, tictactoe.StatusPlaying, payload.Status)
		}
	})

	t.Run("Illegal moves are dropped without events", func(t *testing.T) {
		manager, notifier, _ := newTestManager(t)
		code := startGame(t, manager, notifier, "A", "B")

		require.NoError(t, manager.MakeMove("A", entity.MoveCommand{RoomCode: code, Index: cell(0)}))
		notifier.take()

		cases := []struct {
			name   string
			connID string
			cmd    entity.MoveCommand
			err    error
		}{
			{"wrong turn", "A", entity.MoveCommand{RoomCode: code, Index: cell(1)}, apperror.ErrNotYourTurn},
			{"occupied cell", "B", entity.MoveCommand{RoomCode: code, Index: cell(0)}, apperror.ErrCellOccupied},
			{"claimed symbol is not the seat's", "B", entity.MoveCommand{RoomCode: code, Index: cell(1), Symbol: tictactoe.PlayerX}, apperror.ErrSymbolMismatch},
			{"out of range", "B", entity.MoveCommand{RoomCode: code, Index: cell(9)}, apperror.ErrInvalidCell},
			{"missing index", "B", entity.MoveCommand{RoomCode: code}, apperror.ErrInvalidCell},
			{"other room", "B", entity.MoveCommand{RoomCode: "ZZZZZ", Index: cell(1)}, apperror.ErrRoomNotFound},
			{"not seated", "C", entity.MoveCommand{RoomCode: code, Index: cell(1)}, apperror.ErrNotSeated},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				err := manager.MakeMove(tc.connID, tc.cmd)

				require.ErrorIs(t, err, tc.err)
				assert.Empty(t, notifier.take())
			})
		}

		snapshot, err := manager.Snapshot(code)
		require.NoError(t, err)
		assert.Equal(t, tictactoe.Board{0: tictactoe.PlayerX}, snapshot.Board)
		assert.Equal(t, tictactoe.PlayerO, snapshot.CurrentPlayer)
	})

	t.Run("Winning move finishes the game", func(t *testing.T) {
		manager, notifier, _ := newTestManager(t)
		code := startGame(t, manager, notifier, "A", "B")

		for i, move := range []struct {
			connID string
			cell   int
		}{{"A", 0}, {"B", 3}, {"A", 1}, {"B", 4}, {"A", 2}} {
			require.NoError(t, manager.MakeMove(move.connID, entity.MoveCommand{RoomCode: code, Index: cell(move.cell)}), "move %d", i)
		}

		events := notifier.take()
		last, ok := events[len(events)-1].event.Payload.(entity.MoveMadePayload)
		require.True(t, ok)
		assert.Equal(t, tictactoe.StatusWon, last.Status)
		assert.Equal(t, tictactoe.PlayerX, last.Winner)
		assert.Equal(t, []int{0, 1, 2}, last.WinningLine)
		assert.Equal(t, 1, last.Scores.X)

		// And: no further moves are accepted
		err := manager.MakeMove("B", entity.MoveCommand{RoomCode: code, Index: cell(8)})
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}

func TestRoomManager_Restart(t *testing.T) {
	t.Run("Both votes reset the board in either order", func(t *testing.T) {
		for _, order := range [][2]string{{"A", "B"}, {"B", "A"}} {
			manager, notifier, _ := newTestManager(t)
			code := startGame(t, manager, notifier, "A", "B")

			require.NoError(t, manager.MakeMove("A", entity.MoveCommand{RoomCode: code, Index: cell(4)}))

			// When: the first vote arrives
			require.NoError(t, manager.RequestRestart(order[0], code))

			// Then: both are told who asked, and the board is untouched
			events := notifier.take()
			actions := make([]string, 0, len(events))
			for _, sent := range events {
				actions = append(actions, sent.event.Action)
			}
			assert.NotContains(t, actions, entity.ActionGameReset)
			assert.Equal(t, order[0], events[len(events)-1].event.Payload)

			// When: the second vote arrives
			require.NoError(t, manager.RequestRestart(order[1], code))

			// Then: game_reset follows with an empty board and X to move
			events = notifier.take()
			require.Len(t, events, 4)
			assert.Equal(t, entity.ActionRestartRequested, events[0].event.Action)
			assert.Equal(t, entity.ActionGameReset, events[2].event.Action)

			snapshot, ok := events[3].event.Payload.(entity.RoomSnapshot)
			require.True(t, ok)
			assert.Equal(t, tictactoe.Board{}, snapshot.Board)
			assert.Equal(t, tictactoe.PlayerX, snapshot.CurrentPlayer)
			assert.Empty(t, snapshot.RestartRequests)
		}
	})

	t.Run("Reject clears every vote", func(t *testing.T) {
		manager, notifier, _ := newTestManager(t)
		code := startGame(t, manager, notifier, "A", "B")

		require.NoError(t, manager.RequestRestart("A", code))

		// When: A, the requester, rejects
		require.NoError(t, manager.RejectRestart("A", code))

		events := notifier.take()
		assert.Equal(t, entity.ActionRestartRejected, events[len(events)-1].event.Action)

		snapshot, err := manager.Snapshot(code)
		require.NoError(t, err)
		assert.Empty(t, snapshot.RestartRequests)

		// Then: a later single vote does not reset
		require.NoError(t, manager.MakeMove("A", entity.MoveCommand{RoomCode: code, Index: cell(0)}))
		require.NoError(t, manager.RequestRestart("B", code))

		snapshot, err = manager.Snapshot(code)
		require.NoError(t, err)
		assert.Equal(t, tictactoe.PlayerX, snapshot.Board[0])
	})

	t.Run("Votes from outside the room are dropped", func(t *testing.T) {
		manager, notifier, _ := newTestManager(t)
		code := startGame(t, manager, notifier, "A", "B")

		require.ErrorIs(t, manager.RequestRestart("C", code), apperror.ErrNotSeated)
		require.ErrorIs(t, manager.RejectRestart("A", "QQQQQ"), apperror.ErrRoomNotFound)
		assert.Empty(t, notifier.take())
	})
}

func TestRoomManager_Leave(t *testing.T) {
	t.Run("Remaining player is notified once", func(t *testing.T) {
		manager, notifier, rec := newTestManager(t)
		code := startGame(t, manager, notifier, "A", "B")

		// When: A leaves explicitly and then disconnects
		manager.Leave("A")
		manager.Leave("A")

		// Then: B hears about it exactly once and the room survives
		events := notifier.take()
		require.Len(t, events, 1)
		assert.Equal(t, "B", events[0].connID)
		assert.Equal(t, entity.ActionPlayerLeft, events[0].event.Action)

		_, err := manager.Snapshot(code)
		require.NoError(t, err)
		rec.AssertNotCalled(t, "Record", mock.Anything)
	})

	t.Run("Last player out destroys the room", func(t *testing.T) {
		manager, notifier, rec := newTestManager(t)
		code, err := manager.CreateRoom("A")
		require.NoError(t, err)
		notifier.take()

		manager.Leave("A")

		assert.Empty(t, notifier.take())
		_, err = manager.Snapshot(code)
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Zero(t, manager.RoomCount())
		rec.AssertNotCalled(t, "Record", mock.Anything)
	})

	t.Run("Destroyed room with games played is recorded", func(t *testing.T) {
		manager, notifier, rec := newTestManager(t)
		code := startGame(t, manager, notifier, "A", "B")

		for _, move := range []struct {
			connID string
			cell   int
		}{{"A", 0}, {"B", 3}, {"A", 1}, {"B", 4}, {"A", 2}} {
			require.NoError(t, manager.MakeMove(move.connID, entity.MoveCommand{RoomCode: code, Index: cell(move.cell)}))
		}

		rec.On("Record", mock.MatchedBy(func(result entity.RoomResult) bool {
			return result.Code == code && result.GamesPlayed == 1 && result.Scores.X == 1
		})).Return().Once()

		manager.Leave("A")
		manager.Leave("B")

		rec.AssertExpectations(t)
	})

	t.Run("Joiner after a departure takes the free symbol", func(t *testing.T) {
		manager, notifier, _ := newTestManager(t)
		code := startGame(t, manager, notifier, "A", "B")

		manager.Leave("A")
		notifier.take()

		require.NoError(t, manager.JoinRoom("C", code))

		snapshot, err := manager.Snapshot(code)
		require.NoError(t, err)
		require.Len(t, snapshot.Players, 2)
		assert.Equal(t, tictactoe.PlayerO, snapshot.Players[0].Symbol)
		assert.Equal(t, tictactoe.PlayerX, snapshot.Players[1].Symbol)
	})
}

func TestRoomManager_ConcurrentMoves(t *testing.T) {
	manager, notifier, _ := newTestManager(t)
	code := startGame(t, manager, notifier, "A", "B")

	// Given: X races itself for two cells
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = manager.MakeMove("A", entity.MoveCommand{RoomCode: code, Index: cell(i)})
		}()
	}
	wg.Wait()

	// Then: exactly one lands
	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)

	snapshot, err := manager.Snapshot(code)
	require.NoError(t, err)
	assert.Len(t, snapshot.Board.EmptyCells(), 8)
}
