package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	DefaultRecordBuffer = 64
	drainTimeout        = 5 * time.Second
)

type resultRepo interface {
	Save(ctx context.Context, result entity.RoomResult) error
}

// ResultRecorder persists room results off the command path. Record never blocks; when the
// queue is full the result is dropped and logged.
type ResultRecorder struct {
	logger *slog.Logger
	repo   resultRepo
	queue  chan entity.RoomResult
}

func NewResultRecorder(logger *slog.Logger, repo resultRepo, buffer int) *ResultRecorder {
	if buffer <= 0 {
		buffer = DefaultRecordBuffer
	}

	return &ResultRecorder{
		logger: logger,
		repo:   repo,
		queue:  make(chan entity.RoomResult, buffer),
	}
}

func (that *ResultRecorder) Record(result entity.RoomResult) {
	select {
	case that.queue <- result:
	default:
		that.logger.Warn("result queue is full, dropping result", "method", "Record", "roomCode", result.Code)
	}
}

// Run saves queued results until ctx is done, then flushes what is still queued.
func (that *ResultRecorder) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	for {
		select {
		case result := <-that.queue:
			that.save(ctx, result)
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
			that.drain(drainCtx)
			cancel()

			log.Info("result recorder stopped")

			return
		}
	}
}

func (that *ResultRecorder) drain(ctx context.Context) {
	for {
		select {
		case result := <-that.queue:
			that.save(ctx, result)
		default:
			return
		}
	}
}

func (that *ResultRecorder) save(ctx context.Context, result entity.RoomResult) {
	if err := that.repo.Save(ctx, result); err != nil {
		that.logger.Error("failed to save room result", "method", "save", "roomCode", result.Code, "error", err)
		return
	}

	that.logger.Debug("room result saved", "roomCode", result.Code, "gamesPlayed", result.GamesPlayed)
}

// NopRecorder discards results. It is used when no result ledger is configured.
type NopRecorder struct{}

func (NopRecorder) Record(entity.RoomResult) {}
