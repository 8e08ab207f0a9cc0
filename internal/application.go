package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application until SIGINT/SIGTERM or a server failure.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var (
		recorder interface{ Record(entity.RoomResult) } = usecase.NopRecorder{}
		results  repository.ResultRepository
		workers  sync.WaitGroup
	)

	// the recorder stops on its own context so it can drain after the servers are down
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	if conf.Redis.Enabled {
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return ErrAddrNotFound
		}

		redisStorage, err := storage.New(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		results = repository.NewResultRepository(redisStorage, conf.Redis.ResultsKey, conf.Redis.ResultsLimit)
		resultRecorder := usecase.NewResultRecorder(logger, results, conf.Redis.RecordBuffer)
		recorder = resultRecorder

		workers.Add(1)
		go func() {
			defer workers.Done()
			resultRecorder.Run(workerCtx)
		}()

		log.Info("Result ledger enabled", "addr", redisAddrString)
	}

	hub := websocket.NewHub(logger)
	roomStore := repository.NewRoomStore(pkg.NewRoomCodeGenerator(), conf.Rooms.MaxCodeAttempts)
	roomManager := usecase.NewRoomManager(logger, roomStore, hub, recorder)

	wsServer := websocket.New(logger, hub, roomManager, websocket.Options{
		SendBuffer:     conf.WebSocket.SendBuffer,
		WriteWait:      conf.WebSocket.WriteWait,
		PongWait:       conf.WebSocket.PongWait,
		PingPeriod:     conf.WebSocket.PingPeriod,
		MaxMessageSize: conf.WebSocket.MaxMessageSize,
		AllowedOrigins: conf.WebSocket.AllowedOrigins,
	})

	routerConf := rest.RouterConfig{
		Logger:    logger,
		Rooms:     roomManager,
		WebSocket: wsServer,
		StaticDir: conf.StaticDir,
	}
	if results != nil {
		routerConf.Results = results
	}

	httpServer := rest.NewServer(conf.HTTPPort, rest.NewRouter(routerConf))

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		httpErrCh <- httpServer.Start()
	}()

	var runErr error
	select {
	case err := <-httpErrCh:
		if err != nil {
			log.Error("HTTP server error", "error", err)
			runErr = fmt.Errorf("HTTP server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("could not shutdown HTTP server", "error", err)
	}

	// hijacked connections are not closed by Shutdown
	hub.CloseAll()
	if err := wsServer.Wait(shutdownCtx); err != nil {
		log.Warn("connections did not close in time", "error", err)
	}

	stopWorkers()
	workers.Wait()

	log.Info("Stopped", "openRooms", roomManager.RoomCount())

	return runErr
}
