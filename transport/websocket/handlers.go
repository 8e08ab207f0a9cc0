package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	errMsgRoomNotFound = "Room not found"
	errMsgRoomFull     = "Room is full"
)

func (that *Server) handleCreateRoom(c *client, _ *Message) error {
	if _, err := that.manager.CreateRoom(c.id); err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

// handleJoinRoom is the only command whose failures reach the client.
func (that *Server) handleJoinRoom(c *client, msg *Message) error {
	log := that.logger.With("method", "handleJoinRoom", "connID", c.id)

	code, err := decodeRoomCode(msg)
	if err != nil {
		log.Warn("bad join_room payload", "error", err)
		that.hub.Notify(c.id, entity.ErrorEvent(errMsgRoomNotFound))
		return nil
	}

	err = that.manager.JoinRoom(c.id, code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperror.ErrRoomFull):
		that.hub.Notify(c.id, entity.ErrorEvent(errMsgRoomFull))
	case errors.Is(err, apperror.ErrRoomNotFound):
		that.hub.Notify(c.id, entity.ErrorEvent(errMsgRoomNotFound))
	default:
		return fmt.Errorf("failed to join room: %w", err)
	}

	log.Info("join refused", "roomCode", code, "reason", err)

	return nil
}

func (that *Server) handleMakeMove(c *client, msg *Message) error {
	var cmd entity.MoveCommand
	if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
		that.dropped(c, msg, err)
		return nil
	}

	if err := that.manager.MakeMove(c.id, cmd); err != nil {
		that.dropped(c, msg, err)
	}

	return nil
}

func (that *Server) handleRequestRestart(c *client, msg *Message) error {
	code, err := decodeRoomCode(msg)
	if err == nil {
		err = that.manager.RequestRestart(c.id, code)
	}

	if err != nil {
		that.dropped(c, msg, err)
	}

	return nil
}

func (that *Server) handleRejectRestart(c *client, msg *Message) error {
	code, err := decodeRoomCode(msg)
	if err == nil {
		err = that.manager.RejectRestart(c.id, code)
	}

	if err != nil {
		that.dropped(c, msg, err)
	}

	return nil
}

func (that *Server) handleLeaveRoom(c *client, _ *Message) error {
	that.manager.Leave(c.id)

	return nil
}

// dropped logs a command that was ignored. Nothing is sent back to the client.
func (that *Server) dropped(c *client, msg *Message, err error) {
	that.logger.Debug("command dropped",
		"connID", c.id,
		"action", msg.Action,
		"reason", err,
	)
}
