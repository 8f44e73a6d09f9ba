package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/session"
)

// handleConnect - binds a name to the connection and, when the client
// presents the player id of a dropped connection, resumes that identity
// together with any pending room binding.
func (that *Server) handleConnect(_ context.Context, c *client, msg *Message) error {
	var req connectRequest
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	if req.PlayerName != "" {
		c.setPlayerName(req.PlayerName)
	}

	resumed := false
	if req.PlayerID != "" {
		resumed = that.rebind(c, req.PlayerID)
	}

	c.enqueue(msg.Action, ackPayload{PlayerID: c.playerID(), RoomID: c.room(), Success: true})

	if !resumed {
		c.enqueue("updateRoomList", that.lobby.ListRooms())
		return nil
	}

	existing, err := that.lobby.GetRoom(c.room())
	if err != nil {
		c.setRoom("")
		c.enqueue("updateRoomList", that.lobby.ListRooms())
		return nil
	}

	snapshot := existing.Snapshot()
	c.enqueue("playersUpdate", snapshot.Players)
	c.enqueue("gameStateUpdate", snapshot.Game)

	return nil
}

func (that *Server) handleListRooms(_ context.Context, c *client, msg *Message) error {
	c.enqueue("updateRoomList", that.lobby.ListRooms())
	return nil
}

// handleCreateRoom - allocates a room with this client as its host.
func (that *Server) handleCreateRoom(_ context.Context, c *client, msg *Message) error {
	var req createRoomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if req.PlayerName != "" {
		c.setPlayerName(req.PlayerName)
	}

	host := &entity.Player{ID: c.playerID(), Name: c.playerName()}

	created, err := that.lobby.CreateRoom(host, req.RoomName, req.Password)
	if err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return fmt.Errorf("failed to create room: %w", err)
	}

	c.setRoom(created.ID())
	c.enqueue(msg.Action, ackPayload{
		PlayerID:   host.ID,
		RoomID:     created.ID(),
		PlayerRole: host.Role,
		Success:    true,
	})

	return nil
}

// handleJoinRoom - adds this client to an existing room on the remaining
// side.
func (that *Server) handleJoinRoom(_ context.Context, c *client, msg *Message) error {
	var req joinRoomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if req.PlayerName != "" {
		c.setPlayerName(req.PlayerName)
	}

	existing, err := that.lobby.GetRoom(req.RoomID)
	if err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return fmt.Errorf("failed to find room: %w", err)
	}

	player := &entity.Player{ID: c.playerID(), Name: c.playerName()}

	role, err := existing.Join(player, req.Password)
	if err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return fmt.Errorf("failed to join room: %w", err)
	}

	c.setRoom(req.RoomID)
	c.enqueue(msg.Action, ackPayload{
		PlayerID:   player.ID,
		RoomID:     req.RoomID,
		PlayerRole: role,
		Success:    true,
	})

	return nil
}

// handleLeaveRoom - removes this client from its room. The binding is
// cleared before the departure so the disconnect path cannot produce a
// second leave.
func (that *Server) handleLeaveRoom(_ context.Context, c *client, msg *Message) error {
	roomID := c.room()
	if roomID == "" {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(apperror.ErrNotInRoom)})
		return apperror.ErrNotInRoom
	}

	c.setRoom("")

	existing, err := that.lobby.GetRoom(roomID)
	if err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return fmt.Errorf("failed to find room: %w", err)
	}

	if _, err = existing.Leave(c.playerID()); err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return fmt.Errorf("failed to leave room: %w", err)
	}

	c.enqueue(msg.Action, ackPayload{Success: true})
	c.enqueue("updateRoomList", that.lobby.ListRooms())

	return nil
}

func (that *Server) handleStartGame(_ context.Context, c *client, msg *Message) error {
	existing, err := that.roomFor(c, msg)
	if err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return err
	}

	if err = existing.Start(c.playerID()); err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return fmt.Errorf("failed to start game: %w", err)
	}

	c.enqueue(msg.Action, ackPayload{Success: true})

	return nil
}

func (that *Server) handlePlacePiece(_ context.Context, c *client, msg *Message) error {
	var req placePieceRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	existing, err := that.lobby.GetRoom(req.RoomID)
	if err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return fmt.Errorf("failed to find room: %w", err)
	}

	if err = existing.PlacePiece(c.playerID(), req.Row, req.Col); err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return fmt.Errorf("failed to place piece: %w", err)
	}

	return nil
}

func (that *Server) handleRequestRestart(_ context.Context, c *client, msg *Message) error {
	existing, err := that.roomFor(c, msg)
	if err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return err
	}

	if err = existing.RequestRestart(c.playerID()); err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return fmt.Errorf("failed to request restart: %w", err)
	}

	c.enqueue(msg.Action, ackPayload{Success: true})

	return nil
}

func (that *Server) handleSendMessage(_ context.Context, c *client, msg *Message) error {
	var req sendMessageRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	existing, err := that.lobby.GetRoom(req.RoomID)
	if err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return fmt.Errorf("failed to find room: %w", err)
	}

	if err = existing.SendChat(c.playerID(), req.Message); err != nil {
		c.enqueue(msg.Action, ackPayload{Error: errorCode(err)})
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// roomFor - resolves the room a request targets, preferring the explicit
// roomId and falling back to the connection's binding.
func (that *Server) roomFor(c *client, msg *Message) (*session.Session, error) {
	var req roomRequest
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	roomID := req.RoomID
	if roomID == "" {
		roomID = c.room()
	}
	if roomID == "" {
		return nil, apperror.ErrNotInRoom
	}

	existing, err := that.lobby.GetRoom(roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	return existing, nil
}

// errorCode - maps a session error to the short rejection code carried in
// the ack payload.
func errorCode(err error) string {
	switch {
	case errors.Is(err, apperror.ErrRoomNotFound):
		return "RoomNotFound"
	case errors.Is(err, apperror.ErrRoomFull):
		return "RoomFull"
	case errors.Is(err, apperror.ErrBadPassword):
		return "BadPassword"
	case errors.Is(err, apperror.ErrNotHost):
		return "NotHost"
	case errors.Is(err, apperror.ErrNotInRoom):
		return "NotInRoom"
	case errors.Is(err, apperror.ErrGameIsNotStarted):
		return "GameNotStarted"
	case errors.Is(err, apperror.ErrGameFinished):
		return "GameFinished"
	case errors.Is(err, apperror.ErrGameNotFinished):
		return "GameNotFinished"
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "NotYourTurn"
	case errors.Is(err, apperror.ErrCellOccupied):
		return "CellOccupied"
	case errors.Is(err, apperror.ErrInvalidCell):
		return "InvalidCell"
	default:
		return "Internal"
	}
}
