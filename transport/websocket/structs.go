package websocket

import "encoding/json"

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type connectRequest struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type createRoomRequest struct {
	PlayerName string `json:"playerName"`
	RoomName   string `json:"roomName"`
	Password   string `json:"password"`
}

type joinRoomRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Password   string `json:"password"`
}

type placePieceRequest struct {
	RoomID string `json:"roomId"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Player string `json:"player"`
}

type roomRequest struct {
	RoomID string `json:"roomId"`
}

type sendMessageRequest struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// ackPayload is the direct reply to a client request. Error carries one of
// the short rejection codes (RoomFull, BadPassword, ...) when the intent
// was refused.
type ackPayload struct {
	PlayerID   string `json:"playerId,omitempty"`
	RoomID     string `json:"roomId,omitempty"`
	PlayerRole string `json:"playerRole,omitempty"`
	Success    bool   `json:"success,omitempty"`
	Error      string `json:"error,omitempty"`
}
