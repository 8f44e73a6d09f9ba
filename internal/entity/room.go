package entity

import "golang.org/x/crypto/bcrypt"

const MaxRoomPlayers = 2

type Room struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	PasswordHash []byte          `json:"passwordHash,omitempty"`
	Game         *Game           `json:"game"`
	Players      []*Player       `json:"players"`
	HostID       string          `json:"hostId"`
	RestartVotes map[string]bool `json:"restartVotes,omitempty"`
	Messages     []Message       `json:"messages,omitempty"`
}

// Message is a single chat line, scoped to its room and kept only for the
// life of the process.
type Message struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
}

func NewRoom(id, name string, passwordHash []byte) *Room {
	return &Room{
		ID:           id,
		Name:         name,
		PasswordHash: passwordHash,
		Game:         NewGame(),
		RestartVotes: make(map[string]bool),
	}
}

func (that *Room) HasPassword() bool {
	return len(that.PasswordHash) > 0
}

// CheckPassword - compares a join attempt against the room's stored hash.
// Rooms without a password accept any input.
func (that *Room) CheckPassword(password string) bool {
	if !that.HasPassword() {
		return true
	}

	return bcrypt.CompareHashAndPassword(that.PasswordHash, []byte(password)) == nil
}

func (that *Room) IsFull() bool {
	return len(that.Players) >= MaxRoomPlayers
}

func (that *Room) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}
	return nil
}

func (that *Room) PlayerByRole(role string) *Player {
	for _, player := range that.Players {
		if player.Role == role {
			return player
		}
	}
	return nil
}

// Opponent - returns the other roster member, or nil for a lone player.
func (that *Room) Opponent(playerID string) *Player {
	for _, player := range that.Players {
		if player.ID != playerID {
			return player
		}
	}
	return nil
}

func (that *Room) Host() *Player {
	return that.PlayerByID(that.HostID)
}

func (that *Room) HostName() string {
	if host := that.Host(); host != nil {
		return host.Name
	}
	return ""
}

// TakenRole - returns the role already claimed by the roster, or empty
// when the room is empty.
func (that *Room) TakenRole() string {
	for _, player := range that.Players {
		return player.Role
	}
	return ""
}

// AllVotedRestart - reports whether every current roster member has asked
// for a restart.
func (that *Room) AllVotedRestart() bool {
	if len(that.Players) == 0 {
		return false
	}

	for _, player := range that.Players {
		if !that.RestartVotes[player.Role] {
			return false
		}
	}

	return true
}

// RoomInfo is the lobby-facing summary of a room. It never carries the
// password or its hash.
type RoomInfo struct {
	RoomID      string `json:"roomId"`
	RoomName    string `json:"roomName"`
	PlayerCount int    `json:"playerCount"`
	HasPassword bool   `json:"hasPassword"`
	HostName    string `json:"hostName"`
	Status      string `json:"status"`
}

func (that *Room) Info() RoomInfo {
	return RoomInfo{
		RoomID:      that.ID,
		RoomName:    that.Name,
		PlayerCount: len(that.Players),
		HasPassword: that.HasPassword(),
		HostName:    that.HostName(),
		Status:      that.Game.Status,
	}
}
