package entity

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	IsHost bool   `json:"isHost,omitempty"`
}
