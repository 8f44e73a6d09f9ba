package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/session"
)

// roomStore persists room snapshots; the redis repository implements it.
type roomStore interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	DeleteByID(ctx context.Context, id string) error
}

// Gateway is the transport side of the registry: it delivers session
// events to individual players and room-list updates to the lobby.
type Gateway interface {
	session.Sink
	BroadcastLobby(rooms []entity.RoomInfo)
}

// Registry is the process-wide table of live sessions. Creation, lookup
// and removal are serialized; listing works on a snapshot.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*session.Session

	gateway     Gateway
	store       roomStore
	turnSeconds int

	ctx context.Context
}

func New(ctx context.Context, logger *slog.Logger, store roomStore, turnSeconds int) *Registry {
	return &Registry{
		logger:      logger.With("component", "registry"),
		sessions:    make(map[string]*session.Session),
		store:       store,
		turnSeconds: turnSeconds,
		ctx:         ctx,
	}
}

// Attach - wires the transport in. Must be called once before any room
// operation; the gateway and registry reference each other, so the hookup
// happens after both are constructed.
func (that *Registry) Attach(gateway Gateway) {
	that.gateway = gateway
}

// CreateRoom - allocates a room with the creator as host on the black
// side. An empty password leaves the room open.
func (that *Registry) CreateRoom(host *entity.Player, roomName, password string) (*session.Session, error) {
	var passwordHash []byte
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash room password: %w", err)
		}
		passwordHash = hash
	}

	room := entity.NewRoom(uuid.NewString(), roomName, passwordHash)
	host.Role = entity.PlayerBlack
	host.IsHost = true
	room.Players = []*entity.Player{host}
	room.HostID = host.ID

	newSession := session.New(that.logger, room, that.gateway, session.Options{
		TurnSeconds: that.turnSeconds,
		OnChange:    that.roomChanged,
		OnEmpty:     that.RemoveRoom,
	})

	that.mu.Lock()
	that.sessions[room.ID] = newSession
	that.mu.Unlock()

	that.logger.Info("room created", "roomID", room.ID, "hostID", host.ID)
	that.roomChanged(room)

	return newSession, nil
}

func (that *Registry) GetRoom(id string) (*session.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	existing, ok := that.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, id)
	}

	return existing, nil
}

// ListRooms - returns a point-in-time summary of every live room, ordered
// by name for a stable lobby view. Passwords never appear in the listing.
func (that *Registry) ListRooms() []entity.RoomInfo {
	that.mu.RLock()
	sessions := make([]*session.Session, 0, len(that.sessions))
	for _, existing := range that.sessions {
		sessions = append(sessions, existing)
	}
	that.mu.RUnlock()

	rooms := make([]entity.RoomInfo, 0, len(sessions))
	for _, existing := range sessions {
		rooms = append(rooms, existing.Info())
	}

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].RoomName != rooms[j].RoomName {
			return rooms[i].RoomName < rooms[j].RoomName
		}
		return rooms[i].RoomID < rooms[j].RoomID
	})

	return rooms
}

// RemoveRoom - drops a session from the table and deletes its snapshot.
// Sessions call this through OnEmpty once their roster empties.
func (that *Registry) RemoveRoom(id string) {
	that.mu.Lock()
	existing, ok := that.sessions[id]
	if ok {
		delete(that.sessions, id)
	}
	that.mu.Unlock()

	if !ok {
		return
	}

	existing.Close()

	if err := that.store.DeleteByID(that.ctx, id); err != nil {
		that.logger.Error("failed to delete room snapshot", "roomID", id, "error", err)
	}

	that.logger.Info("room removed", "roomID", id)
	that.broadcastLobby()
}

// roomChanged - write-through of the room snapshot plus a lobby refresh.
// Invoked by sessions after every committed roster or status change.
func (that *Registry) roomChanged(room *entity.Room) {
	if err := that.store.CreateOrUpdate(that.ctx, room); err != nil {
		that.logger.Error("failed to save room snapshot", "roomID", room.ID, "error", err)
	}

	that.broadcastLobby()
}

func (that *Registry) broadcastLobby() {
	if that.gateway == nil {
		return
	}

	that.gateway.BroadcastLobby(that.ListRooms())
}
