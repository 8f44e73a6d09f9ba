package registry

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// memoryStore keeps snapshots in a map, standing in for the redis
// repository.
type memoryStore struct {
	mu    sync.Mutex
	rooms map[string]*entity.Room
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rooms: make(map[string]*entity.Room)}
}

func (that *memoryStore) CreateOrUpdate(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.rooms[room.ID] = room
	return nil
}

func (that *memoryStore) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, id)
	return nil
}

func (that *memoryStore) has(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.rooms[id]
	return ok
}

// nullGateway swallows events and counts lobby broadcasts.
type nullGateway struct {
	mu         sync.Mutex
	broadcasts int
}

func (that *nullGateway) Send(string, string, any) {}

func (that *nullGateway) BroadcastLobby([]entity.RoomInfo) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.broadcasts++
}

func (that *nullGateway) broadcastCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.broadcasts
}

func newTestRegistry(t *testing.T) (*Registry, *memoryStore, *nullGateway) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newMemoryStore()
	gateway := &nullGateway{}

	rooms := New(context.Background(), logger, store, 60)
	rooms.Attach(gateway)

	return rooms, store, gateway
}

func TestRegistry_CreateRoom(t *testing.T) {
	t.Run("Creator becomes host on black and the room is persisted", func(t *testing.T) {
		rooms, store, gateway := newTestRegistry(t)

		// When: a player creates a room
		host := &entity.Player{ID: "p1", Name: "alice"}
		created, err := rooms.CreateRoom(host, "duel", "")

		// Then: the host holds black, the snapshot is stored and the lobby refreshed
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerBlack, host.Role)
		assert.True(t, host.IsHost)

		snapshot := created.Snapshot()
		assert.Equal(t, "p1", snapshot.HostID)
		assert.False(t, snapshot.HasPassword())

		assert.True(t, store.has(created.ID()))
		assert.Positive(t, gateway.broadcastCount())
	})

	t.Run("Password is stored as a hash that verifies", func(t *testing.T) {
		rooms, _, _ := newTestRegistry(t)

		created, err := rooms.CreateRoom(&entity.Player{ID: "p1", Name: "alice"}, "locked", "s3cret")
		require.NoError(t, err)

		snapshot := created.Snapshot()
		assert.True(t, snapshot.HasPassword())
		assert.True(t, snapshot.CheckPassword("s3cret"))
		assert.False(t, snapshot.CheckPassword("wrong"))
	})
}

func TestRegistry_GetRoom(t *testing.T) {
	t.Run("Finds a created room", func(t *testing.T) {
		rooms, _, _ := newTestRegistry(t)

		created, err := rooms.CreateRoom(&entity.Player{ID: "p1", Name: "alice"}, "duel", "")
		require.NoError(t, err)

		found, err := rooms.GetRoom(created.ID())

		require.NoError(t, err)
		assert.Same(t, created, found)
	})

	t.Run("Unknown ID is rejected", func(t *testing.T) {
		rooms, _, _ := newTestRegistry(t)

		_, err := rooms.GetRoom("no-such-room")

		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestRegistry_ListRooms(t *testing.T) {
	t.Run("Lists rooms ordered by name", func(t *testing.T) {
		rooms, _, _ := newTestRegistry(t)

		_, err := rooms.CreateRoom(&entity.Player{ID: "p1", Name: "alice"}, "zebra", "")
		require.NoError(t, err)
		_, err = rooms.CreateRoom(&entity.Player{ID: "p2", Name: "bob"}, "alpha", "")
		require.NoError(t, err)

		listed := rooms.ListRooms()

		require.Len(t, listed, 2)
		assert.Equal(t, "alpha", listed[0].RoomName)
		assert.Equal(t, "zebra", listed[1].RoomName)
		assert.Equal(t, 1, listed[0].PlayerCount)
	})

	t.Run("Empty registry lists nothing", func(t *testing.T) {
		rooms, _, _ := newTestRegistry(t)

		assert.Empty(t, rooms.ListRooms())
	})
}

func TestRegistry_RemoveRoom(t *testing.T) {
	t.Run("Removes the session and its snapshot", func(t *testing.T) {
		rooms, store, _ := newTestRegistry(t)

		created, err := rooms.CreateRoom(&entity.Player{ID: "p1", Name: "alice"}, "duel", "")
		require.NoError(t, err)
		roomID := created.ID()

		// When: the room is removed
		rooms.RemoveRoom(roomID)

		// Then: lookups fail and the snapshot is gone
		_, err = rooms.GetRoom(roomID)
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.False(t, store.has(roomID))
	})

	t.Run("Removing twice is harmless", func(t *testing.T) {
		rooms, _, _ := newTestRegistry(t)

		created, err := rooms.CreateRoom(&entity.Player{ID: "p1", Name: "alice"}, "duel", "")
		require.NoError(t, err)

		rooms.RemoveRoom(created.ID())
		rooms.RemoveRoom(created.ID())
	})
}

func TestRegistry_EmptiedRoomIsRemoved(t *testing.T) {
	t.Run("Room tears itself down when the last player leaves", func(t *testing.T) {
		rooms, store, _ := newTestRegistry(t)

		created, err := rooms.CreateRoom(&entity.Player{ID: "p1", Name: "alice"}, "duel", "")
		require.NoError(t, err)
		roomID := created.ID()

		// When: the only player leaves
		empty, err := created.Leave("p1")

		// Then: the registry and the store both forget the room
		require.NoError(t, err)
		assert.True(t, empty)

		_, err = rooms.GetRoom(roomID)
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.False(t, store.has(roomID))
	})
}
