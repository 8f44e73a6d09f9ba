package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/testing/suite"
)

func TestRoomRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	roomRepo := NewRoomRepository(st.Storage)

	// Given: a room with a player and a game in progress
	room := entity.NewRoom("room-123", "duel", nil)
	room.Players = []*entity.Player{{ID: "p1", Name: "alice", Role: entity.PlayerBlack, IsHost: true}}
	room.HostID = "p1"
	room.Game.Status = entity.StatusPlaying
	room.Game.Board[7][7] = entity.PlayerBlack

	// When: CreateOrUpdate is called
	err := roomRepo.CreateOrUpdate(ctx, room)

	// Then: no error should be returned
	require.NoError(t, err)
}

func TestRoomRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage)

		// Given: a stored room snapshot
		room := entity.NewRoom("room-123", "duel", nil)
		room.Players = []*entity.Player{{ID: "p1", Name: "alice", Role: entity.PlayerBlack, IsHost: true}}
		room.HostID = "p1"
		room.Game.Status = entity.StatusPlaying
		room.Game.Board[7][7] = entity.PlayerBlack
		room.Messages = []entity.Message{{SenderID: "p1", SenderName: "alice", Text: "hi"}}

		err := roomRepo.CreateOrUpdate(ctx, room)
		require.NoError(t, err)

		// When: GetByID is called with the existing ID
		retrieved, err := roomRepo.GetByID(ctx, room.ID)

		// Then: the snapshot round-trips
		require.NoError(t, err)
		assert.Equal(t, room.ID, retrieved.ID)
		assert.Equal(t, room.HostID, retrieved.HostID)
		assert.Equal(t, entity.StatusPlaying, retrieved.Game.Status)
		assert.Equal(t, entity.PlayerBlack, retrieved.Game.Board[7][7])
		require.Len(t, retrieved.Players, 1)
		assert.Equal(t, "alice", retrieved.Players[0].Name)
		require.Len(t, retrieved.Messages, 1)
		assert.Equal(t, "hi", retrieved.Messages[0].Text)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage)

		// When: GetByID is called with an unknown ID
		_, err := roomRepo.GetByID(ctx, "no-such-room")

		// Then: ErrRoomNotFound should be returned
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})
}

func TestRoomRepository_DeleteByID(t *testing.T) {
	ctx, st := suite.New(t)

	roomRepo := NewRoomRepository(st.Storage)

	// Given: a stored room snapshot
	room := entity.NewRoom("room-123", "duel", nil)
	err := roomRepo.CreateOrUpdate(ctx, room)
	require.NoError(t, err)

	// When: DeleteByID is called
	err = roomRepo.DeleteByID(ctx, room.ID)

	// Then: the snapshot is gone
	require.NoError(t, err)
	_, err = roomRepo.GetByID(ctx, room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
