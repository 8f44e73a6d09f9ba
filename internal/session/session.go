package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Sink delivers a named event to one connected player. The websocket
// gateway implements it; tests substitute a recorder.
type Sink interface {
	Send(playerID, action string, payload any)
}

const (
	actionPlayersUpdate            = "playersUpdate"
	actionOpponentJoined           = "opponentJoined"
	actionGameStart                = "gameStart"
	actionGameStateUpdate          = "gameStateUpdate"
	actionTimerUpdate              = "timerUpdate"
	actionTimeout                  = "timeout"
	actionOpponentLeft             = "opponentLeft"
	actionOpponentRequestedRestart = "opponentRequestedRestart"
	actionGameRestarted            = "gameRestarted"
	actionNewMessage               = "newMessage"
)

// Session is the authoritative owner of one room. Every operation against
// the room's state - joins, moves, restarts, chat, departures and timer
// expiry - serializes through the session mutex, so no two of them ever
// observe a half-applied board or roster. The OnChange and OnEmpty hooks
// run after the mutex is released; they may call back into the session.
type Session struct {
	logger *slog.Logger

	mu   sync.Mutex
	room *entity.Room

	sink        Sink
	timer       *TurnTimer
	turnSeconds int

	onChange func(room *entity.Room)
	onEmpty  func(roomID string)
}

// Options carry the registry-level hooks and tunables for a session.
type Options struct {
	TurnSeconds int

	// OnChange is invoked after every committed roster or status change
	// with a snapshot of the room.
	OnChange func(room *entity.Room)

	// OnEmpty is invoked once the roster has emptied and the session
	// should be torn down.
	OnEmpty func(roomID string)
}

func New(logger *slog.Logger, room *entity.Room, sink Sink, opts Options) *Session {
	session := &Session{
		logger:      logger.With("component", "session", "roomID", room.ID),
		room:        room,
		sink:        sink,
		turnSeconds: opts.TurnSeconds,
		onChange:    opts.OnChange,
		onEmpty:     opts.OnEmpty,
	}

	if session.onChange == nil {
		session.onChange = func(*entity.Room) {}
	}
	if session.onEmpty == nil {
		session.onEmpty = func(string) {}
	}

	session.timer = NewTurnTimer(session.handleTick, session.handleExpiry)

	return session
}

func (that *Session) ID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.room.ID
}

// Info - returns the lobby summary of the room.
func (that *Session) Info() entity.RoomInfo {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.room.Info()
}

// Snapshot - returns a deep copy of the room state, safe to serialize or
// inspect outside the session mutex.
func (that *Session) Snapshot() *entity.Room {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshotLocked()
}

// Join - adds a player to the roster, assigning the remaining role. The
// room's first member plays black; a joiner takes whatever side is left.
func (that *Session) Join(player *entity.Player, password string) (string, error) {
	role, snapshot, err := that.joinLocked(player, password)
	if err != nil {
		return "", err
	}

	if snapshot != nil {
		that.onChange(snapshot)
	}

	return role, nil
}

func (that *Session) joinLocked(player *entity.Player, password string) (string, *entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if existing := that.room.PlayerByID(player.ID); existing != nil {
		return existing.Role, nil, nil
	}

	if that.room.IsFull() {
		return "", nil, apperror.ErrRoomFull
	}

	if !that.room.CheckPassword(password) {
		return "", nil, apperror.ErrBadPassword
	}

	if taken := that.room.TakenRole(); taken != "" {
		player.Role = entity.OpposingPlayer(taken)
		player.IsHost = false
	} else {
		player.Role = entity.PlayerBlack
		player.IsHost = true
		that.room.HostID = player.ID
	}

	that.room.Players = append(that.room.Players, player)

	that.broadcastLocked(actionPlayersUpdate, that.playersLocked())
	if opponent := that.room.Opponent(player.ID); opponent != nil {
		that.sink.Send(opponent.ID, actionOpponentJoined, nil)
	}

	that.logger.Info("player joined", "playerID", player.ID, "role", player.Role)

	return player.Role, that.snapshotLocked(), nil
}

// Start - moves the room from waiting to playing. Host only, and only
// with a full roster. Arms the turn timer for black.
func (that *Session) Start(playerID string) error {
	snapshot, err := that.startLocked(playerID)
	if err != nil {
		return err
	}

	that.onChange(snapshot)

	return nil
}

func (that *Session) startLocked(playerID string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.room.HostID != playerID {
		return nil, apperror.ErrNotHost
	}

	if !that.room.Game.IsWaiting() || !that.room.IsFull() {
		return nil, apperror.ErrGameIsNotStarted
	}

	that.room.Game.Status = entity.StatusPlaying
	that.room.Game.Turn = entity.PlayerBlack

	that.broadcastLocked(actionGameStart, nil)
	that.broadcastLocked(actionGameStateUpdate, that.room.Game)
	that.timer.Arm(that.turnSeconds)

	that.logger.Info("game started")

	return that.snapshotLocked(), nil
}

// PlacePiece - applies a move for the given player. Rejections leave the
// board untouched and are reported to the caller only; nothing is
// broadcast for a rejected intent.
func (that *Session) PlacePiece(playerID string, row, col int) error {
	snapshot, err := that.placePieceLocked(playerID, row, col)
	if err != nil {
		return err
	}

	that.onChange(snapshot)

	return nil
}

func (that *Session) placePieceLocked(playerID string, row, col int) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player := that.room.PlayerByID(playerID)
	if player == nil {
		return nil, apperror.ErrNotInRoom
	}

	game := that.room.Game

	switch {
	case game.IsWaiting():
		return nil, apperror.ErrGameIsNotStarted
	case game.IsFinished():
		return nil, apperror.ErrGameFinished
	}

	if row < 0 || row >= entity.BoardSize || col < 0 || col >= entity.BoardSize {
		return nil, apperror.ErrInvalidCell
	}

	if game.Turn != player.Role {
		return nil, apperror.ErrNotYourTurn
	}

	if game.Board[row][col] != entity.EmptyCell {
		return nil, apperror.ErrCellOccupied
	}

	game.ApplyMove(player.Role, row, col)

	that.broadcastLocked(actionGameStateUpdate, game)

	if game.IsFinished() {
		that.timer.Stop()
		that.logger.Info("game finished", "winner", game.Winner)
	} else {
		that.timer.Arm(that.turnSeconds)
	}

	return that.snapshotLocked(), nil
}

// RequestRestart - records one player's consent to a rematch. The restart
// commits only once every roster member has asked for it; the sides swap
// and black opens again.
func (that *Session) RequestRestart(playerID string) error {
	snapshot, err := that.requestRestartLocked(playerID)
	if err != nil {
		return err
	}

	if snapshot != nil {
		that.onChange(snapshot)
	}

	return nil
}

func (that *Session) requestRestartLocked(playerID string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player := that.room.PlayerByID(playerID)
	if player == nil {
		return nil, apperror.ErrNotInRoom
	}

	if !that.room.Game.IsFinished() {
		return nil, apperror.ErrGameNotFinished
	}

	if that.room.RestartVotes[player.Role] {
		return nil, nil
	}
	that.room.RestartVotes[player.Role] = true

	if !that.room.AllVotedRestart() {
		if opponent := that.room.Opponent(playerID); opponent != nil {
			that.sink.Send(opponent.ID, actionOpponentRequestedRestart, nil)
		}
		return nil, nil
	}

	for _, member := range that.room.Players {
		member.Role = entity.OpposingPlayer(member.Role)
	}
	that.room.RestartVotes = make(map[string]bool)
	that.room.Game.Reset()

	that.broadcastLocked(actionGameRestarted, restartedPayload{Players: that.playersLocked()})
	that.broadcastLocked(actionGameStateUpdate, that.room.Game)
	that.timer.Arm(that.turnSeconds)

	that.logger.Info("game restarted with swapped roles")

	return that.snapshotLocked(), nil
}

// SendChat - appends a chat line and fans it out to the roster.
func (that *Session) SendChat(playerID, text string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	player := that.room.PlayerByID(playerID)
	if player == nil {
		return apperror.ErrNotInRoom
	}

	message := entity.Message{
		SenderID:   player.ID,
		SenderName: player.Name,
		Text:       text,
	}
	that.room.Messages = append(that.room.Messages, message)

	that.broadcastLocked(actionNewMessage, message)

	return nil
}

// Leave - removes a player from the roster and reports whether the room
// emptied. A departure mid-match cancels the timer and reverts the room to
// a fresh waiting state; the survivor is promoted to host and takes the
// black side for any following match.
func (that *Session) Leave(playerID string) (bool, error) {
	empty, snapshot, err := that.leaveLocked(playerID)
	if err != nil {
		return false, err
	}

	if empty {
		that.onEmpty(snapshot.ID)
		return true, nil
	}

	that.onChange(snapshot)

	return false, nil
}

func (that *Session) leaveLocked(playerID string) (bool, *entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player := that.room.PlayerByID(playerID)
	if player == nil {
		return false, nil, apperror.ErrNotInRoom
	}

	remaining := make([]*entity.Player, 0, len(that.room.Players))
	for _, member := range that.room.Players {
		if member.ID != playerID {
			remaining = append(remaining, member)
		}
	}
	that.room.Players = remaining

	that.timer.Stop()
	that.room.Game = entity.NewGame()
	that.room.RestartVotes = make(map[string]bool)

	if len(remaining) == 0 {
		that.logger.Info("last player left, destroying room", "playerID", playerID)
		return true, that.snapshotLocked(), nil
	}

	survivor := remaining[0]
	survivor.IsHost = true
	survivor.Role = entity.PlayerBlack
	that.room.HostID = survivor.ID

	that.sink.Send(survivor.ID, actionOpponentLeft, opponentLeftPayload{
		Message:     fmt.Sprintf("%s left the room, you are the host now", player.Name),
		NewHostName: survivor.Name,
	})
	that.broadcastLocked(actionPlayersUpdate, that.playersLocked())

	that.logger.Info("player left", "playerID", playerID, "newHostID", survivor.ID)

	return false, that.snapshotLocked(), nil
}

// Close - cancels the timer ahead of session teardown.
func (that *Session) Close() {
	that.timer.Stop()
}

// handleExpiry - runs the timeout transition. The generation check orders
// a racing expiry against moves and cancellations: whichever reached the
// session mutex first wins and the loser is a no-op.
func (that *Session) handleExpiry(gen uint64) {
	snapshot := that.expireLocked(gen)
	if snapshot != nil {
		that.onChange(snapshot)
	}
}

func (that *Session) expireLocked(gen uint64) *entity.Room {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.timer.Current(gen) {
		return nil
	}

	game := that.room.Game
	if !game.IsPlaying() {
		return nil
	}

	timedOut := game.Turn
	winner := entity.OpposingPlayer(timedOut)

	game.Status = entity.StatusFinished
	game.Winner = winner
	that.timer.Stop()

	that.broadcastLocked(actionTimeout, timeoutPayload{
		Winner:         winner,
		TimedOutPlayer: timedOut,
	})
	that.broadcastLocked(actionGameStateUpdate, game)

	that.logger.Info("turn timed out", "timedOut", timedOut, "winner", winner)

	return that.snapshotLocked()
}

func (that *Session) handleTick(gen uint64, secondsLeft int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.timer.Current(gen) {
		return
	}

	that.broadcastLocked(actionTimerUpdate, secondsLeft)
}

// broadcastLocked - fans an event out to every roster member. Callers must
// hold the session mutex.
func (that *Session) broadcastLocked(action string, payload any) {
	for _, player := range that.room.Players {
		that.sink.Send(player.ID, action, payload)
	}
}

func (that *Session) playersLocked() []entity.Player {
	players := make([]entity.Player, 0, len(that.room.Players))
	for _, player := range that.room.Players {
		players = append(players, *player)
	}
	return players
}

func (that *Session) snapshotLocked() *entity.Room {
	snapshot := *that.room

	game := *that.room.Game
	if that.room.Game.LastMove != nil {
		lastMove := *that.room.Game.LastMove
		game.LastMove = &lastMove
	}
	snapshot.Game = &game

	snapshot.Players = make([]*entity.Player, len(that.room.Players))
	for i, player := range that.room.Players {
		copied := *player
		snapshot.Players[i] = &copied
	}

	snapshot.RestartVotes = make(map[string]bool, len(that.room.RestartVotes))
	for role, voted := range that.room.RestartVotes {
		snapshot.RestartVotes[role] = voted
	}

	snapshot.Messages = append([]entity.Message(nil), that.room.Messages...)

	return &snapshot
}

type restartedPayload struct {
	Players []entity.Player `json:"players"`
}

type opponentLeftPayload struct {
	Message     string `json:"message"`
	NewHostName string `json:"newHostName"`
}

type timeoutPayload struct {
	Winner         string `json:"winner"`
	TimedOutPlayer string `json:"timedOutPlayer"`
}
