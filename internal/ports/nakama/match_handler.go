package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/javierandres04/spot-it-server/internal/app"
	"github.com/javierandres04/spot-it-server/internal/config"
	"github.com/javierandres04/spot-it-server/internal/domain"
	"github.com/javierandres04/spot-it-server/internal/registry"

	"github.com/heroiclabs/nakama-common/runtime"
)

// matchTickRate is the number of MatchLoop ticks per second. The Challenger
// flip schedule counts ticks, so it must divide the configured flip interval
// evenly.
const matchTickRate = 1

// emptyGraceTicks is how long a match with no presences stays alive. Covers
// the gap between the create_room RPC and the creator's socket join.
const emptyGraceTicks = 30 * matchTickRate

// MatchState holds the per-room runtime state for the match handler. Player
// and deck state lives in the shared session coordinator; the handler only
// tracks transport-level concerns.
type MatchState struct {
	Room         string                      `json:"room"`
	Mode         domain.GameMode             `json:"mode"`
	Started      bool                        `json:"started"`
	Tick         int64                       `json:"tick"`
	NextFlipTick int64                       `json:"next_flip_tick"` // 0 disables the flip schedule
	EmptyTicks   int64                       `json:"empty_ticks"`
	Presences    map[string]runtime.Presence `json:"-"`
}

// Label is the match label advertised for room-code lookups.
type Label struct {
	Open  bool   `json:"open"`
	Game  string `json:"game"`
	Room  string `json:"room"`
	Phase string `json:"phase"`
}

// initGameRequest is the OpInitGame payload.
type initGameRequest struct {
	Mode domain.GameMode `json:"mode"`
}

// evaluateTurnRequest is the OpEvaluateTurn payload.
type evaluateTurnRequest struct {
	Choices []domain.Choice `json:"choices"`
}

// GameErrorPayload is sent privately when an action is rejected.
type GameErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// matchHandler implements Nakama's runtime.Match for a Spot-It room. All
// rooms share one session coordinator so the player registry stays
// process-wide.
type matchHandler struct {
	app *app.Service
}

func newMatchHandler(svc *app.Service) *matchHandler {
	return &matchHandler{app: svc}
}

// MatchInit boots a room match. The room code is minted by the create_room
// RPC and passed through match params; a missing code (match created outside
// the RPC) gets a fresh one.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	room, _ := params["room"].(string)
	if room == "" {
		room = generateRoomCode(rand.New(rand.NewSource(time.Now().UnixNano())), roomCodeLength)
		logger.Warn("MatchInit: No room code in params, generated %s", room)
	}

	state := &MatchState{
		Room:      room,
		Presences: make(map[string]runtime.Presence),
	}

	return state, matchTickRate, mh.buildLabel(state)
}

// MatchJoinAttempt validates a join against the registry before any mutation.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	name := presence.GetUsername()
	if name == "" {
		return state, false, "name_required"
	}

	err := mh.app.TryJoin(matchState.Room, name)
	switch {
	case err == nil:
		return matchState, true, ""
	case errors.Is(err, registry.ErrNoRoom):
		// First member: this is the create path.
		return matchState, true, ""
	case errors.Is(err, registry.ErrNameInUse):
		// The same account rejoining under its own name replaces its record;
		// anyone else collides.
		for _, p := range mh.app.Players(matchState.Room) {
			if p.Name == name && p.ConnectionID == presence.GetUserId() {
				return matchState, true, ""
			}
		}
		return matchState, false, "name_in_use"
	case errors.Is(err, registry.ErrRoomFull):
		return matchState, false, "room_full"
	default:
		logger.Error("MatchJoinAttempt: unexpected verdict: %v", err)
		return matchState, false, "join_rejected"
	}
}

// MatchJoin commits joins: the first member creates the room as host, later
// members join as guests and observe the live deck.
func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		var (
			events []app.Event
			err    error
		)
		if mh.app.RoomEmpty(matchState.Room) {
			events, err = mh.app.CreateRoom(p.GetUserId(), p.GetUsername(), matchState.Room)
		} else {
			events, err = mh.app.JoinRoom(p.GetUserId(), p.GetUsername(), matchState.Room, domain.RoleGuest)
		}
		if err != nil {
			logger.Warn("MatchJoin: %s could not join room %s: %v", p.GetUserId(), matchState.Room, err)
			continue
		}
		logger.Info("MatchJoin: %s joined room %s", p.GetUsername(), matchState.Room)

		for _, ev := range events {
			mh.broadcastEvent(matchState, dispatcher, logger, ev)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave handles transport-level drops. The earliest remaining member is
// promoted to host; the match dies with its last member.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		events, err := mh.app.Disconnect(p.GetUserId())
		if err != nil && !errors.Is(err, registry.ErrNotFound) {
			logger.Warn("MatchLeave: disconnect %s: %v", p.GetUserId(), err)
			continue
		}
		for _, ev := range events {
			mh.broadcastEvent(matchState, dispatcher, logger, ev)
		}
	}

	if mh.app.RoomEmpty(matchState.Room) {
		logger.Info("MatchLeave: room %s empty, terminating match", matchState.Room)
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLoop processes player actions and drives the Challenger flip schedule.
func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpInitGame:
			mh.handleInitGame(matchState, dispatcher, logger, msg)
		case OpEvaluateTurn:
			mh.handleEvaluateTurn(matchState, dispatcher, logger, msg)
		case OpLeaveGame:
			mh.handleLeaveGame(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if len(matchState.Presences) == 0 {
		matchState.EmptyTicks++
		if matchState.EmptyTicks > emptyGraceTicks {
			logger.Info("MatchLoop: room %s abandoned, terminating match", matchState.Room)
			return nil
		}
		return matchState
	}
	matchState.EmptyTicks = 0

	mh.processFlip(matchState, dispatcher, logger)

	return matchState
}

// processFlip toggles the shared visibility switch on schedule. The schedule
// lives in match state, so it is cancelled by room teardown and restarted by
// every new game start; flips touch nothing but the switch itself.
func (mh *matchHandler) processFlip(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if !state.Started || state.Mode != domain.GameModeChallenger || state.NextFlipTick == 0 {
		return
	}
	if state.Tick < state.NextFlipTick {
		return
	}

	events, err := mh.app.FlipVisibility(state.Room)
	if err != nil {
		// Session gone; stop the schedule.
		state.NextFlipTick = 0
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
	state.NextFlipTick = state.Tick + flipIntervalTicks()
}

func flipIntervalTicks() int64 {
	return int64(config.GetFlipIntervalSeconds() * matchTickRate)
}

func (mh *matchHandler) handleInitGame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	sender := mh.app.PlayerByConnection(msg.GetUserId())
	if sender == nil || sender.Room != state.Room {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), 404, "player not in room")
		return
	}
	if sender.Role != domain.RoleHost {
		logger.Warn("InitGame: %s tried to start room %s but is not host", sender.Name, state.Room)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), 403, "only the host may start the game")
		return
	}

	var request initGameRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), 400, "invalid init game payload")
		return
	}
	mode := request.Mode
	if mode == "" {
		mode = domain.GameModeClassic
	}

	events, err := mh.app.StartGame(state.Room, mode)
	if err != nil {
		logger.Error("InitGame: start room %s: %v", state.Room, err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), 400, err.Error())
		return
	}

	state.Mode = mode
	state.Started = true
	if mode == domain.GameModeChallenger {
		state.NextFlipTick = state.Tick + flipIntervalTicks()
	} else {
		state.NextFlipTick = 0
	}

	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
	mh.updateLabel(state, dispatcher, logger)

	logger.Info("InitGame: room %s started in %s mode", state.Room, mode)
}

func (mh *matchHandler) handleEvaluateTurn(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	sender := mh.app.PlayerByConnection(msg.GetUserId())
	if sender == nil || sender.Room != state.Room {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), 404, "player not in room")
		return
	}

	var request evaluateTurnRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), 400, "invalid turn payload")
		return
	}

	events, err := mh.app.EvaluateTurn(state.Room, sender.Name, request.Choices)
	if err != nil {
		logger.Warn("EvaluateTurn: %s in room %s: %v", sender.Name, state.Room, err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), 400, err.Error())
		return
	}

	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleLeaveGame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	sender := mh.app.PlayerByConnection(msg.GetUserId())
	if sender == nil || sender.Room != state.Room {
		return
	}

	events, err := mh.app.LeaveRoom(state.Room, sender.Name)
	if err != nil {
		logger.Warn("LeaveGame: %s in room %s: %v", sender.Name, state.Room, err)
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}

	if presence, ok := state.Presences[msg.GetUserId()]; ok {
		delete(state.Presences, msg.GetUserId())
		if err := dispatcher.MatchKick([]runtime.Presence{presence}); err != nil {
			logger.Warn("LeaveGame: kick %s: %v", msg.GetUserId(), err)
		}
	}

	mh.updateLabel(state, dispatcher, logger)
}

// broadcastEvent dispatches a session event, resolving targeted recipients to
// live presences. Targeted events whose recipients are gone are dropped
// rather than leaked to the whole room.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := opCodeForEvent(ev.Kind)
	if !ok {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	data, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, connID := range ev.Recipients {
			if p, ok := state.Presences[connID]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

func opCodeForEvent(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventRoomInfo:
		return OpRoomInfo, true
	case app.EventPlayerJoining:
		return OpPlayerJoining, true
	case app.EventInitGame:
		return OpGameInit, true
	case app.EventFlipCards:
		return OpFlipCards, true
	case app.EventSuccessTurn:
		return OpSuccessTurn, true
	case app.EventBadTurn:
		return OpBadTurn, true
	case app.EventUpdateGameState:
		return OpUpdateGameState, true
	case app.EventFinishGame:
		return OpFinishGame, true
	case app.EventPlayerLeft:
		return OpPlayerLeft, true
	default:
		return 0, false
	}
}

// sendError notifies the acting client alone that its action was rejected.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	data, err := json.Marshal(GameErrorPayload{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal GameErrorPayload: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	if err := dispatcher.BroadcastMessage(OpGameError, data, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send error to %s: %v", userID, err)
	}
}

func (mh *matchHandler) buildLabel(state *MatchState) string {
	phase := "lobby"
	if state.Started {
		phase = "playing"
	}
	open := len(mh.app.Players(state.Room)) < config.GetRoomCapacity()

	data, _ := json.Marshal(Label{Open: open, Game: "spotit", Room: state.Room, Phase: phase})
	return string(data)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := dispatcher.MatchLabelUpdate(mh.buildLabel(state)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
