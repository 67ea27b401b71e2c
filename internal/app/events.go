package app

import "github.com/javierandres04/spot-it-server/internal/domain"

// EventKind identifies emitted session events for transport dispatch.
type EventKind string

const (
	EventRoomInfo        EventKind = "room_info"
	EventPlayerJoining   EventKind = "player_joining"
	EventInitGame        EventKind = "init_game"
	EventFlipCards       EventKind = "flip_cards"
	EventSuccessTurn     EventKind = "success_turn"
	EventBadTurn         EventKind = "bad_turn"
	EventUpdateGameState EventKind = "update_game_state"
	EventFinishGame      EventKind = "finish_game"
	EventPlayerLeft      EventKind = "player_left"
)

// Event is a session event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // connection IDs; empty means broadcast to the room
}

// RoomInfoPayload describes the room to a (re)joining client.
type RoomInfoPayload struct {
	Room    string           `json:"room"`
	Players []*domain.Player `json:"players"`
	Started bool             `json:"started"`
	Mode    domain.GameMode  `json:"mode"`
}

type PlayerJoiningPayload struct {
	Player  string           `json:"player"`
	Players []*domain.Player `json:"players"`
}

type InitGamePayload struct {
	Deck    []domain.Card    `json:"cardsDecks"`
	Players []*domain.Player `json:"players"`
	Mode    domain.GameMode  `json:"mode"`
}

// FlipCardsPayload carries the shared visibility switch in Challenger mode.
type FlipCardsPayload struct {
	Flipped bool `json:"flipped"`
}

// SuccessTurnPayload is sent to the submitter only.
type SuccessTurnPayload struct {
	Choice domain.Choice `json:"choice"`
}

// BadTurnPayload is sent to the submitter only; choices are echoed empty so
// the client clears its selection.
type BadTurnPayload struct {
	Choices []domain.Choice `json:"choices"`
}

type UpdateGameStatePayload struct {
	Deck    []domain.Card    `json:"cardsDeck"`
	Players []*domain.Player `json:"players"`
	Choices []domain.Choice  `json:"choices"`
	Player  string           `json:"player"`
}

// FinishGamePayload carries the full winner record, counters already reset
// and the win credited.
type FinishGamePayload struct {
	Winner  *domain.Player   `json:"winner"`
	Players []*domain.Player `json:"players"`
	Deck    []domain.Card    `json:"cardsDeck"`
}

type PlayerLeftPayload struct {
	Players []*domain.Player `json:"players"`
	Player  string           `json:"player"`
	NewHost string           `json:"newHost"`
}
