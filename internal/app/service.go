package app

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/javierandres04/spot-it-server/internal/domain"
	"github.com/javierandres04/spot-it-server/internal/registry"
)

var (
	ErrChoiceCount   = errors.New("a turn requires exactly three choices")
	ErrUnknownPlayer = errors.New("player not found in room")
	ErrNotStarted    = errors.New("game not started in room")
)

// session is the per-room state the coordinator owns: the shared deck and the
// Challenger flip switch. Players reference the deck through the session, so
// there is a single copy per room.
type session struct {
	deck    []domain.Card
	flipped bool
}

// Service is the session coordinator. It combines the injected player
// registry with the deck generator in response to player actions and returns
// the events the transport should broadcast.
type Service struct {
	registry       *registry.Store
	rng            *rand.Rand
	symbolsPerCard int
	alphabet       []domain.Symbol

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService constructs a coordinator over the given registry. A
// symbolsPerCard that cannot build a valid deck falls back to the standard 8;
// a nil or undersized alphabet falls back to the stock symbols; a nil rng is
// time-seeded.
func NewService(reg *registry.Store, symbolsPerCard int, alphabet []domain.Symbol, rng *rand.Rand) *Service {
	if !domain.ValidCardSize(symbolsPerCard) {
		symbolsPerCard = 8
	}
	if len(alphabet) < domain.DeckSize(symbolsPerCard) {
		alphabet = domain.DefaultSymbols
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		registry:       reg,
		rng:            rng,
		symbolsPerCard: symbolsPerCard,
		alphabet:       alphabet,
		sessions:       make(map[string]*session),
	}
}

// CreateRoom registers the first player of a fresh room as its host.
func (s *Service) CreateRoom(connID, name, room string) ([]Event, error) {
	player := &domain.Player{
		ConnectionID: connID,
		Name:         name,
		Room:         room,
		Role:         domain.RoleHost,
	}
	if _, err := s.registry.AddPlayer(player); err != nil {
		return nil, err
	}

	return []Event{{
		Kind: EventRoomInfo,
		Payload: RoomInfoPayload{
			Room:    room,
			Players: s.registry.ListPlayers(room),
			Started: false,
			Mode:    domain.GameModeClassic,
		},
	}}, nil
}

// TryJoin is the pre-flight join validation. It mutates nothing and returns
// registry.ErrNoRoom, registry.ErrRoomFull or registry.ErrNameInUse when the
// join must be rejected.
func (s *Service) TryJoin(room, name string) error {
	return s.registry.ValidateJoin(room, name)
}

// JoinRoom commits a join. A latecomer entering mid-round observes the live
// session deck; the room counts as started once that deck is non-empty.
func (s *Service) JoinRoom(connID, name, room string, role domain.Role) ([]Event, error) {
	if role == "" {
		role = domain.RoleGuest
	}
	player := &domain.Player{
		ConnectionID: connID,
		Name:         name,
		Room:         room,
		Role:         role,
	}
	// Rejoining under the same name replaces the old record; the player keeps
	// their standing and score.
	if prev := s.registry.GetPlayer(room, name); prev != nil {
		player.Role = prev.Role
		player.Wins = prev.Wins
		player.MatchedCount = prev.MatchedCount
		player.Mode = prev.Mode
	}
	if _, err := s.registry.AddPlayer(player); err != nil {
		return nil, err
	}

	deck := s.sessionDeck(room)
	players := s.registry.ListPlayers(room)
	mode := domain.GameModeClassic
	if len(players) > 0 && players[0].Mode != "" {
		mode = players[0].Mode
	}

	return []Event{
		{
			Kind: EventRoomInfo,
			Payload: RoomInfoPayload{
				Room:    room,
				Players: players,
				Started: len(deck) > 0,
				Mode:    mode,
			},
		},
		{
			Kind:    EventPlayerJoining,
			Payload: PlayerJoiningPayload{Player: name, Players: players},
		},
	}, nil
}

// StartGame generates a fresh shared deck for the room, records the chosen
// mode on every member and resets their counters for the new round. The flip
// switch starts visible.
func (s *Service) StartGame(room string, mode domain.GameMode) ([]Event, error) {
	players := s.registry.ListPlayers(room)
	if len(players) == 0 {
		return nil, registry.ErrNoRoom
	}

	deck, err := domain.GenerateDeck(s.symbolsPerCard, s.alphabet, true, s.rng)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[room] = &session{deck: deck, flipped: true}
	s.mu.Unlock()

	for _, p := range players {
		p.Mode = mode
		p.MatchedCount = 0
	}

	return []Event{{
		Kind:    EventInitGame,
		Payload: InitGamePayload{Deck: deck, Players: players, Mode: mode},
	}}, nil
}

// FlipVisibility toggles the room's shared flip switch and reports the new
// value. It touches no player or deck state, so it is safe to interleave with
// turn evaluation.
func (s *Service) FlipVisibility(room string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[room]
	if !ok {
		return nil, ErrNotStarted
	}
	sess.flipped = !sess.flipped

	return []Event{{
		Kind:    EventFlipCards,
		Payload: FlipCardsPayload{Flipped: sess.flipped},
	}}, nil
}

// EvaluateTurn judges a three-choice submission. A match removes the three
// referenced cards from the shared deck and credits the submitter; a mismatch
// mutates nothing and notifies the submitter alone. When the shrunken deck
// reaches the round-end threshold the round winner is settled.
func (s *Service) EvaluateTurn(room, name string, choices []domain.Choice) ([]Event, error) {
	if len(choices) != domain.TurnSize {
		return nil, ErrChoiceCount
	}
	player := s.registry.GetPlayer(room, name)
	if player == nil {
		return nil, ErrUnknownPlayer
	}

	s.mu.Lock()
	sess, ok := s.sessions[room]
	if !ok || len(sess.deck) == 0 {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}

	if _, match := domain.SharedSymbol(choices); !match {
		s.mu.Unlock()
		return []Event{{
			Kind:       EventBadTurn,
			Payload:    BadTurnPayload{Choices: []domain.Choice{}},
			Recipients: []string{player.ConnectionID},
		}}, nil
	}

	numbers := make([]int, len(choices))
	for i, c := range choices {
		numbers[i] = c.CardNumber
	}
	sess.deck = domain.RemoveCardsByNumber(sess.deck, numbers)
	deck := sess.deck
	s.mu.Unlock()

	player.MatchedCount += domain.TurnSize
	players := s.registry.ListPlayers(room)

	events := []Event{
		{
			Kind:       EventSuccessTurn,
			Payload:    SuccessTurnPayload{Choice: choices[0]},
			Recipients: []string{player.ConnectionID},
		},
		{
			Kind: EventUpdateGameState,
			Payload: UpdateGameStatePayload{
				Deck:    deck,
				Players: players,
				Choices: []domain.Choice{},
				Player:  name,
			},
		},
	}

	if len(deck) > 0 && len(deck) <= RoundEndThreshold {
		winner := domain.Winner(players)
		for _, p := range players {
			p.MatchedCount = 0
		}
		winner.Wins++

		events = append(events, Event{
			Kind: EventFinishGame,
			Payload: FinishGamePayload{
				Winner:  winner,
				Players: players,
				Deck:    deck,
			},
		})
	}

	return events, nil
}

// LeaveRoom removes a player and promotes the earliest remaining member to
// host. The session dies with its last member.
func (s *Service) LeaveRoom(room, name string) ([]Event, error) {
	if _, err := s.registry.RemovePlayer(room, name); err != nil {
		return nil, err
	}

	players := s.registry.ListPlayers(room)
	newHost := ""
	if len(players) > 0 {
		players[0].Role = domain.RoleHost
		newHost = players[0].Name
	} else {
		s.mu.Lock()
		delete(s.sessions, room)
		s.mu.Unlock()
	}

	return []Event{{
		Kind:    EventPlayerLeft,
		Payload: PlayerLeftPayload{Players: players, Player: name, NewHost: newHost},
	}}, nil
}

// Disconnect handles a transport-level drop, keyed by connection identity.
// Unknown connections are a no-op.
func (s *Service) Disconnect(connID string) ([]Event, error) {
	player := s.registry.GetPlayerByConnection(connID)
	if player == nil {
		return nil, nil
	}
	return s.LeaveRoom(player.Room, player.Name)
}

// PlayerByConnection resolves the player owning a transport connection, or
// nil when the connection is unknown.
func (s *Service) PlayerByConnection(connID string) *domain.Player {
	return s.registry.GetPlayerByConnection(connID)
}

// RoomEmpty reports whether no players remain in the room.
func (s *Service) RoomEmpty(room string) bool {
	return len(s.registry.ListPlayers(room)) == 0
}

// Players returns the room membership in listing order.
func (s *Service) Players(room string) []*domain.Player {
	return s.registry.ListPlayers(room)
}

func (s *Service) sessionDeck(room string) []domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[room]; ok {
		return sess.deck
	}
	return nil
}
