package app

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/javierandres04/spot-it-server/internal/domain"
	"github.com/javierandres04/spot-it-server/internal/registry"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(registry.New(registry.DefaultRoomCapacity), 8, nil, rand.New(rand.NewSource(42)))
}

// fabricatedDeck builds n cards that all carry the "Star" symbol so any three
// of them form a winning triple in tests.
func fabricatedDeck(n int) []domain.Card {
	deck := make([]domain.Card, n)
	for i := range deck {
		deck[i] = domain.Card{
			Figures: []domain.Symbol{"Star", domain.Symbol(fmt.Sprintf("Unique-%d", i))},
			Number:  i,
		}
	}
	return deck
}

func starTriple(a, b, c int) []domain.Choice {
	return []domain.Choice{
		{CardNumber: a, Symbol: "Star"},
		{CardNumber: b, Symbol: "Star"},
		{CardNumber: c, Symbol: "Star"},
	}
}

func TestCreateAndJoinRoom(t *testing.T) {
	svc := newTestService(t)

	evs, err := svc.CreateRoom("c1", "ana", "1234")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if len(evs) != 1 || evs[0].Kind != EventRoomInfo {
		t.Fatalf("create events = %+v, want one roomInfo", evs)
	}
	info := evs[0].Payload.(RoomInfoPayload)
	if info.Started || info.Room != "1234" || len(info.Players) != 1 {
		t.Fatalf("roomInfo payload unexpected: %+v", info)
	}
	if info.Players[0].Role != domain.RoleHost {
		t.Fatalf("creator role = %s, want Host", info.Players[0].Role)
	}

	evs, err = svc.JoinRoom("c2", "bob", "1234", domain.RoleGuest)
	if err != nil {
		t.Fatalf("join room: %v", err)
	}
	if len(evs) != 2 || evs[0].Kind != EventRoomInfo || evs[1].Kind != EventPlayerJoining {
		t.Fatalf("join events = %+v", evs)
	}
	if evs[0].Payload.(RoomInfoPayload).Started {
		t.Fatalf("lobby room reported as started")
	}
}

func TestTryJoinVerdicts(t *testing.T) {
	svc := newTestService(t)
	svc.CreateRoom("c1", "ana", "1234")

	if err := svc.TryJoin("0000", "bob"); !errors.Is(err, registry.ErrNoRoom) {
		t.Fatalf("missing room verdict = %v, want ErrNoRoom", err)
	}
	if err := svc.TryJoin("1234", "ana"); !errors.Is(err, registry.ErrNameInUse) {
		t.Fatalf("duplicate name verdict = %v, want ErrNameInUse", err)
	}
	if err := svc.TryJoin("1234", "bob"); err != nil {
		t.Fatalf("valid join verdict = %v, want nil", err)
	}

	for i := 0; i < registry.DefaultRoomCapacity-1; i++ {
		if _, err := svc.JoinRoom(fmt.Sprintf("c%d", i+2), fmt.Sprintf("p%d", i), "1234", ""); err != nil {
			t.Fatalf("fill room: %v", err)
		}
	}
	if err := svc.TryJoin("1234", "late"); !errors.Is(err, registry.ErrRoomFull) {
		t.Fatalf("full room verdict = %v, want ErrRoomFull", err)
	}
}

func TestStartGameSharesDeckAndMode(t *testing.T) {
	svc := newTestService(t)
	svc.CreateRoom("c1", "ana", "1234")
	svc.JoinRoom("c2", "bob", "1234", "")

	evs, err := svc.StartGame("1234", domain.GameModeChallenger)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if len(evs) != 1 || evs[0].Kind != EventInitGame {
		t.Fatalf("start events = %+v, want one initGame", evs)
	}
	payload := evs[0].Payload.(InitGamePayload)
	if len(payload.Deck) != domain.DeckSize(8) {
		t.Fatalf("deck size = %d, want %d", len(payload.Deck), domain.DeckSize(8))
	}
	for _, p := range payload.Players {
		if p.Mode != domain.GameModeChallenger {
			t.Fatalf("player %s mode = %s, want Challenger", p.Name, p.Mode)
		}
		if p.MatchedCount != 0 {
			t.Fatalf("player %s matched count = %d at round start", p.Name, p.MatchedCount)
		}
	}

	// A latecomer observes the live deck.
	evs, err = svc.JoinRoom("c3", "cai", "1234", "")
	if err != nil {
		t.Fatalf("late join: %v", err)
	}
	info := evs[0].Payload.(RoomInfoPayload)
	if !info.Started {
		t.Fatalf("late joiner saw started=false mid-round")
	}
	if info.Mode != domain.GameModeChallenger {
		t.Fatalf("late joiner saw mode=%s, want Challenger", info.Mode)
	}
}

func TestStartGameEmptyRoom(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.StartGame("0000", domain.GameModeClassic); !errors.Is(err, registry.ErrNoRoom) {
		t.Fatalf("start in missing room = %v, want ErrNoRoom", err)
	}
}

func TestFlipVisibilityTogglesOnlyTheSwitch(t *testing.T) {
	svc := newTestService(t)
	svc.CreateRoom("c1", "ana", "1234")
	svc.StartGame("1234", domain.GameModeChallenger)

	before := svc.sessionDeck("1234")

	evs, err := svc.FlipVisibility("1234")
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if evs[0].Kind != EventFlipCards || evs[0].Payload.(FlipCardsPayload).Flipped {
		t.Fatalf("first flip = %+v, want flipped=false", evs[0])
	}
	evs, _ = svc.FlipVisibility("1234")
	if !evs[0].Payload.(FlipCardsPayload).Flipped {
		t.Fatalf("second flip should toggle back to true")
	}

	after := svc.sessionDeck("1234")
	if len(after) != len(before) {
		t.Fatalf("flip mutated the deck: %d -> %d cards", len(before), len(after))
	}
	if p := svc.Players("1234")[0]; p.MatchedCount != 0 {
		t.Fatalf("flip mutated player state: %+v", p)
	}

	if _, err := svc.FlipVisibility("0000"); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("flip in idle room = %v, want ErrNotStarted", err)
	}
}

func TestEvaluateTurnSuccessShrinksSharedDeck(t *testing.T) {
	svc := newTestService(t)
	svc.CreateRoom("c1", "ana", "1234")
	svc.JoinRoom("c2", "bob", "1234", "")
	svc.StartGame("1234", domain.GameModeClassic)

	deck := svc.sessionDeck("1234")
	// The engine only checks that the three choices agree on a symbol name;
	// validating the symbol against card faces is the client's job.
	target := deck[0].Figures[0]
	choices := []domain.Choice{
		{CardNumber: deck[0].Number, Symbol: target},
		{CardNumber: deck[1].Number, Symbol: target},
		{CardNumber: deck[2].Number, Symbol: target},
	}
	removed := map[int]bool{deck[0].Number: true, deck[1].Number: true, deck[2].Number: true}
	before := len(deck)

	evs, err := svc.EvaluateTurn("1234", "ana", choices)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if evs[0].Kind != EventSuccessTurn {
		t.Fatalf("first event = %s, want successTurn", evs[0].Kind)
	}
	if len(evs[0].Recipients) != 1 || evs[0].Recipients[0] != "c1" {
		t.Fatalf("successTurn recipients = %v, want submitter only", evs[0].Recipients)
	}
	if evs[1].Kind != EventUpdateGameState || len(evs[1].Recipients) != 0 {
		t.Fatalf("second event = %+v, want room-wide updateGameState", evs[1])
	}

	update := evs[1].Payload.(UpdateGameStatePayload)
	if len(update.Deck) != before-3 {
		t.Fatalf("deck after turn = %d cards, want %d", len(update.Deck), before-3)
	}
	for _, c := range update.Deck {
		if removed[c.Number] {
			t.Fatalf("card %d still in deck after matching turn", c.Number)
		}
	}
	if got := svc.Players("1234")[0].MatchedCount; got != 3 {
		t.Fatalf("matched count = %d, want 3", got)
	}
}

func TestEvaluateTurnFailureMutatesNothing(t *testing.T) {
	svc := newTestService(t)
	svc.CreateRoom("c1", "ana", "1234")
	svc.StartGame("1234", domain.GameModeClassic)

	before := len(svc.sessionDeck("1234"))
	choices := []domain.Choice{
		{CardNumber: 0, Symbol: "Star"},
		{CardNumber: 1, Symbol: "Star"},
		{CardNumber: 2, Symbol: "Moon"},
	}

	evs, err := svc.EvaluateTurn("1234", "ana", choices)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(evs) != 1 || evs[0].Kind != EventBadTurn {
		t.Fatalf("events = %+v, want single badTurn", evs)
	}
	if len(evs[0].Recipients) != 1 || evs[0].Recipients[0] != "c1" {
		t.Fatalf("badTurn recipients = %v, want submitter only", evs[0].Recipients)
	}

	if got := len(svc.sessionDeck("1234")); got != before {
		t.Fatalf("failed turn changed deck: %d -> %d", before, got)
	}
	if got := svc.Players("1234")[0].MatchedCount; got != 0 {
		t.Fatalf("failed turn changed matched count: %d", got)
	}
}

func TestEvaluateTurnValidation(t *testing.T) {
	svc := newTestService(t)
	svc.CreateRoom("c1", "ana", "1234")

	if _, err := svc.EvaluateTurn("1234", "ana", starTriple(0, 1, 2)[:2]); !errors.Is(err, ErrChoiceCount) {
		t.Fatalf("two-choice turn = %v, want ErrChoiceCount", err)
	}
	if _, err := svc.EvaluateTurn("1234", "ghost", starTriple(0, 1, 2)); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("unknown player = %v, want ErrUnknownPlayer", err)
	}
	if _, err := svc.EvaluateTurn("1234", "ana", starTriple(0, 1, 2)); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("turn before start = %v, want ErrNotStarted", err)
	}
}

func TestRoundEndSettlesWinner(t *testing.T) {
	svc := newTestService(t)
	svc.CreateRoom("c1", "ana", "1234")
	svc.JoinRoom("c2", "bob", "1234", "")
	svc.JoinRoom("c3", "cai", "1234", "")

	// Force a near-empty shared deck for a predictable round end.
	svc.mu.Lock()
	svc.sessions["1234"] = &session{deck: fabricatedDeck(12), flipped: true}
	svc.mu.Unlock()

	players := svc.Players("1234")
	players[0].MatchedCount = 6
	players[1].MatchedCount = 9 // bob leads pre-turn
	players[2].MatchedCount = 9 // tied, but bob is earlier in listing order

	evs, err := svc.EvaluateTurn("1234", "bob", starTriple(0, 1, 2))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	var finish *FinishGamePayload
	for _, ev := range evs {
		if ev.Kind == EventFinishGame {
			p := ev.Payload.(FinishGamePayload)
			finish = &p
		}
	}
	if finish == nil {
		t.Fatalf("no finishGame event at 9 remaining cards: %+v", evs)
	}
	if finish.Winner == nil || finish.Winner.Name != "bob" {
		t.Fatalf("winner = %+v, want bob (strict max, submitter credited before settle)", finish.Winner)
	}
	if finish.Winner.Wins != 1 || finish.Winner.MatchedCount != 0 {
		t.Fatalf("winner record not settled: wins=%d matched=%d", finish.Winner.Wins, finish.Winner.MatchedCount)
	}
	if len(finish.Deck) != 9 {
		t.Fatalf("finish deck = %d cards, want 9", len(finish.Deck))
	}

	for _, p := range svc.Players("1234") {
		if p.MatchedCount != 0 {
			t.Fatalf("player %s matched count = %d after round end, want 0", p.Name, p.MatchedCount)
		}
	}
	wins := 0
	for _, p := range svc.Players("1234") {
		wins += p.Wins
		if p.Name == "bob" && p.Wins != 1 {
			t.Fatalf("bob wins = %d, want 1", p.Wins)
		}
	}
	if wins != 1 {
		t.Fatalf("total wins incremented = %d, want exactly 1", wins)
	}

	// The shrunken deck is kept until the next explicit game start.
	if got := len(svc.sessionDeck("1234")); got != 9 {
		t.Fatalf("deck after round end = %d cards, want the shrunken 9", got)
	}
}

func TestNoRoundEndAboveThreshold(t *testing.T) {
	svc := newTestService(t)
	svc.CreateRoom("c1", "ana", "1234")

	svc.mu.Lock()
	svc.sessions["1234"] = &session{deck: fabricatedDeck(13), flipped: true}
	svc.mu.Unlock()

	evs, err := svc.EvaluateTurn("1234", "ana", starTriple(0, 1, 2))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for _, ev := range evs {
		if ev.Kind == EventFinishGame {
			t.Fatalf("finishGame fired with 10 cards remaining")
		}
	}
}

func TestLeaveRoomPromotesEarliestRemaining(t *testing.T) {
	svc := newTestService(t)
	svc.CreateRoom("c1", "ana", "1234")
	svc.JoinRoom("c2", "bob", "1234", "")
	svc.JoinRoom("c3", "cai", "1234", "")

	evs, err := svc.LeaveRoom("1234", "ana")
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	left := evs[0].Payload.(PlayerLeftPayload)
	if left.NewHost != "bob" {
		t.Fatalf("new host = %s, want bob (earliest remaining)", left.NewHost)
	}
	if svc.Players("1234")[0].Role != domain.RoleHost {
		t.Fatalf("promoted player not marked Host")
	}

	if _, err := svc.LeaveRoom("1234", "ghost"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("leave by unknown player = %v, want ErrNotFound", err)
	}
}

func TestDisconnectDropsSessionWithLastPlayer(t *testing.T) {
	svc := newTestService(t)
	svc.CreateRoom("c1", "ana", "1234")
	svc.StartGame("1234", domain.GameModeClassic)

	evs, err := svc.Disconnect("c1")
	if err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	left := evs[0].Payload.(PlayerLeftPayload)
	if left.NewHost != "" || len(left.Players) != 0 {
		t.Fatalf("last-player leave payload unexpected: %+v", left)
	}
	if !svc.RoomEmpty("1234") {
		t.Fatalf("room not empty after last disconnect")
	}
	if deck := svc.sessionDeck("1234"); deck != nil {
		t.Fatalf("session survived an empty room")
	}

	// Unknown connections are silently ignored.
	evs, err = svc.Disconnect("c-ghost")
	if err != nil || evs != nil {
		t.Fatalf("unknown disconnect = (%v, %v), want (nil, nil)", evs, err)
	}
}

func TestRejoinKeepsStandingAndScore(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.CreateRoom("c1", "ana", "1234"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := svc.JoinRoom("c2", "bob", "1234", domain.RoleGuest); err != nil {
		t.Fatalf("join room: %v", err)
	}
	if _, err := svc.StartGame("1234", domain.GameModeClassic); err != nil {
		t.Fatalf("start game: %v", err)
	}

	host := svc.Players("1234")[0]
	host.MatchedCount = 6
	host.Wins = 2

	// The host reconnects under a new transport connection.
	if _, err := svc.JoinRoom("c1-new", "ana", "1234", domain.RoleGuest); err != nil {
		t.Fatalf("rejoin: %v", err)
	}

	again := svc.registry.GetPlayer("1234", "ana")
	if again == nil || again.ConnectionID != "c1-new" {
		t.Fatalf("rejoin did not replace the connection: %+v", again)
	}
	if again.Role != domain.RoleHost {
		t.Fatalf("rejoin role = %s, want Host", again.Role)
	}
	if again.MatchedCount != 6 || again.Wins != 2 {
		t.Fatalf("rejoin lost score: matched=%d wins=%d", again.MatchedCount, again.Wins)
	}
}

func TestNewServiceRejectsUnbuildableCardSize(t *testing.T) {
	// Order 4 is composite, so a 5-symbol card cannot build a valid deck;
	// the coordinator falls back to the standard 8 instead of dealing decks
	// that break the one-shared-symbol rule.
	svc := NewService(registry.New(0), 5, nil, rand.New(rand.NewSource(42)))
	svc.CreateRoom("c1", "ana", "1234")

	evs, err := svc.StartGame("1234", domain.GameModeClassic)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if got := len(evs[0].Payload.(InitGamePayload).Deck); got != domain.DeckSize(8) {
		t.Fatalf("deck size = %d, want the standard %d", got, domain.DeckSize(8))
	}
}
