package domain

// GameMode selects the ruleset variant for a room.
type GameMode string

const (
	// GameModeClassic is the default mode with permanently visible cards.
	GameModeClassic GameMode = "Classic"
	// GameModeChallenger periodically hides card faces on a shared flip switch.
	GameModeChallenger GameMode = "Challenger"
)

// Role marks a player's standing inside a room.
type Role string

const (
	// RoleHost is held by the room creator, or by the oldest remaining member
	// after the host leaves. Only the host may start a game.
	RoleHost Role = "Host"
	// RoleGuest is every other member.
	RoleGuest Role = "Guest"
)

// Symbol is a single figure printed on a card. Symbols have no structure
// beyond identity.
type Symbol string

// Card is an ordered set of distinct symbols plus a deck-unique number.
// The number is assigned at generation time and never changes; symbol order
// only affects display.
type Card struct {
	Figures []Symbol `json:"figures"`
	Number  int      `json:"cardNumber"`
}

// Player holds the registry state for one room member. The shared deck is
// owned by the room session, not duplicated per player.
type Player struct {
	ConnectionID string   `json:"id"`
	Name         string   `json:"name"`
	Room         string   `json:"room"`
	MatchedCount int      `json:"cards"`
	Mode         GameMode `json:"gameMode"`
	Wins         int      `json:"wins"`
	Role         Role     `json:"rol"`
}

// Choice is one of the three submissions forming a turn: a card reference
// plus the symbol the player claims to have spotted on it.
type Choice struct {
	CardNumber int    `json:"cardNumber"`
	Symbol     Symbol `json:"name"`
}
