package domain

// TurnSize is the number of choices a turn submission must contain.
const TurnSize = 3

// SharedSymbol reports the symbol every choice names. A turn is a match only
// when all choices agree; otherwise ok is false.
func SharedSymbol(choices []Choice) (Symbol, bool) {
	if len(choices) == 0 {
		return "", false
	}
	first := choices[0].Symbol
	for _, c := range choices[1:] {
		if c.Symbol != first {
			return "", false
		}
	}
	return first, true
}

// Winner picks the player with the strictly greatest matched count. Earlier
// listing order wins ties. Returns nil for an empty list.
func Winner(players []*Player) *Player {
	if len(players) == 0 {
		return nil
	}
	winner := players[0]
	for _, p := range players[1:] {
		if p.MatchedCount > winner.MatchedCount {
			winner = p
		}
	}
	return winner
}
