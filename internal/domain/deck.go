package domain

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	// ErrInvalidCardSize is returned when fewer than two symbols per card are requested.
	ErrInvalidCardSize = errors.New("symbols per card must be at least 2")
	// ErrNonPrimeOrder is returned when symbolsPerCard-1 is not prime; the
	// construction breaks down for composite orders.
	ErrNonPrimeOrder = errors.New("symbols per card must be one more than a prime")
	// ErrInsufficientSymbols is returned when the alphabet cannot fill a deck.
	ErrInsufficientSymbols = errors.New("symbol alphabet too small for requested card size")
)

// ValidCardSize reports whether a deck of the given card size can be built:
// at least 2 symbols per card, and a prime order symbolsPerCard-1.
func ValidCardSize(symbolsPerCard int) bool {
	return symbolsPerCard >= 2 && isPrime(symbolsPerCard-1)
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// DeckSize returns the card count of a full deck for the given card size:
// k*(k-1)+1, which also equals the number of symbols the deck consumes.
func DeckSize(symbolsPerCard int) int {
	return symbolsPerCard*(symbolsPerCard-1) + 1
}

// GenerateDeck builds a deck of DeckSize(symbolsPerCard) cards over the given
// alphabet such that any two distinct cards share exactly one symbol. The
// construction is the finite projective plane of order n = symbolsPerCard-1:
// one pivot card, n axis cards through the pivot symbol, and n*n grid cards
// picked from the remaining symbol groups with a rotating offset. The
// one-shared-symbol property only holds for prime n, so composite orders are
// rejected with ErrNonPrimeOrder (8 symbols per card, the standard game,
// gives n=7).
//
// When shuffle is true each card's symbol order and the deck-level card order
// are randomized before card numbers are assigned; numbers are 0-indexed and
// immutable afterwards. A nil rng is seeded from the clock.
func GenerateDeck(symbolsPerCard int, alphabet []Symbol, shuffle bool, rng *rand.Rand) ([]Card, error) {
	if symbolsPerCard < 2 {
		return nil, ErrInvalidCardSize
	}
	if !isPrime(symbolsPerCard - 1) {
		return nil, fmt.Errorf("%w: order %d is composite", ErrNonPrimeOrder, symbolsPerCard-1)
	}
	required := DeckSize(symbolsPerCard)
	if len(alphabet) < required {
		return nil, fmt.Errorf("%w: need %d symbols, have %d", ErrInsufficientSymbols, required, len(alphabet))
	}
	if shuffle && rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	order := symbolsPerCard - 1
	combos := make([][]int, 0, required)

	// Pivot card: the pivot symbol plus the whole first group.
	combo := make([]int, 0, symbolsPerCard)
	combo = append(combo, 0)
	for i := 1; i <= order; i++ {
		combo = append(combo, i)
	}
	combos = append(combos, combo)

	// Axis cards: the pivot symbol plus one of the later groups each.
	for i := 0; i < order; i++ {
		combo = make([]int, 0, symbolsPerCard)
		combo = append(combo, 0)
		for m := 0; m < order; m++ {
			combo = append(combo, (order+1)+order*i+m)
		}
		combos = append(combos, combo)
	}

	// Grid cards: a first-group symbol plus one symbol from every later
	// group, rotated by (i*m+j) mod n so any two grid cards meet exactly once.
	for i := 0; i < order; i++ {
		for j := 0; j < order; j++ {
			combo = make([]int, 0, symbolsPerCard)
			combo = append(combo, i+1)
			for m := 0; m < order; m++ {
				combo = append(combo, (order+1)+order*m+(i*m+j)%order)
			}
			combos = append(combos, combo)
		}
	}

	if shuffle {
		rng.Shuffle(len(combos), func(a, b int) { combos[a], combos[b] = combos[b], combos[a] })
	}

	deck := make([]Card, 0, len(combos))
	for number, combo := range combos {
		figures := make([]Symbol, len(combo))
		for i, idx := range combo {
			figures[i] = alphabet[idx]
		}
		if shuffle {
			rng.Shuffle(len(figures), func(a, b int) { figures[a], figures[b] = figures[b], figures[a] })
		}
		deck = append(deck, Card{Figures: figures, Number: number})
	}
	return deck, nil
}

// RemoveCardsByNumber returns the deck without the cards whose numbers are
// listed. Surviving cards keep their order and numbers; unknown numbers are
// ignored.
func RemoveCardsByNumber(deck []Card, numbers []int) []Card {
	remove := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		remove[n] = true
	}
	out := make([]Card, 0, len(deck))
	for _, c := range deck {
		if !remove[c.Number] {
			out = append(out, c)
		}
	}
	return out
}
