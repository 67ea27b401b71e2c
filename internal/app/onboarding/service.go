// Package onboarding gives freshly created guest accounts a usable identity.
// Players join rooms under their account username, so a new device-auth
// account needs a readable name before its first lobby.
package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/javierandres04/spot-it-server/internal/ports"
)

// Service handles post-auth onboarding for new users.
type Service struct {
	accounts ports.AccountPort
	rng      *rand.Rand
}

// NewService constructs an onboarding service. accounts must be non-nil; rng
// may be nil to use a time-seeded default.
func NewService(accounts ports.AccountPort, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{accounts: accounts, rng: rng}
}

// OnboardNewUser assigns a generated friendly name to a newly created
// account so the player shows up in lobbies as something better than a UUID.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) error {
	if s.accounts == nil {
		return fmt.Errorf("onboarding service not configured")
	}

	name := s.generateFriendlyName()
	if err := s.accounts.UpdateProfile(ctx, userID, name, name); err != nil {
		return fmt.Errorf("failed to set display name: %w", err)
	}
	return nil
}

func (s *Service) generateFriendlyName() string {
	adjectives := []string{"Happy", "Shiny", "Brave", "Clever", "Swift", "Calm", "Mighty", "Witty", "Sly", "Wild"}
	nouns := []string{"Anchor", "Dolphin", "Dragon", "Ghost", "Ladybug", "Snowman", "Spider", "Tortoise", "Zebra", "Clown"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
