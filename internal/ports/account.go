// Package ports holds the transport-agnostic interfaces the app layer
// depends on; concrete adapters live under ports/nakama.
package ports

import "context"

// AccountPort writes account profile changes. Players join rooms under their
// account username, so whatever name lands here is the name the rest of the
// room sees.
type AccountPort interface {
	// UpdateProfile sets the account's username and display name.
	UpdateProfile(ctx context.Context, userID, username, displayName string) error
}
