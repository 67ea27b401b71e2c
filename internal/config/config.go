package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/javierandres04/spot-it-server/internal/domain"
)

// GameConfig tunes the session engine. Every field has a safe default so the
// server runs without a config file.
type GameConfig struct {
	// SymbolsPerCard is the card size k; the deck holds k*(k-1)+1 cards.
	SymbolsPerCard int `json:"symbols_per_card"`
	// FlipIntervalSeconds is the Challenger-mode visibility flip period.
	FlipIntervalSeconds int `json:"flip_interval_seconds"`
	// RoomCapacity caps active players per room.
	RoomCapacity int `json:"room_capacity"`
	// Symbols optionally overrides the stock symbol alphabet.
	Symbols []string `json:"symbols"`
}

const (
	defaultSymbolsPerCard      = 8
	defaultFlipIntervalSeconds = 7
	defaultRoomCapacity        = 6
)

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path once.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the loaded configuration, or nil when no file loaded.
func GetGameConfig() *GameConfig {
	return cfg
}

// GetSymbolsPerCard returns the configured card size or the default. Card
// sizes that cannot build a valid deck fall back to the default.
func GetSymbolsPerCard() int {
	if cfg == nil || !domain.ValidCardSize(cfg.SymbolsPerCard) {
		return defaultSymbolsPerCard
	}
	return cfg.SymbolsPerCard
}

// GetFlipIntervalSeconds returns the Challenger flip period or the default.
func GetFlipIntervalSeconds() int {
	if cfg == nil || cfg.FlipIntervalSeconds <= 0 {
		return defaultFlipIntervalSeconds
	}
	return cfg.FlipIntervalSeconds
}

// GetRoomCapacity returns the per-room player cap or the default.
func GetRoomCapacity() int {
	if cfg == nil || cfg.RoomCapacity <= 0 {
		return defaultRoomCapacity
	}
	return cfg.RoomCapacity
}

// GetSymbols returns the configured symbol alphabet override, or nil to use
// the stock alphabet.
func GetSymbols() []string {
	if cfg == nil || len(cfg.Symbols) == 0 {
		return nil
	}
	return cfg.Symbols
}
