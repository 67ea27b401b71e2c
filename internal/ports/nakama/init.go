package nakama

import (
	"context"
	"database/sql"

	"github.com/javierandres04/spot-it-server/internal/app"
	"github.com/javierandres04/spot-it-server/internal/config"
	"github.com/javierandres04/spot-it-server/internal/domain"
	"github.com/javierandres04/spot-it-server/internal/registry"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs, match handlers and hooks for the Nakama runtime.
// Every room match shares one session coordinator so the player registry is
// process-wide.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("InitModule: config load failed, using defaults: %v", err)
	}

	var alphabet []domain.Symbol
	for _, s := range config.GetSymbols() {
		alphabet = append(alphabet, domain.Symbol(s))
	}

	reg := registry.New(config.GetRoomCapacity())
	svc := app.NewService(reg, config.GetSymbolsPerCard(), alphabet, nil)

	if err := RegisterRPCs(initializer, svc); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameSpotIt, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(svc), nil
	}); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	logger.Info("Spot-It Go module loaded.")
	return nil
}
