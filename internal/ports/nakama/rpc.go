package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/javierandres04/spot-it-server/internal/app"
	"github.com/javierandres04/spot-it-server/internal/registry"

	"github.com/heroiclabs/nakama-common/runtime"
)

// CreateRoomResponse is returned to the client that minted a new room. The
// client joins the returned match and becomes host.
type CreateRoomResponse struct {
	MatchID string `json:"match_id"`
	Room    string `json:"room"`
}

// TryJoinRequest asks whether a named player may join an existing room.
type TryJoinRequest struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

// TryJoinResponse carries the join verdict. Status is one of proceedJoin,
// noRoom, fullRoom or nameInUse; MatchID is set only on proceedJoin.
type TryJoinResponse struct {
	Status  string `json:"status"`
	MatchID string `json:"match_id,omitempty"`
	Room    string `json:"room,omitempty"`
	Name    string `json:"name,omitempty"`
}

const (
	joinStatusProceed   = "proceedJoin"
	joinStatusNoRoom    = "noRoom"
	joinStatusFullRoom  = "fullRoom"
	joinStatusNameInUse = "nameInUse"
)

// RegisterRPCs registers the Nakama RPC endpoints against the shared session
// coordinator.
func RegisterRPCs(initializer runtime.Initializer, svc *app.Service) error {
	if err := initializer.RegisterRpc(RpcCreateRoom, rpcCreateRoom); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcTryJoin, makeRPCTryJoin(svc))
}

func rpcCreateRoom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Room codes are short, so re-roll on the rare collision with a live room.
	var room string
	for attempt := 0; attempt < 5; attempt++ {
		room = generateRoomCode(rng, roomCodeLength)
		existing, err := findRoomMatch(ctx, nk, room)
		if err != nil {
			logger.Error("CreateRoom: MatchList error: %v", err)
			return "", err
		}
		if existing == "" {
			break
		}
		room = ""
	}
	if room == "" {
		return "", errors.New("could not allocate a room code")
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameSpotIt, map[string]interface{}{"room": room})
	if err != nil {
		logger.Error("CreateRoom: MatchCreate error: %v", err)
		return "", err
	}
	logger.Info("CreateRoom: room %s -> match %s", room, matchID)

	b, _ := json.Marshal(CreateRoomResponse{MatchID: matchID, Room: room})
	return string(b), nil
}

func makeRPCTryJoin(svc *app.Service) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		var request TryJoinRequest
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			return "", errors.New("invalid try_join payload")
		}
		if request.Room == "" || request.Name == "" {
			return "", errors.New("room and name are required")
		}

		matchID, err := findRoomMatch(ctx, nk, request.Room)
		if err != nil {
			logger.Error("TryJoin: MatchList error: %v", err)
			return "", err
		}
		if matchID == "" {
			return marshalTryJoin(TryJoinResponse{Status: joinStatusNoRoom})
		}

		verdict := svc.TryJoin(request.Room, request.Name)
		switch {
		case verdict == nil:
			return marshalTryJoin(TryJoinResponse{
				Status:  joinStatusProceed,
				MatchID: matchID,
				Room:    request.Room,
				Name:    request.Name,
			})
		case errors.Is(verdict, registry.ErrNoRoom):
			return marshalTryJoin(TryJoinResponse{Status: joinStatusNoRoom})
		case errors.Is(verdict, registry.ErrRoomFull):
			return marshalTryJoin(TryJoinResponse{Status: joinStatusFullRoom})
		case errors.Is(verdict, registry.ErrNameInUse):
			return marshalTryJoin(TryJoinResponse{Status: joinStatusNameInUse})
		default:
			logger.Error("TryJoin: unexpected verdict: %v", verdict)
			return "", verdict
		}
	}
}

// findRoomMatch resolves a room code to its live match ID, or "" when no such
// room exists.
func findRoomMatch(ctx context.Context, nk runtime.NakamaModule, room string) (string, error) {
	query := fmt.Sprintf("+label.game:spotit +label.room:%s", room)

	limit := 1
	authoritative := true
	minSize := 0

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, nil, query)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0].MatchId, nil
}

func marshalTryJoin(resp TryJoinResponse) (string, error) {
	b, _ := json.Marshal(resp)
	return string(b), nil
}
