package nakama

const (
	// RpcCreateRoom mints a room code and creates its authoritative match.
	RpcCreateRoom = "create_room"

	// RpcTryJoin is the pre-flight join check clients call before joining a
	// room by code.
	RpcTryJoin = "try_join"

	// MatchNameSpotIt is the authoritative match handler name registered with Nakama.
	MatchNameSpotIt = "spotit_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpInitGame     int64 = 1
	OpEvaluateTurn int64 = 2
	OpLeaveGame    int64 = 3

	// Server -> Client events
	OpRoomInfo        int64 = 101
	OpPlayerJoining   int64 = 102
	OpGameInit        int64 = 103
	OpFlipCards       int64 = 104
	OpSuccessTurn     int64 = 105 // send privately
	OpBadTurn         int64 = 106 // send privately
	OpUpdateGameState int64 = 107
	OpFinishGame      int64 = 108
	OpPlayerLeft      int64 = 109
	OpGameError       int64 = 110 // send privately
)
