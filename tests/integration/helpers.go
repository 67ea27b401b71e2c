package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-go/v2"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1"
	Port      = 7350
)

type TestClient struct {
	Client   *nakama.Client
	Session  *nakama.Session
	Socket   *nakama.Socket
	UserID   string
	Username string
}

func NewTestClient(t *testing.T) *TestClient {
	client := nakama.NewClient(ServerKey, Host, Port, false)

	// Create unique ID
	deviceID := fmt.Sprintf("test_device_%d", time.Now().UnixNano())

	// Authenticate; the server hook assigns new accounts a generated username,
	// which becomes the player's in-room name.
	session, err := client.AuthenticateDevice(context.Background(), deviceID, true, "")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}

	// Create Socket
	socket := client.NewSocket()
	if err := socket.Connect(context.Background(), session, true); err != nil {
		t.Fatalf("Failed to connect socket: %v", err)
	}

	return &TestClient{
		Client:   client,
		Session:  session,
		Socket:   socket,
		UserID:   session.UserId,
		Username: session.Username,
	}
}

func (tc *TestClient) Close() {
	if tc.Socket != nil {
		tc.Socket.Close()
	}
}

type createRoomResponse struct {
	MatchID string `json:"match_id"`
	Room    string `json:"room"`
}

type tryJoinResponse struct {
	Status  string `json:"status"`
	MatchID string `json:"match_id"`
	Room    string `json:"room"`
	Name    string `json:"name"`
}

// CreateRoom calls the 'create_room' RPC and joins the returned match as host.
func (tc *TestClient) CreateRoom(t *testing.T) (string, string) {
	rpc, err := tc.Client.RpcFunc(context.Background(), tc.Session, "create_room", "{}")
	if err != nil {
		t.Fatalf("RPC create_room failed: %v", err)
	}

	var resp createRoomResponse
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil {
		t.Fatalf("RPC create_room returned invalid payload: %v", err)
	}
	if resp.MatchID == "" || resp.Room == "" {
		t.Fatalf("RPC create_room returned empty response: %q", rpc.Payload)
	}

	if _, err := tc.Socket.JoinMatch(context.Background(), nil, resp.MatchID, nil); err != nil {
		t.Fatalf("Failed to join match %s: %v", resp.MatchID, err)
	}

	return resp.MatchID, resp.Room
}

// TryJoin calls the 'try_join' RPC and returns the verdict.
func (tc *TestClient) TryJoin(t *testing.T, room, name string) tryJoinResponse {
	payload, _ := json.Marshal(map[string]string{"room": room, "name": name})
	rpc, err := tc.Client.RpcFunc(context.Background(), tc.Session, "try_join", string(payload))
	if err != nil {
		t.Fatalf("RPC try_join failed: %v", err)
	}

	var resp tryJoinResponse
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil {
		t.Fatalf("RPC try_join returned invalid payload: %v", err)
	}
	return resp
}

// JoinRoom runs the try_join verdict and commits the join on success.
func (tc *TestClient) JoinRoom(t *testing.T, room, name string) string {
	resp := tc.TryJoin(t, room, name)
	if resp.Status != "proceedJoin" {
		t.Fatalf("try_join verdict for %s in %s: %s", name, room, resp.Status)
	}

	if _, err := tc.Socket.JoinMatch(context.Background(), nil, resp.MatchID, nil); err != nil {
		t.Fatalf("Failed to join match %s: %v", resp.MatchID, err)
	}
	return resp.MatchID
}

// WaitForMatchState waits for a specific opcode from the socket.
func (tc *TestClient) WaitForMatchState(t *testing.T, opCode int64, timeout time.Duration) *rtapi.MatchData {
	ch := make(chan *rtapi.MatchData)

	originalHandler := tc.Socket.OnMatchData
	tc.Socket.OnMatchData = func(data *rtapi.MatchData) {
		if data.OpCode == opCode {
			ch <- data
		}
		if originalHandler != nil {
			originalHandler(data)
		}
	}

	select {
	case data := <-ch:
		return data
	case <-time.After(timeout):
		t.Fatalf("Timeout waiting for OpCode %d", opCode)
		return nil
	}
}
