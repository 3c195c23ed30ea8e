package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbeisheim/deckmate-backend/internal/model"
	"github.com/benbeisheim/deckmate-backend/internal/service"
	"github.com/benbeisheim/deckmate-backend/internal/ws"
	"github.com/gofiber/fiber/v2"
	gorilla "github.com/gorilla/websocket"
)

func newTestApp(t *testing.T, maxGames int) (*fiber.App, *service.GameService) {
	t.Helper()
	gm := service.NewGameManager(nil, maxGames)
	t.Cleanup(gm.Close)
	gs := service.NewGameService(gm)

	app := fiber.New()
	SetupRoutes(app, gs, nil)
	return app, gs
}

func doJSON(t *testing.T, app *fiber.App, method, target, playerID string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if playerID != "" {
		req.Header.Set("X-Player-ID", playerID)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func createGame(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/game/create", "alice", map[string]string{"name": "friday"})
	if status != http.StatusCreated {
		t.Fatalf("create: %d %s", status, body)
	}
	var created struct {
		GameID string `json:"game_id"`
	}
	json.Unmarshal(body, &created)
	return created.GameID
}

func TestGameController_Lifecycle(t *testing.T) {
	app, _ := newTestApp(t, 0)
	gameID := createGame(t, app)

	status, body := doJSON(t, app, http.MethodGet, "/api/game", "alice", nil)
	if status != http.StatusOK || !bytes.Contains(body, []byte(`"name":"friday"`)) {
		t.Errorf("list: %d %s", status, body)
	}

	status, body = doJSON(t, app, http.MethodPost, "/api/game/join/"+gameID, "alice", nil)
	if status != http.StatusOK || !bytes.Contains(body, []byte(`"slot":"a"`)) {
		t.Errorf("join alice: %d %s", status, body)
	}

	move := model.Move{From: model.Position{Row: 5, Col: 2}, To: model.Position{Row: 4, Col: 3}}
	status, _ = doJSON(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "alice", move)
	if status != http.StatusConflict {
		t.Errorf("move before opponent joined: got %d, want 409", status)
	}

	status, body = doJSON(t, app, http.MethodPost, "/api/game/join/"+gameID, "bob", nil)
	if status != http.StatusOK || !bytes.Contains(body, []byte(`"slot":"b"`)) {
		t.Errorf("join bob: %d %s", status, body)
	}
	status, _ = doJSON(t, app, http.MethodPost, "/api/game/join/"+gameID, "carol", nil)
	if status != http.StatusConflict {
		t.Errorf("join full game: got %d, want 409", status)
	}

	status, body = doJSON(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "alice", move)
	if status != http.StatusOK {
		t.Fatalf("move: %d %s", status, body)
	}
	var state model.GameState
	if err := json.Unmarshal(body, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Board.At(move.To) != model.Checker || state.CurrentTurn != "bob" {
		t.Errorf("move not applied: %+v", state)
	}

	status, body = doJSON(t, app, http.MethodGet, "/api/game/"+gameID, "carol", nil)
	if status != http.StatusOK || !bytes.Contains(body, []byte(`"moveCount":1`)) {
		t.Errorf("state: %d %s", status, body)
	}

	status, body = doJSON(t, app, http.MethodPost, "/api/game/"+gameID+"/reset", "bob", nil)
	if status != http.StatusOK {
		t.Errorf("reset: %d %s", status, body)
	}
	json.Unmarshal(body, &state)
	if state.Board != model.InitialLayout() {
		t.Error("reset did not restore the initial layout")
	}

	status, _ = doJSON(t, app, http.MethodDelete, "/api/game/"+gameID, "alice", nil)
	if status != http.StatusNoContent {
		t.Errorf("delete: got %d", status)
	}
	status, _ = doJSON(t, app, http.MethodGet, "/api/game/"+gameID, "alice", nil)
	if status != http.StatusNotFound {
		t.Errorf("state after delete: got %d, want 404", status)
	}
}

func TestGameController_MoveErrors(t *testing.T) {
	app, gs := newTestApp(t, 0)
	gameID := createGame(t, app)
	gs.JoinGame(gameID, "alice")
	gs.JoinGame(gameID, "bob")

	tests := []struct {
		name     string
		playerID string
		body     interface{}
		want     int
	}{
		{"illegal", "alice", model.Move{From: model.Position{Row: 5, Col: 2}, To: model.Position{Row: 6, Col: 2}}, http.StatusUnprocessableEntity},
		{"out of turn", "bob", model.Move{From: model.Position{Row: 1, Col: 0}, To: model.Position{Row: 2, Col: 0}}, http.StatusConflict},
		{"opponent's piece", "alice", model.Move{From: model.Position{Row: 1, Col: 0}, To: model.Position{Row: 2, Col: 0}}, http.StatusForbidden},
		{"spectator", "carol", model.Move{From: model.Position{Row: 5, Col: 2}, To: model.Position{Row: 4, Col: 3}}, http.StatusForbidden},
		{"bad body", "alice", "nope", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, http.MethodPost, "/api/game/"+gameID+"/move", tt.playerID, tt.body)
			if status != tt.want {
				t.Errorf("got %d (%s), want %d", status, body, tt.want)
			}
		})
	}

	status, _ := doJSON(t, app, http.MethodPost, "/api/game/missing/move", "alice", tests[0].body)
	if status != http.StatusNotFound {
		t.Errorf("unknown game: got %d, want 404", status)
	}
}

func TestGameController_LegalMoves(t *testing.T) {
	app, _ := newTestApp(t, 0)
	gameID := createGame(t, app)

	status, body := doJSON(t, app, http.MethodGet, "/api/game/"+gameID+"/moves?row=5&col=2", "alice", nil)
	if status != http.StatusOK {
		t.Fatalf("moves: %d %s", status, body)
	}
	var resp struct {
		Moves []model.Position `json:"moves"`
	}
	json.Unmarshal(body, &resp)
	want := []model.Position{{Row: 4, Col: 1}, {Row: 4, Col: 3}}
	if len(resp.Moves) != 2 || resp.Moves[0] != want[0] || resp.Moves[1] != want[1] {
		t.Errorf("moves = %v, want %v", resp.Moves, want)
	}

	for _, q := range []string{"?row=8&col=0", "?col=1", "?row=x&col=1"} {
		status, _ := doJSON(t, app, http.MethodGet, "/api/game/"+gameID+"/moves"+q, "alice", nil)
		if status != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", q, status)
		}
	}
}

func TestGameController_LobbyFull(t *testing.T) {
	app, _ := newTestApp(t, 1)
	createGame(t, app)

	status, _ := doJSON(t, app, http.MethodPost, "/api/game/create", "alice", map[string]string{"name": "second"})
	if status != http.StatusConflict {
		t.Errorf("got %d, want 409", status)
	}
}

func TestGameController_RequiresPlayerID(t *testing.T) {
	app, _ := newTestApp(t, 0)
	status, _ := doJSON(t, app, http.MethodGet, "/api/game", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", status)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrGameNotFound, fiber.StatusNotFound},
		{service.ErrLobbyFull, fiber.StatusConflict},
		{model.ErrNotYourTurn, fiber.StatusConflict},
		{model.ErrPlayerNotInGame, fiber.StatusForbidden},
		{model.ErrNotYourPiece, fiber.StatusForbidden},
		{model.ErrIllegalMove, fiber.StatusUnprocessableEntity},
		{io.EOF, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// wsClient reads websocket messages until one matches.
type wsClient struct {
	conn *gorilla.Conn
}

func (c *wsClient) until(t *testing.T, match func(ws.Message) bool) ws.Message {
	t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg ws.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func stateMatching(t *testing.T, match func(model.GameState) bool) func(ws.Message) bool {
	return func(msg ws.Message) bool {
		if msg.Type != ws.MessageTypeGameState {
			return false
		}
		var state model.GameState
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		return match(state)
	}
}

func isError(msg ws.Message) bool { return msg.Type == ws.MessageTypeError }

func TestWebSocketController(t *testing.T) {
	app, gs := newTestApp(t, 0)
	gameID, err := gs.CreateGame("live")
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	gs.JoinGame(gameID, "alice")
	gs.JoinGame(gameID, "bob")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { app.Shutdown() })

	dial := func(playerID string) *wsClient {
		url := "ws://" + ln.Addr().String() + "/ws/game/" + gameID + "?playerId=" + playerID
		conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial %s: %v", playerID, err)
		}
		t.Cleanup(func() { conn.Close() })
		return &wsClient{conn: conn}
	}

	alice := dial("alice")
	alice.until(t, stateMatching(t, func(s model.GameState) bool { return s.Players.B == "bob" }))
	spectator := dial("carol")
	spectator.until(t, stateMatching(t, func(model.GameState) bool { return true }))

	move, _ := json.Marshal(model.Move{From: model.Position{Row: 5, Col: 2}, To: model.Position{Row: 4, Col: 3}})
	if err := alice.conn.WriteJSON(ws.Message{Type: ws.MessageTypeMove, Payload: move}); err != nil {
		t.Fatalf("write move: %v", err)
	}
	spectator.until(t, stateMatching(t, func(s model.GameState) bool {
		return s.MoveCount == 1 && s.Board.At(model.Position{Row: 4, Col: 3}) == model.Checker
	}))

	t.Run("rejected move", func(t *testing.T) {
		alice.conn.WriteJSON(ws.Message{Type: ws.MessageTypeMove, Payload: move})
		msg := alice.until(t, isError)
		var text string
		json.Unmarshal(msg.Payload, &text)
		if text != model.ErrNotYourTurn.Error() {
			t.Errorf("error payload = %q", text)
		}
	})

	t.Run("spectator cannot move", func(t *testing.T) {
		spectator.conn.WriteJSON(ws.Message{Type: ws.MessageTypeReset})
		spectator.until(t, isError)
	})

	t.Run("unknown type", func(t *testing.T) {
		alice.conn.WriteJSON(ws.Message{Type: "resign"})
		alice.until(t, isError)
	})

	t.Run("reset", func(t *testing.T) {
		alice.conn.WriteJSON(ws.Message{Type: ws.MessageTypeReset})
		spectator.until(t, stateMatching(t, func(s model.GameState) bool {
			return s.MoveCount == 0 && s.Board == model.InitialLayout()
		}))
	})

	t.Run("duplicate connection", func(t *testing.T) {
		dup := dial("alice")
		dup.until(t, isError)
	})
}

func TestGameController_ReplaceBoard(t *testing.T) {
	app, gs := newTestApp(t, 0)
	gameID := createGame(t, app)
	gs.JoinGame(gameID, "alice")

	var board model.Board
	board.Set(model.Position{Row: 3, Col: 3}, model.Queen)
	target := "/api/game/" + gameID + "/board"

	status, body := doJSON(t, app, http.MethodPut, target, "alice", map[string]interface{}{"board": model.Encode(board)})
	if status != http.StatusOK {
		t.Fatalf("replace: %d %s", status, body)
	}
	var state model.GameState
	json.Unmarshal(body, &state)
	if state.Board != board {
		t.Errorf("board not replaced:\n%s", state.Board)
	}

	status, body = doJSON(t, app, http.MethodPut, target, "alice", map[string]interface{}{"board": [][]string{{"_"}}})
	if status != http.StatusOK {
		t.Fatalf("replace malformed: %d %s", status, body)
	}
	json.Unmarshal(body, &state)
	if state.Board != model.InitialLayout() {
		t.Error("malformed board did not reset to the initial layout")
	}

	status, _ = doJSON(t, app, http.MethodPut, target, "carol", map[string]interface{}{"board": model.Encode(board)})
	if status != http.StatusForbidden {
		t.Errorf("spectator replace: got %d, want 403", status)
	}
}
