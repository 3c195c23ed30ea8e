package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func echoApp() *fiber.App {
	app := fiber.New()
	app.Get("/who", EnsurePlayerID(), func(c *fiber.Ctx) error {
		return c.SendString(PlayerID(c))
	})
	app.Get("/ws/game/:gameId", EnsurePlayerID(), WebSocketUpgrade(), func(c *fiber.Ctx) error {
		return c.SendString("upgrade " + c.Params("gameId"))
	})
	return app
}

func TestEnsurePlayerID(t *testing.T) {
	app := echoApp()

	tests := []struct {
		name       string
		target     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"header", "/who", "alice", http.StatusOK, "alice"},
		{"query", "/who?playerId=bob", "", http.StatusOK, "bob"},
		{"header wins", "/who?playerId=bob", "alice", http.StatusOK, "alice"},
		{"missing", "/who", "", http.StatusUnauthorized, ""},
		{"blank", "/who", "   ", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("X-Player-ID", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != tt.wantBody {
					t.Errorf("body = %q, want %q", body, tt.wantBody)
				}
			}
		})
	}
}

func TestWebSocketUpgrade(t *testing.T) {
	app := echoApp()

	req := httptest.NewRequest(http.MethodGet, "/ws/game/g1?playerId=alice", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("plain request: status = %d, want %d", resp.StatusCode, fiber.StatusUpgradeRequired)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws/game/g1?playerId=alice", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "upgrade g1" {
		t.Errorf("upgrade request: %d %q", resp.StatusCode, body)
	}
}
