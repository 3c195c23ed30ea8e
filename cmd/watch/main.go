// Command watch follows a game as a spectator and prints the board after
// every change.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbeisheim/deckmate-backend/internal/model"
	"github.com/benbeisheim/deckmate-backend/internal/ws"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:      "watch",
		Usage:     "follow a Deckmate game from the terminal",
		ArgsUsage: "GAME_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Value: "localhost:3000",
				Usage: "host:port of the Deckmate server",
			},
			&cli.StringFlag{
				Name:  "player",
				Usage: "player id to connect as (a random spectator id by default)",
			},
			&cli.BoolFlag{
				Name:  "secure",
				Usage: "connect with wss://",
			},
		},
		Action: run,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	gameID := cmd.Args().First()
	if gameID == "" {
		return errors.New("a game id is required")
	}
	playerID := cmd.String("player")
	if playerID == "" {
		playerID = "spectator-" + uuid.New().String()[:8]
	}

	wsURL := gameURL(cmd.String("server"), gameID, playerID, cmd.Bool("secure"))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		var msg ws.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}
		if err := render(os.Stdout, msg); err != nil {
			return err
		}
	}
}

func gameURL(server, gameID, playerID string, secure bool) string {
	u := url.URL{
		Scheme: "ws",
		Host:   server,
		Path:   "/ws/game/" + gameID,
	}
	if secure {
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("playerId", playerID)
	u.RawQuery = q.Encode()
	return u.String()
}

func render(w io.Writer, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeGameState:
		var state model.GameState
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			return fmt.Errorf("bad game state: %w", err)
		}
		fmt.Fprintf(w, "\n%s", state.Board)
		fmt.Fprintf(w, "a: %s  b: %s  moves: %d  turn: %s\n",
			orOpen(state.Players.A), orOpen(state.Players.B), state.MoveCount, orOpen(state.CurrentTurn))
		if ply := state.LastMove; ply != nil {
			fmt.Fprintf(w, "last: %s %s by %s\n", ply.Piece, ply.Move, ply.Player)
		}
	case ws.MessageTypeError:
		var text string
		json.Unmarshal(msg.Payload, &text)
		fmt.Fprintf(w, "server error: %s\n", text)
	}
	return nil
}

func orOpen(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
