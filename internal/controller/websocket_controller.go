package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/deckmate-backend/internal/middleware"
	"github.com/benbeisheim/deckmate-backend/internal/model"
	"github.com/benbeisheim/deckmate-backend/internal/service"
	"github.com/benbeisheim/deckmate-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// writeWait bounds a single write so a client that stops reading is dropped.
const writeWait = 10 * time.Second

var errConnReleased = errors.New("connection released")

// lockedConn serializes writes from the game's broadcaster and the read loop.
// Once released it refuses writes, since the underlying conn goes back to
// the websocket pool when the handler returns.
type lockedConn struct {
	conn     *websocket.Conn
	mu       sync.Mutex
	released bool
}

func (lc *lockedConn) WriteJSON(v interface{}) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if lc.released {
		return errConnReleased
	}
	if err := lc.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return lc.conn.WriteJSON(v)
}

func (lc *lockedConn) Close() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if lc.released {
		return nil
	}
	return lc.conn.Close()
}

func (lc *lockedConn) release() {
	lc.mu.Lock()
	lc.released = true
	lc.mu.Unlock()
}

// HandleConnection subscribes the connection to its game and processes
// inbound messages until the client goes away.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID, _ := c.Locals(middleware.PlayerIDKey).(string)
	conn := &lockedConn{conn: c}

	if err := wsc.gameService.RegisterConnection(gameID, playerID, conn); err != nil {
		log.Warnf("game %s: refusing connection for %s: %v", gameID, playerID, err)
		conn.WriteJSON(ws.NewErrorMessage(err.Error()))
		conn.Close()
		conn.release()
		return
	}
	defer func() {
		wsc.gameService.UnregisterConnection(gameID, playerID, conn)
		conn.release()
	}()

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("game %s: read error from %s: %v", gameID, playerID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			conn.WriteJSON(ws.NewErrorMessage("malformed message"))
			continue
		}

		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			log.Debugf("game %s: %s from %s rejected: %v", gameID, msg.Type, playerID, err)
			conn.WriteJSON(ws.NewErrorMessage(err.Error()))
		}
	}
}

// handleMessage applies one inbound message. The resulting state reaches
// every subscriber through the game's broadcast.
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.Move
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return errors.New("invalid move payload")
		}
		_, err := wsc.gameService.HandleMove(gameID, playerID, move)
		return err

	case ws.MessageTypeReset:
		_, err := wsc.gameService.ResetBoard(gameID, playerID)
		return err

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}
