package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/deckmate-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
)

var (
	ErrGameFull           = errors.New("game is full")
	ErrGameClosed         = errors.New("game is closed")
	ErrPlayerNotInGame    = errors.New("player not in game")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrNotYourPiece       = errors.New("not your piece")
	ErrWaitingForOpponent = errors.New("waiting for opponent")
	ErrIllegalMove        = errors.New("illegal move")
	ErrAlreadyConnected   = errors.New("connection already exists")
)

// Conn is the subset of a websocket connection a game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// subscriber delivers snapshots to one connection. Only the newest
// undelivered snapshot is kept, so a slow reader never holds up the game.
type subscriber struct {
	conn    Conn
	pending chan GameState
	done    chan struct{}
}

func newSubscriber(conn Conn) *subscriber {
	return &subscriber{
		conn:    conn,
		pending: make(chan GameState, 1),
		done:    make(chan struct{}),
	}
}

// offer replaces any undelivered snapshot with state. Callers hold the
// game lock, so the second send always finds the slot free.
func (s *subscriber) offer(state GameState) {
	select {
	case <-s.pending:
	default:
	}
	select {
	case s.pending <- state:
	default:
	}
}

// The connections for a specific game
type GameConnections struct {
	connections map[string]*subscriber // playerID -> subscriber
	mu          sync.RWMutex
}

// GameState is the synchronized document of one game.
type GameState struct {
	Board       Board   `json:"board"`
	CurrentTurn string  `json:"currentTurn"`
	Players     Players `json:"players"`
	LastMove    *Ply    `json:"lastMove"`
	MoveCount   int     `json:"moveCount"`
}

// Game owns the board of one session and serializes every change to it.
// Snapshots are published in order to the registered connections.
type Game struct {
	ID        string
	Name      string
	CreatedAt time.Time

	mu          sync.Mutex
	state       GameState
	closed      bool
	connections *GameConnections
	onUpdate    func(GameState)
}

func NewGame(id, name string) *Game {
	return RestoreGame(id, name, time.Now(), newGameState())
}

// RestoreGame rebuilds a game from a previously saved document.
func RestoreGame(id, name string, createdAt time.Time, state GameState) *Game {
	return &Game{
		ID:          id,
		Name:        name,
		CreatedAt:   createdAt,
		state:       state,
		connections: NewGameConnections(),
	}
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*subscriber),
	}
}

func newGameState() GameState {
	return GameState{
		Board: InitialLayout(),
	}
}

// AddPlayer seats playerID in the first open slot. Rejoining returns the
// slot the player already holds. The first seated player claims the turn.
func (g *Game) AddPlayer(playerID string) (Slot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if slot, ok := g.state.Players.SlotOf(playerID); ok {
		return slot, nil
	}

	var slot Slot
	switch {
	case g.state.Players.A == "":
		g.state.Players.A = playerID
		slot = SlotA
	case g.state.Players.B == "":
		g.state.Players.B = playerID
		slot = SlotB
	default:
		return "", ErrGameFull
	}
	if g.state.CurrentTurn == "" {
		g.state.CurrentTurn = playerID
	}
	log.Infof("game %s: player %s seated in slot %s", g.ID, playerID, slot)
	g.publish()
	return slot, nil
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.state.Players.SlotOf(playerID)
	return ok
}

// MakeMove validates move against the current board and, if it is legal,
// it is playerID's turn and the piece belongs to playerID's side, applies it
// and hands the turn to the opponent.
func (g *Game) MakeMove(playerID string, move Move) (GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	slot, ok := g.state.Players.SlotOf(playerID)
	if !ok {
		return g.state, ErrPlayerNotInGame
	}
	if !g.state.Players.Full() {
		return g.state, ErrWaitingForOpponent
	}
	if g.state.CurrentTurn != playerID {
		return g.state, ErrNotYourTurn
	}
	if piece := g.state.Board.At(move.From); piece != Empty && piece.Team() != slot.Team() {
		return g.state, fmt.Errorf("%w: %s at %s", ErrNotYourPiece, piece, move.From)
	}
	if !IsLegal(g.state.Board, move) {
		log.Debugf("game %s: rejected %s from %s", g.ID, move, playerID)
		return g.state, fmt.Errorf("%w: %s", ErrIllegalMove, move)
	}

	ply := &Ply{Move: move, Piece: g.state.Board.At(move.From), Player: playerID}
	if sq, ok := CapturedSquare(g.state.Board, move); ok {
		ply.Captured = &sq
	}
	g.state.Board = ApplyMove(g.state.Board, move)
	g.state.LastMove = ply
	g.state.MoveCount++
	g.state.CurrentTurn = g.state.Players.Opponent(playerID)
	log.Infof("game %s: %s played %s %s", g.ID, playerID, ply.Piece, move)

	g.publish()
	return g.state, nil
}

// Reset puts the pieces back on the initial layout. Seats and turn are kept.
func (g *Game) Reset(playerID string) (GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.state.Players.SlotOf(playerID); !ok {
		return g.state, ErrPlayerNotInGame
	}
	g.state.Board = InitialLayout()
	g.state.LastMove = nil
	g.state.MoveCount = 0
	log.Infof("game %s: board reset by %s", g.ID, playerID)

	g.publish()
	return g.state, nil
}

// ReplaceBoard applies an externally written board. A grid that does not
// decode is discarded in favour of the initial layout.
func (g *Game) ReplaceBoard(grid WireGrid) GameState {
	board, err := Decode(grid)
	if err != nil {
		log.Warnf("game %s: discarding malformed board: %v", g.ID, err)
		board = InitialLayout()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.Board = board
	g.publish()
	return g.state
}

func (g *Game) LegalMoves(from Position) []Position {
	g.mu.Lock()
	defer g.mu.Unlock()

	return LegalMoves(g.state.Board, from)
}

// OnUpdate registers fn to be called with every new revision of the state,
// in order and while the game is locked.
func (g *Game) OnUpdate(fn func(GameState)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onUpdate = fn
}

// publish hands the current snapshot to the update hook and every
// subscriber. Callers hold g.mu; nothing here blocks on a connection.
func (g *Game) publish() {
	if g.closed {
		return
	}
	if g.onUpdate != nil {
		g.onUpdate(g.state)
	}

	g.connections.mu.RLock()
	defer g.connections.mu.RUnlock()
	for _, sub := range g.connections.connections {
		sub.offer(g.state)
	}
}

// Close stops delivering updates and drops every connection.
func (g *Game) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.mu.Unlock()

	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()
	for playerID, sub := range g.connections.connections {
		close(sub.done)
		sub.conn.Close()
		delete(g.connections.connections, playerID)
	}
}

// RegisterConnection subscribes conn to state updates and sends it the
// current state. Seated players and spectators may both subscribe; only one
// connection per id is kept.
func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrGameClosed
	}

	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()
	if _, exists := g.connections.connections[playerID]; exists {
		return ErrAlreadyConnected
	}
	sub := newSubscriber(conn)
	g.connections.connections[playerID] = sub
	sub.offer(g.state)
	go g.serve(playerID, sub)
	log.Debugf("game %s: registered connection for %s", g.ID, playerID)
	return nil
}

// UnregisterConnection removes conn if it is still the one registered for
// playerID.
func (g *Game) UnregisterConnection(playerID string, conn Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if current, exists := g.connections.connections[playerID]; exists && current.conn == conn {
		close(current.done)
		delete(g.connections.connections, playerID)
		log.Debugf("game %s: unregistered connection for %s", g.ID, playerID)
	}
}

func (g *Game) ConnectionCount() int {
	g.connections.mu.RLock()
	defer g.connections.mu.RUnlock()
	return len(g.connections.connections)
}

// serve writes snapshots to one subscriber until it is unregistered or a
// write fails.
func (g *Game) serve(playerID string, sub *subscriber) {
	for {
		select {
		case <-sub.done:
			return
		case state := <-sub.pending:
			if err := g.sendState(sub.conn, state); err != nil {
				log.Warnf("game %s: failed to send state to %s: %v", g.ID, playerID, err)
				g.UnregisterConnection(playerID, sub.conn)
				return
			}
		}
	}
}

func (g *Game) sendState(conn Conn, state GameState) error {
	jsonGameState, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return conn.WriteJSON(ws.Message{
		Type:    ws.MessageTypeGameState,
		Payload: json.RawMessage(jsonGameState),
	})
}
