// service/game_manager.go
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbeisheim/deckmate-backend/internal/model"
	"github.com/benbeisheim/deckmate-backend/internal/store"
	"github.com/gofiber/fiber/v2/log"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
	ErrLobbyFull    = errors.New("maximum number of games reached")
)

const DefaultMaxGames = 10

// GameSummary is a lobby entry.
type GameSummary struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"createdAt"`
	Players   model.Players `json:"players"`
	MoveCount int           `json:"moveCount"`
}

type GameManager struct {
	games    map[string]*model.Game
	store    store.Store
	maxGames int
	mu       sync.RWMutex
}

func NewGameManager(st store.Store, maxGames int) *GameManager {
	if st == nil {
		st = store.NewMemoryStore()
	}
	if maxGames <= 0 {
		maxGames = DefaultMaxGames
	}
	return &GameManager{
		games:    make(map[string]*model.Game),
		store:    st,
		maxGames: maxGames,
	}
}

// LoadGames restores stored game documents, oldest first, up to the lobby
// limit. Documents beyond the limit stay in the store untouched. A document
// whose board no longer decodes is restored with the initial layout.
func (gm *GameManager) LoadGames() error {
	ids, err := gm.store.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list stored games: %w", err)
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()

	records := make([]store.Record, 0, len(ids))
	for _, id := range ids {
		if _, exists := gm.games[id]; exists {
			continue
		}
		rec, err := gm.store.Load(id)
		if err != nil {
			log.Warnf("failed to load stored game %s: %v", id, err)
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	loaded := 0
	for _, rec := range records {
		if len(gm.games) >= gm.maxGames {
			log.Warnf("lobby limit of %d reached, leaving %d stored games unloaded", gm.maxGames, len(records)-loaded)
			break
		}
		gm.games[rec.ID] = gm.restoreGame(rec)
		loaded++
	}

	if loaded > 0 {
		log.Infof("loaded %d stored games", loaded)
	}
	return nil
}

func (gm *GameManager) restoreGame(rec store.Record) *model.Game {
	board, decodeErr := model.DecodeJSON(rec.Board)
	if decodeErr != nil {
		log.Warnf("game %s: stored board is corrupt, resetting: %v", rec.ID, decodeErr)
		board = model.InitialLayout()
	}
	state := model.GameState{
		Board:       board,
		CurrentTurn: rec.CurrentTurn,
		Players:     rec.Players,
		LastMove:    rec.LastMove,
		MoveCount:   rec.MoveCount,
	}
	game := model.RestoreGame(rec.ID, rec.Name, rec.CreatedAt, state)
	gm.watch(game)
	if decodeErr != nil {
		gm.save(game, state)
	}
	return game
}

// watch persists every revision of game.
func (gm *GameManager) watch(game *model.Game) {
	game.OnUpdate(func(state model.GameState) {
		gm.save(game, state)
	})
}

func (gm *GameManager) save(game *model.Game, state model.GameState) {
	board, err := json.Marshal(state.Board)
	if err != nil {
		log.Errorf("game %s: failed to encode board: %v", game.ID, err)
		return
	}
	rec := store.Record{
		ID:          game.ID,
		Name:        game.Name,
		CreatedAt:   game.CreatedAt,
		Board:       board,
		CurrentTurn: state.CurrentTurn,
		Players:     state.Players,
		MoveCount:   state.MoveCount,
		LastMove:    state.LastMove,
	}
	if err := gm.store.Save(rec); err != nil {
		// The in-memory game stays authoritative.
		log.Warnf("game %s: failed to persist: %v", game.ID, err)
	}
}

func (gm *GameManager) CreateGame(gameID, name string) (*model.Game, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return nil, ErrGameExists
	}
	if len(gm.games) >= gm.maxGames {
		return nil, ErrLobbyFull
	}

	game := model.NewGame(gameID, name)
	gm.watch(game)
	gm.games[gameID] = game
	gm.save(game, game.GetState())
	log.Infof("created game %s (%q)", gameID, name)
	return game, nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}

	return game, nil
}

// ListGames returns the lobby, oldest game first.
func (gm *GameManager) ListGames() []GameSummary {
	gm.mu.RLock()
	games := make([]*model.Game, 0, len(gm.games))
	for _, game := range gm.games {
		games = append(games, game)
	}
	gm.mu.RUnlock()

	summaries := make([]GameSummary, 0, len(games))
	for _, game := range games {
		state := game.GetState()
		summaries = append(summaries, GameSummary{
			ID:        game.ID,
			Name:      game.Name,
			CreatedAt: game.CreatedAt,
			Players:   state.Players,
			MoveCount: state.MoveCount,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

func (gm *GameManager) DeleteGame(gameID string) error {
	gm.mu.Lock()
	game, exists := gm.games[gameID]
	if !exists {
		gm.mu.Unlock()
		return ErrGameNotFound
	}
	delete(gm.games, gameID)
	gm.mu.Unlock()

	game.Close()
	if err := gm.store.Delete(gameID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to delete stored game: %w", err)
	}
	log.Infof("deleted game %s", gameID)
	return nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.Slot, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}

	return game.AddPlayer(playerID)
}

func (gm *GameManager) GetGameState(gameID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}

	return game.GetState(), nil
}

func (gm *GameManager) MakeMove(gameID string, playerID string, move model.Move) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}

	return game.MakeMove(playerID, move)
}

func (gm *GameManager) ResetBoard(gameID string, playerID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}

	return game.Reset(playerID)
}

// ReplaceBoard applies a board written by a seated player. A grid that does
// not decode resets the game to the initial layout.
func (gm *GameManager) ReplaceBoard(gameID string, playerID string, grid model.WireGrid) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	if !game.IsPlayerInGame(playerID) {
		return model.GameState{}, model.ErrPlayerNotInGame
	}

	return game.ReplaceBoard(grid), nil
}

func (gm *GameManager) LegalMoves(gameID string, from model.Position) ([]model.Position, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}

	return game.LegalMoves(from), nil
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}

	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}

	game.UnregisterConnection(playerID, conn)
}

// Close shuts down every game.
func (gm *GameManager) Close() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for _, game := range gm.games {
		game.Close()
	}
}
