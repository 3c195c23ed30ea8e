package service

import (
	"fmt"
	"strings"

	"github.com/benbeisheim/deckmate-backend/internal/model"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) CreateGame(name string) (string, error) {
	gameID := uuid.New().String()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Game " + gameID[:8]
	}

	if _, err := gs.gameManager.CreateGame(gameID, name); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) ListGames() []GameSummary {
	return gs.gameManager.ListGames()
}

func (gs *GameService) DeleteGame(gameID string) error {
	return gs.gameManager.DeleteGame(gameID)
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.Slot, error) {
	return gs.gameManager.AddPlayerToGame(gameID, playerID)
}

func (gs *GameService) GetGameState(gameID string) (model.GameState, error) {
	return gs.gameManager.GetGameState(gameID)
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.Move) (model.GameState, error) {
	return gs.gameManager.MakeMove(gameID, playerID, move)
}

func (gs *GameService) ResetBoard(gameID string, playerID string) (model.GameState, error) {
	return gs.gameManager.ResetBoard(gameID, playerID)
}

func (gs *GameService) ReplaceBoard(gameID string, playerID string, grid model.WireGrid) (model.GameState, error) {
	return gs.gameManager.ReplaceBoard(gameID, playerID, grid)
}

func (gs *GameService) LegalMoves(gameID string, from model.Position) ([]model.Position, error) {
	return gs.gameManager.LegalMoves(gameID, from)
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}
