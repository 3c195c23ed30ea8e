package controller

import (
	"errors"

	"github.com/benbeisheim/deckmate-backend/internal/middleware"
	"github.com/benbeisheim/deckmate-backend/internal/model"
	"github.com/benbeisheim/deckmate-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

type createGameRequest struct {
	Name string `json:"name"`
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}

	gameID, err := gc.gameService.CreateGame(req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) ListGames(c *fiber.Ctx) error {
	games := gc.gameService.ListGames()
	return c.JSON(fiber.Map{
		"count": len(games),
		"games": games,
	})
}

func (gc *GameController) DeleteGame(c *fiber.Ctx) error {
	if err := gc.gameService.DeleteGame(c.Params("gameId")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := middleware.PlayerID(c)

	slot, err := gc.gameService.JoinGame(gameID, playerID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"slot":    slot,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(gameState)
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var move model.Move
	if err := c.BodyParser(&move); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid move",
		})
	}

	gameState, err := gc.gameService.HandleMove(c.Params("gameId"), middleware.PlayerID(c), move)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	from := model.Position{Row: c.QueryInt("row", -1), Col: c.QueryInt("col", -1)}
	if !from.InBounds() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "row and col must be between 0 and 7",
		})
	}

	moves, err := gc.gameService.LegalMoves(c.Params("gameId"), from)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"from":  from,
		"moves": moves,
	})
}

func (gc *GameController) ResetBoard(c *fiber.Ctx) error {
	gameState, err := gc.gameService.ResetBoard(c.Params("gameId"), middleware.PlayerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(gameState)
}

type replaceBoardRequest struct {
	Board model.WireGrid `json:"board"`
}

func (gc *GameController) ReplaceBoard(c *fiber.Ctx) error {
	var req replaceBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	gameState, err := gc.gameService.ReplaceBoard(c.Params("gameId"), middleware.PlayerID(c), req.Board)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(gameState)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrLobbyFull),
		errors.Is(err, service.ErrGameExists),
		errors.Is(err, model.ErrGameFull),
		errors.Is(err, model.ErrNotYourTurn),
		errors.Is(err, model.ErrWaitingForOpponent):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrPlayerNotInGame),
		errors.Is(err, model.ErrNotYourPiece):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrIllegalMove):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
