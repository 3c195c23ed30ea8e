// Package mcp exposes the game service as Model Context Protocol tools so an
// agent can create, join and play games over stdio.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/benbeisheim/deckmate-backend/internal/model"
	"github.com/benbeisheim/deckmate-backend/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "Deckmate"
	ServerVersion = "1.0.0"
)

const instructions = `Deckmate - MCP Interface

Two players share an 8x8 board. Player a moves the checkers (●) up the board;
player b moves the officers (♜ ♞ ♝ ♛ ♚ ♟) down it. Rows and columns are 0-7,
row 0 is the top.

AVAILABLE TOOLS:
- create_game: Create a game in the lobby
- list_games: List the lobby
- join_game: Take a seat in a game
- game_state: Show the board and whose turn it is
- legal_moves: List the legal destinations of the piece on a square
- move: Move a piece
- reset_board: Put every piece back on its starting square`

// Server wires the MCP tools to a GameService.
type Server struct {
	gameService *service.GameService
	mcpServer   *server.MCPServer
}

func NewServer(gameService *service.GameService) *Server {
	s := &Server{gameService: gameService}
	s.mcpServer = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio blocks serving the tools over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func squareProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"minimum":     0,
		"maximum":     model.BoardSize - 1,
		"description": description,
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new game in the lobby",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": stringProp("Display name of the game (optional)"),
			},
		},
	}, s.handleCreateGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List every game in the lobby",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListGames)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "join_game",
		Description: "Take a seat in a game. The first player seated moves the checkers and has the first turn",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id":   stringProp("Game ID"),
				"player_id": stringProp("Your player ID"),
			},
			Required: []string{"game_id", "player_id"},
		},
	}, s.handleJoinGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the board, the players and whose turn it is",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": stringProp("Game ID"),
			},
			Required: []string{"game_id"},
		},
	}, s.handleGameState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "legal_moves",
		Description: "List the squares the piece on (row, col) may move to",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": stringProp("Game ID"),
				"row":     squareProp("Row of the piece"),
				"col":     squareProp("Column of the piece"),
			},
			Required: []string{"game_id", "row", "col"},
		},
	}, s.handleLegalMoves)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move a piece. Only the player whose turn it is may move",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id":   stringProp("Game ID"),
				"player_id": stringProp("Your player ID"),
				"from_row":  squareProp("Row the piece moves from"),
				"from_col":  squareProp("Column the piece moves from"),
				"to_row":    squareProp("Row the piece moves to"),
				"to_col":    squareProp("Column the piece moves to"),
			},
			Required: []string{"game_id", "player_id", "from_row", "from_col", "to_row", "to_col"},
		},
	}, s.handleMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_board",
		Description: "Put every piece back on its starting square. Seats and turn are kept",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id":   stringProp("Game ID"),
				"player_id": stringProp("Your player ID"),
			},
			Required: []string{"game_id", "player_id"},
		},
	}, s.handleResetBoard)
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	return args
}

func requireString(args map[string]interface{}, key string) (string, error) {
	v, _ := args[key].(string)
	if v = strings.TrimSpace(v); v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// requireSquare reads a board coordinate. JSON numbers arrive as float64.
func requireSquare(args map[string]interface{}, key string) (int, error) {
	var n int
	switch v := args[key].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number", key)
		}
		n = int(v)
	case int:
		n = v
	default:
		return 0, fmt.Errorf("%s is required", key)
	}
	if n < 0 || n >= model.BoardSize {
		return 0, fmt.Errorf("%s must be between 0 and %d", key, model.BoardSize-1)
	}
	return n, nil
}

func (s *Server) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, _ := arguments(request)["name"].(string)

	gameID, err := s.gameService.CreateGame(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created game: %s\n", gameID)), nil
}

func (s *Server) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	games := s.gameService.ListGames()

	var b strings.Builder
	fmt.Fprintf(&b, "Games (%d):\n\n", len(games))
	for _, g := range games {
		fmt.Fprintf(&b, "- %s %q (a: %s, b: %s, moves: %d, created: %s)\n",
			g.ID, g.Name, seat(g.Players.A), seat(g.Players.B), g.MoveCount, g.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleJoinGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, err := requireString(args, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	playerID, err := requireString(args, "player_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	slot, err := s.gameService.JoinGame(gameID, playerID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	team := "checkers"
	if slot == model.SlotB {
		team = "officers"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Joined game %s in slot %s (%s)\n", gameID, slot, team)), nil
}

func (s *Server) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := requireString(arguments(request), "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.gameService.GetGameState(gameID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(state)), nil
}

func (s *Server) handleLegalMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, err := requireString(args, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from, err := requirePosition(args, "row", "col")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	moves, err := s.gameService.LegalMoves(gameID, from)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(moves) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No legal moves from %s\n", from)), nil
	}
	targets := make([]string, len(moves))
	for i, m := range moves {
		targets[i] = m.String()
	}
	return mcp.NewToolResultText(fmt.Sprintf("Legal moves from %s: %s\n", from, strings.Join(targets, " "))), nil
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, err := requireString(args, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	playerID, err := requireString(args, "player_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from, err := requirePosition(args, "from_row", "from_col")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := requirePosition(args, "to_row", "to_col")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.gameService.HandleMove(gameID, playerID, model.Move{From: from, To: to})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(state)), nil
}

func (s *Server) handleResetBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, err := requireString(args, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	playerID, err := requireString(args, "player_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.gameService.ResetBoard(gameID, playerID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Board reset.\n\n" + formatGameState(state)), nil
}

func requirePosition(args map[string]interface{}, rowKey, colKey string) (model.Position, error) {
	row, err := requireSquare(args, rowKey)
	if err != nil {
		return model.Position{}, err
	}
	col, err := requireSquare(args, colKey)
	if err != nil {
		return model.Position{}, err
	}
	return model.Position{Row: row, Col: col}, nil
}

func seat(playerID string) string {
	if playerID == "" {
		return "open"
	}
	return playerID
}

func formatGameState(state model.GameState) string {
	var b strings.Builder
	b.WriteString(state.Board.String())
	fmt.Fprintf(&b, "\nPlayers: a (checkers) = %s, b (officers) = %s\n", seat(state.Players.A), seat(state.Players.B))
	fmt.Fprintf(&b, "Moves played: %d\n", state.MoveCount)
	if state.CurrentTurn != "" {
		fmt.Fprintf(&b, "Turn: %s\n", state.CurrentTurn)
	}
	if state.LastMove != nil {
		fmt.Fprintf(&b, "Last move: %s %s by %s", state.LastMove.Piece, state.LastMove.Move, state.LastMove.Player)
		if state.LastMove.Captured != nil {
			fmt.Fprintf(&b, ", captured %s", *state.LastMove.Captured)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatMoveResult(state model.GameState) string {
	var b strings.Builder
	if ply := state.LastMove; ply != nil {
		fmt.Fprintf(&b, "Moved %s %s", ply.Piece, ply.Move)
		if ply.Captured != nil {
			fmt.Fprintf(&b, " capturing %s", *ply.Captured)
		}
		b.WriteString(".\n\n")
	}
	b.WriteString(formatGameState(state))
	return b.String()
}
