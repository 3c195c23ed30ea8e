// Command server runs the Deckmate backend.
//
// Modes:
//
//	server (default)  REST API and game websocket over HTTP
//	mcp               MCP tools over stdio
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbeisheim/deckmate-backend/internal/config"
	"github.com/benbeisheim/deckmate-backend/internal/controller"
	"github.com/benbeisheim/deckmate-backend/internal/mcp"
	"github.com/benbeisheim/deckmate-backend/internal/service"
	"github.com/benbeisheim/deckmate-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	mode := "server"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	gameManager, err := newGameManager(cfg)
	if err != nil {
		log.Fatalf("failed to initialize games: %v", err)
	}
	defer gameManager.Close()
	gameService := service.NewGameService(gameManager)

	switch mode {
	case "mcp":
		// stdout carries the protocol.
		log.SetOutput(os.Stderr)
		log.Infof("serving MCP tools over stdio")
		if err := mcp.NewServer(gameService).ServeStdio(); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}
	case "server":
		runHTTPServer(cfg, gameService)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q, use 'server' (default) or 'mcp'\n", mode)
		os.Exit(2)
	}
}

func newGameManager(cfg config.Config) (*service.GameManager, error) {
	var st store.Store
	if cfg.DataDir != "" {
		fileStore, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		st = fileStore
		log.Infof("persisting games to %s", cfg.DataDir)
	}

	gameManager := service.NewGameManager(st, cfg.MaxGames)
	if err := gameManager.LoadGames(); err != nil {
		log.Warnf("failed to load stored games: %v", err)
	}
	return gameManager, nil
}

func newApp(cfg config.Config, gameService *service.GameService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Deckmate",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	controller.SetupRoutes(app, gameService, cfg.Origins())
	return app
}

func runHTTPServer(cfg config.Config, gameService *service.GameService) {
	app := newApp(cfg, gameService)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Infof("HTTP server listening on %s", cfg.Addr())
		if err := app.Listen(cfg.Addr()); err != nil {
			log.Errorf("HTTP server failed: %v", err)
			cancel()
		}
	}()

	if cfg.Ngrok.Enabled {
		go serveNgrok(ctx, cfg.Ngrok, app)
	}

	<-ctx.Done()
	log.Infof("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}
}

// serveNgrok exposes app through a public ngrok endpoint until ctx ends.
func serveNgrok(ctx context.Context, cfg config.Ngrok, app *fiber.App) {
	if cfg.AuthToken == "" {
		log.Warnf("ngrok enabled but NGROK_AUTHTOKEN is not set")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		log.Errorf("failed to start ngrok tunnel: %v", err)
		return
	}
	log.Infof("ngrok tunnel established: %s", tun.URL())

	// app.Listener serves until the app shuts down, which also closes tun.
	if err := app.Listener(tun); err != nil {
		log.Errorf("ngrok listener stopped: %v", err)
	}
}
