// Package config reads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

const (
	DefaultPort           = 3000
	DefaultAllowedOrigins = "http://localhost:5173"
	DefaultMaxGames       = 10
	DefaultLogLevel       = "info"
)

type Ngrok struct {
	Enabled   bool
	AuthToken string
	Domain    string
}

type Config struct {
	Port           int
	AllowedOrigins string
	DataDir        string // empty keeps games in memory
	MaxGames       int
	LogLevel       log.Level
	Ngrok          Ngrok
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("failed to load .env file: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:           DefaultPort,
		AllowedOrigins: DefaultAllowedOrigins,
		DataDir:        strings.TrimSpace(os.Getenv("DATA_DIR")),
		MaxGames:       DefaultMaxGames,
		LogLevel:       log.LevelInfo,
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = v
	}
	if v := os.Getenv("MAX_GAMES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MAX_GAMES %q", v)
		}
		cfg.MaxGames = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := ParseLevel(v)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = level
	}

	cfg.Ngrok.Enabled = parseBool(os.Getenv("NGROK_ENABLED"))
	cfg.Ngrok.AuthToken = os.Getenv("NGROK_AUTHTOKEN")
	if cfg.Ngrok.AuthToken == "" {
		cfg.Ngrok.AuthToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	cfg.Ngrok.Domain = os.Getenv("NGROK_DOMAIN")

	return cfg, nil
}

// Origins splits AllowedOrigins for the websocket origin check.
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info", "":
		return log.LevelInfo, nil
	case "warn", "warning":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	default:
		return log.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
