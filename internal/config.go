package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Config struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath string `env:"BADGER_FILEPATH,default=data/badger"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,default=data/bluge"`

	TokenSigningKey   string        `env:"TOKEN_SIGNING_KEY,default=change_me_in_production_2026"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	RoomName        string        `env:"ROOM_NAME,default=lobby"`
	SendQueueSize   int           `env:"SEND_QUEUE_SIZE,default=64"`
	LimitReplay     *int          `env:"LIMIT_REPLAY"`
	SearchLimit     int           `env:"SEARCH_LIMIT,default=20"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// Level maps the configured LOG_LEVEL string onto a slog level,
// defaulting to Info for anything unrecognized.
func (c Config) Level() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
