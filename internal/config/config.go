// Package config loads settings for the client and the stub backend
// from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Client configures the terminal quiz client.
type Client struct {
	QuizAPIURL      string     `env:"QUIZ_API_URL" envDefault:"http://localhost:5000/quiz"`
	ChallengeAPIURL string     `env:"CHALLENGE_API_URL" envDefault:"http://localhost:5000/challenge"`
	APIToken        string     `env:"API_TOKEN" envDefault:"local-player"`
	TotalQuestions  int        `env:"TOTAL_QUESTIONS" envDefault:"5"`
	SnapshotBackend string     `env:"SNAPSHOT_BACKEND" envDefault:"sqlite"`
	SnapshotDBPath  string     `env:"SNAPSHOT_DB_PATH" envDefault:"data/snapshot.db"`
	RedisURL        string     `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	LogLevel        slog.Level `env:"LOG_LEVEL" envDefault:"WARN"`
}

// Stub configures the local stub backend.
type Stub struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":5000"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

func LoadClient() (*Client, error) {
	cfg, err := env.ParseAs[Client]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

func LoadStub() (*Stub, error) {
	cfg, err := env.ParseAs[Stub]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
