package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config interface {
	EnvConfig
	APIConfig
	StorageConfig
	Validate() error
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetSignInURL() string
	IsDevelopment() bool
}

type mainConfig struct {
	EnvVars
	API
	Storage
}

var _ Config = (*mainConfig)(nil)

// New loads an optional .env file from the working directory and parses the
// process environment.
func New() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}
	return FromEnvironment(env.Options{})
}

// FromEnvironment parses configuration with the given options; tests pass
// Environment to avoid touching the process environment.
func FromEnvironment(opts env.Options) (Config, error) {
	c := &mainConfig{}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return nil, fmt.Errorf("[config New] failed to parse environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *mainConfig) Validate() error {
	if c.GetAPIBaseURL() == "" && c.IsDevelopment() {
		return fmt.Errorf("[config Validate] %s is not set (e.g. http://localhost:1111)", apiBaseURLVar)
	}
	switch c.GetTokenBackend() {
	case TokenBackendFile, TokenBackendMemory:
	case TokenBackendRedis:
		if c.GetRedisURL() == "" {
			return fmt.Errorf("[config Validate] %s is required for the redis token backend", redisURLVar)
		}
	default:
		return fmt.Errorf("[config Validate] unknown token backend %q", c.GetTokenBackend())
	}
	return nil
}
