package config

import "time"

const (
	TokenBackendFile   = "file"
	TokenBackendRedis  = "redis"
	TokenBackendMemory = "memory"

	redisURLVar = "STOREFRONT_REDIS_URL"
)

type StorageConfig interface {
	GetTokenBackend() string
	GetDataFolder() string
	GetRedisURL() string
	GetRedisPrefix() string
	GetRefreshTokenTTL() time.Duration
}

type Storage struct {
	TokenBackend string        `env:"STOREFRONT_TOKEN_BACKEND" envDefault:"file"`
	DataFolder   string        `env:"STOREFRONT_DATA_FOLDER" envDefault:"./data"`
	RedisURL     string        `env:"STOREFRONT_REDIS_URL"`
	RedisPrefix  string        `env:"STOREFRONT_REDIS_PREFIX" envDefault:"storefront:token"`
	RefreshTTL   time.Duration `env:"STOREFRONT_REFRESH_TTL" envDefault:"720h"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetTokenBackend() string {
	return s.TokenBackend
}

func (s Storage) GetDataFolder() string {
	return s.DataFolder
}

func (s Storage) GetRedisURL() string {
	return s.RedisURL
}

func (s Storage) GetRedisPrefix() string {
	return s.RedisPrefix
}

// GetRefreshTokenTTL bounds how long the durable scope keeps a refresh token
// when the backend supports expiry (redis). 720h = 30 days.
func (s Storage) GetRefreshTokenTTL() time.Duration {
	return s.RefreshTTL
}
