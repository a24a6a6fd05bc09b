package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/gridmatch-backend/internal/entity"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"GRIDMATCH_LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"GRIDMATCH_HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"GRIDMATCH_SOCKET_PORT" env-default:"9091"`
	Storage    string `yaml:"storage" env:"GRIDMATCH_STORAGE" env-default:"memory"`
	Redis      Redis  `yaml:"redis"`
	Match      Match  `yaml:"match"`
}

type Redis struct {
	Host     string        `yaml:"host" env:"GRIDMATCH_REDIS_HOST" env-default:"localhost"`
	Port     string        `yaml:"port" env:"GRIDMATCH_REDIS_PORT" env-default:"6379"`
	MatchTTL time.Duration `yaml:"match-ttl" env:"GRIDMATCH_REDIS_MATCH_TTL" env-default:"1h"`
}

type Match struct {
	DefaultBoardSize int `yaml:"default-board-size" env:"GRIDMATCH_MATCH_DEFAULT_BOARD_SIZE" env-default:"3"`
	MaxBoardSize     int `yaml:"max-board-size" env:"GRIDMATCH_MATCH_MAX_BOARD_SIZE" env-default:"10"`
	// ComputerSeed seeds the computer player. Zero seeds from the clock.
	ComputerSeed int64 `yaml:"computer-seed" env:"GRIDMATCH_MATCH_COMPUTER_SEED" env-default:"0"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (that *Config) validate() error {
	switch that.Storage {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("unknown storage %q", that.Storage)
	}

	if that.Match.DefaultBoardSize < entity.MinBoardSize || that.Match.DefaultBoardSize >= that.Match.MaxBoardSize {
		return fmt.Errorf("default board size %d is outside [%d, %d)",
			that.Match.DefaultBoardSize, entity.MinBoardSize, that.Match.MaxBoardSize)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
