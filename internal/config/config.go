package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort  string    `yaml:"http-port" env:"HTTP_PORT" env-default:"3005"`
	StaticDir string    `yaml:"static-dir" env:"STATIC_DIR" env-default:"dist"`
	WebSocket WebSocket `yaml:"websocket"`
	Rooms     Rooms     `yaml:"rooms"`
	Redis     Redis     `yaml:"redis"`
}

type WebSocket struct {
	SendBuffer     int           `yaml:"send-buffer" env:"WS_SEND_BUFFER" env-default:"256"`
	WriteWait      time.Duration `yaml:"write-wait" env:"WS_WRITE_WAIT" env-default:"10s"`
	PongWait       time.Duration `yaml:"pong-wait" env:"WS_PONG_WAIT" env-default:"60s"`
	PingPeriod     time.Duration `yaml:"ping-period" env:"WS_PING_PERIOD" env-default:"54s"`
	MaxMessageSize int64         `yaml:"max-message-size" env:"WS_MAX_MESSAGE_SIZE" env-default:"4096"`
	AllowedOrigins []string      `yaml:"allowed-origins" env:"WS_ALLOWED_ORIGINS"`
}

type Rooms struct {
	MaxCodeAttempts int `yaml:"max-code-attempts" env:"ROOMS_MAX_CODE_ATTEMPTS" env-default:"100"`
}

type Redis struct {
	Enabled      bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host         string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port         string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	ResultsKey   string `yaml:"results-key" env:"REDIS_RESULTS_KEY" env-default:"results"`
	ResultsLimit int64  `yaml:"results-limit" env:"REDIS_RESULTS_LIMIT" env-default:"100"`
	RecordBuffer int    `yaml:"record-buffer" env:"REDIS_RECORD_BUFFER" env-default:"64"`
}

// Load - reads the config file at path. A missing file is not an error: defaults and
// environment variables are used instead.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to read config from env: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("unable to stat config file: %w", err)
	default:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to load config file: %w", err)
		}
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	ws := that.WebSocket
	if ws.PingPeriod >= ws.PongWait {
		return fmt.Errorf("websocket ping-period %s must be shorter than pong-wait %s", ws.PingPeriod, ws.PongWait)
	}

	if ws.SendBuffer <= 0 || ws.MaxMessageSize <= 0 {
		return errors.New("websocket send-buffer and max-message-size must be positive")
	}

	if that.Rooms.MaxCodeAttempts <= 0 {
		return errors.New("rooms max-code-attempts must be positive")
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
