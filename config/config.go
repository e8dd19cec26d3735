package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. PIGDICE_SERVER_HTTP_ADDRESS.
const EnvPrefix = "PIGDICE"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string        `mapstructure:"http_address"`
	RPCAddress     string        `mapstructure:"rpc_address"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	SendQueueSize  int           `mapstructure:"send_queue_size"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type GameConfig struct {
	WinScore        int           `mapstructure:"win_score"`
	CodeLength      int           `mapstructure:"code_length"`
	MaxCodeAttempts int           `mapstructure:"max_code_attempts"`
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig selects where finished matches are recorded.
// Driver is one of "memory", "gorm" or "postgres".
type DatabaseConfig struct {
	Driver    string         `mapstructure:"driver"`
	QueueSize int            `mapstructure:"queue_size"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":3000")
	v.SetDefault("server.rpc_address", "127.0.0.1:3001")
	v.SetDefault("server.ping_interval", 30*time.Second)
	v.SetDefault("server.send_queue_size", 64)
	v.SetDefault("server.max_message_size", 4096)

	v.SetDefault("game.win_score", 100)
	v.SetDefault("game.code_length", 5)
	v.SetDefault("game.max_code_attempts", 32)
	v.SetDefault("game.idle_ttl", 30*time.Minute)
	v.SetDefault("game.sweep_interval", time.Minute)

	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.queue_size", 128)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "pigdice")
}

// LoadConfig reads config.yaml from path, if present, and applies
// PIGDICE_* environment overrides on top of the built-in defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var (
	ErrInvalidWinScore   = errors.New("config: game.win_score must be positive")
	ErrInvalidCodeLength = errors.New("config: game.code_length must be positive")
	ErrUnknownDriver     = errors.New("config: unknown database.driver")
)

func (c *Config) Validate() error {
	if c.Game.WinScore <= 0 {
		return ErrInvalidWinScore
	}
	if c.Game.CodeLength <= 0 {
		return ErrInvalidCodeLength
	}
	switch c.Database.Driver {
	case "memory", "gorm", "postgres":
	default:
		return ErrUnknownDriver
	}
	return nil
}
