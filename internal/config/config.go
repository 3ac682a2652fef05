package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const EnvPrefix = "WATCHROOM"

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	Secret     string        `mapstructure:"secret"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	Room      RoomConfig      `mapstructure:"room"`
	Store     StoreConfig     `mapstructure:"store"`
	Audit     AuditConfig     `mapstructure:"audit"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

type RoomConfig struct {
	AdminName string `mapstructure:"admin_name"`
	// Fresh wipes the saved room and the audit log on startup.
	Fresh bool `mapstructure:"fresh"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // file | sqlite | postgres
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
	Codec  string `mapstructure:"codec"` // json | cbor
	Slot   string `mapstructure:"slot"`
}

type AuditConfig struct {
	// Path of the audit log file; empty keeps the log in memory.
	Path string `mapstructure:"path"`
}

type RateLimitConfig struct {
	Commands int           `mapstructure:"commands"`
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then WATCHROOM_*
// variables, later sources winning.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile is Load without the .env step and with an explicit file. A
// missing file is not an error; defaults apply.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("secret", "watchroom-dev-secret")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")

	v.SetDefault("room.admin_name", "AdminGPU")
	v.SetDefault("room.fresh", false)

	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "data/room_state.json")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.codec", "json")
	v.SetDefault("store.slot", "default")

	v.SetDefault("audit.path", "data/group_chat.txt")

	v.SetDefault("ratelimit.commands", 20)
	v.SetDefault("ratelimit.interval", "10s")

	v.SetDefault("log.level", "info")
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "file":
		if c.Store.Path == "" {
			return errors.New("store.path is required for the file store")
		}
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s store", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RateLimit.Commands < 0 || c.RateLimit.Interval < 0 {
		return errors.New("ratelimit values must not be negative")
	}
	return nil
}
