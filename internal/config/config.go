package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/avray/parley/internal/domain"
)

type RoomConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	StaticPath      string        `mapstructure:"static_path"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	Secret          string        `mapstructure:"secret"`
	AllowAdhocRooms bool          `mapstructure:"allow_adhoc_rooms"`
	Rooms           []RoomConfig  `mapstructure:"rooms"`
}

// defaultRooms seeds the directory when no room list is configured.
var defaultRooms = []RoomConfig{
	{Name: "general", Description: "talk about anything"},
	{Name: "dev", Description: "development discussions"},
	{Name: "random", Description: "off topic"},
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("PARLEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("allow_adhoc_rooms", false)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Rooms) == 0 {
		cfg.Rooms = defaultRooms
	}
	return &cfg, nil
}

// RoomMetadata converts the configured room list into the directory seed.
func (c *Config) RoomMetadata() []domain.RoomMetadata {
	out := make([]domain.RoomMetadata, 0, len(c.Rooms))
	for _, r := range c.Rooms {
		out = append(out, domain.RoomMetadata{
			Name:        domain.RoomName(r.Name),
			Description: r.Description,
		})
	}
	return out
}
