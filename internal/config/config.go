package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"agora/internal/auction"
	"agora/internal/room"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Rooms  RoomsConfig  `mapstructure:"rooms"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Workers int    `mapstructure:"workers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type RoomsConfig struct {
	Kind       string          `mapstructure:"kind"`
	Timer      time.Duration   `mapstructure:"timer"`
	MoneyMin   int64           `mapstructure:"money_min"`
	MoneyMax   int64           `mapstructure:"money_max"`
	Valuation  ValuationConfig `mapstructure:"valuation"`
	StrictBook bool            `mapstructure:"strict_book"`
}

type ValuationConfig struct {
	Distribution string `mapstructure:"distribution"`
	Min          int64  `mapstructure:"min"`
	Max          int64  `mapstructure:"max"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 9001)
	v.SetDefault("server.workers", 64)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("rooms.kind", "dutch")
	v.SetDefault("rooms.timer", "30s")
	v.SetDefault("rooms.money_min", 1000)
	v.SetDefault("rooms.money_max", 2000)
	v.SetDefault("rooms.valuation.distribution", "uniform")
	v.SetDefault("rooms.valuation.min", 1)
	v.SetDefault("rooms.valuation.max", 1000)
	v.SetDefault("rooms.strict_book", false)
}

// Load reads {name}.yaml from ./config or the working directory, or the file
// at path when given. Environment variables prefixed AGORA_ override any key,
// e.g. AGORA_SERVER_PORT for server.port. A missing config file is not an
// error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("agora")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("AGORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d", ErrInvalidConfig, c.Server.Port)
	case c.Server.Workers <= 0:
		return fmt.Errorf("%w: server.workers %d", ErrInvalidConfig, c.Server.Workers)
	case c.Rooms.Timer <= 0:
		return fmt.Errorf("%w: rooms.timer %s", ErrInvalidConfig, c.Rooms.Timer)
	case c.Rooms.MoneyMin < 0 || c.Rooms.MoneyMin > c.Rooms.MoneyMax:
		return fmt.Errorf("%w: money range [%d, %d]", ErrInvalidConfig, c.Rooms.MoneyMin, c.Rooms.MoneyMax)
	case c.Rooms.Valuation.Min < 0 || c.Rooms.Valuation.Min > c.Rooms.Valuation.Max:
		return fmt.Errorf("%w: valuation range [%d, %d]", ErrInvalidConfig, c.Rooms.Valuation.Min, c.Rooms.Valuation.Max)
	}
	if _, err := auction.ParseKind(c.Rooms.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := auction.ParseDistribution(c.Rooms.Valuation.Distribution); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// RoomParams converts validated room settings into what rooms are created
// with.
func (c Config) RoomParams() room.Params {
	kind, _ := auction.ParseKind(c.Rooms.Kind)
	dist, _ := auction.ParseDistribution(c.Rooms.Valuation.Distribution)
	return room.Params{
		Kind:  kind,
		Timer: c.Rooms.Timer,
		Valuation: auction.Valuation{
			Distribution: dist,
			Min:          c.Rooms.Valuation.Min,
			Max:          c.Rooms.Valuation.Max,
		},
		Money:      auction.MoneyRange{Min: c.Rooms.MoneyMin, Max: c.Rooms.MoneyMax},
		StrictBook: c.Rooms.StrictBook,
	}
}
