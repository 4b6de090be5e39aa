package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const DefaultPort = 6666

type Config struct {
	Mode             string        `mapstructure:"mode" validate:"oneof=release debug"`
	LogLevel         string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	Port             int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	HTTPPort         int           `mapstructure:"http_port" validate:"gte=0,lte=65535"`
	Sessions         int           `mapstructure:"sessions" validate:"gte=1"`
	AutoStart        bool          `mapstructure:"auto_start"`
	PollInterval     time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" validate:"gte=0"`
	SendBuffer       int           `mapstructure:"send_buffer" validate:"gte=1"`
	MaxNameLen       int           `mapstructure:"max_name_len" validate:"gte=1"`
	KickOnSendError  bool          `mapstructure:"kick_on_send_error"`
}

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c *Config) HTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", DefaultPort)
	v.SetDefault("http_port", 0)
	v.SetDefault("sessions", 1)
	v.SetDefault("auto_start", true)
	v.SetDefault("poll_interval", "1s")
	v.SetDefault("handshake_timeout", "10s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("max_name_len", 36)
	v.SetDefault("kick_on_send_error", false)
}

// Flags declares the command line overrides. Only flags the user set win
// over file and environment values.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("resarcana-broker", pflag.ContinueOnError)
	fs.String("config", "", "config file (default config/config.$CONFIG_ENV.yaml)")
	fs.Int("port", DefaultPort, "game port")
	fs.Int("http_port", 0, "status API port, 0 disables it")
	fs.Int("sessions", 1, "number of sessions to host before exiting")
	fs.Bool("auto_start", true, "start as soon as every player is ready")
	fs.String("log_level", "info", "log level")
	return fs
}

// Load reads defaults, the optional yaml file, RESARCANA_* environment
// variables and fs, in increasing priority. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("resarcana")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileName := ""
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
		if f := fs.Lookup("config"); f != nil {
			fileName = f.Value.String()
		}
	}
	explicit := fileName != ""
	if !explicit {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Info().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Int("sessions", cfg.Sessions).Bool("auto_start", cfg.AutoStart).Msg("config")
	return &cfg, nil
}
