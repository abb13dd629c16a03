package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port int    `mapstructure:"PORT" validate:"min=1,max=65535"`
	Env  string `mapstructure:"ENV" validate:"oneof=development production test"`

	DBURL     string `mapstructure:"DB_URL" validate:"required"`
	DBRetries int    `mapstructure:"DB_RETRIES" validate:"min=1"`

	YoutubeAPIKey  string        `mapstructure:"YOUTUBE_API_KEY" validate:"required"`
	YoutubeBaseURL string        `mapstructure:"YOUTUBE_API_BASE_URL" validate:"required,url"`
	YoutubeTimeout time.Duration `mapstructure:"YOUTUBE_TIMEOUT" validate:"gt=0"`

	RequiredHashtag string `mapstructure:"REQUIRED_HASHTAG" validate:"required"`

	RedisURL string `mapstructure:"REDIS_URL"`

	ClickhouseURL      string `mapstructure:"CLICKHOUSE_URL"`
	ClickhouseDatabase string `mapstructure:"CLICKHOUSE_DATABASE"`
	ClickhouseUsername string `mapstructure:"CLICKHOUSE_USERNAME"`
	ClickhousePassword string `mapstructure:"CLICKHOUSE_PASSWORD"`

	JWTSecret          string `mapstructure:"JWT_SECRET" validate:"omitempty,min=16"`
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`
	SessionKey         string `mapstructure:"SESSION_KEY"`
	AllowedOrigins     string `mapstructure:"ALLOWED_ORIGINS"`

	RefreshSchedule string        `mapstructure:"REFRESH_SCHEDULE" validate:"required"`
	RefreshLockTTL  time.Duration `mapstructure:"REFRESH_LOCK_TTL" validate:"gt=0"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) ClickhouseEnabled() bool {
	return c.ClickhouseURL != ""
}

func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_RETRIES", 10)
	v.SetDefault("YOUTUBE_API_BASE_URL", "https://youtube.googleapis.com/youtube/v3")
	v.SetDefault("YOUTUBE_TIMEOUT", "10s")
	v.SetDefault("REQUIRED_HASHTAG", "filmchain")
	v.SetDefault("CLICKHOUSE_DATABASE", "default")
	v.SetDefault("REFRESH_SCHEDULE", "@every 1h")
	v.SetDefault("REFRESH_LOCK_TTL", "30m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// bindEnv binds every mapstructure tag of Config so Unmarshal sees variables
// that have no default.
func bindEnv(v *viper.Viper) {
	typ := reflect.TypeOf(Config{})
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("mapstructure"); tag != "" {
			_ = v.BindEnv(tag)
		}
	}
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return FromViper(viper.New())
}

func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	bindEnv(v)
	v.AutomaticEnv()

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.RequiredHashtag = strings.TrimLeft(strings.TrimSpace(cfg.RequiredHashtag), "#")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
