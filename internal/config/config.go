package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	TokenBackendSQL   = "sql"
	TokenBackendRedis = "redis"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN" default:"scrap.db"`

	MediaDir     string `envconfig:"MEDIA_DIR" default:"./media"`
	MediaBaseURL string `envconfig:"MEDIA_BASE_URL" default:"/media/"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`

	TokenBackend  string `envconfig:"TOKEN_BACKEND" default:"sql"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	RegistrationOpen bool          `envconfig:"REGISTRATION_OPEN" default:"false"`
	MaxBodyBytes     int           `envconfig:"MAX_BODY_BYTES" default:"5242880"`
	LoginRateMax     int           `envconfig:"LOGIN_RATE_MAX" default:"5"`
	LoginRateWindow  time.Duration `envconfig:"LOGIN_RATE_WINDOW" default:"10m"`
	BcryptCost       int           `envconfig:"BCRYPT_COST" default:"10"`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "load .env")
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process env")
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return errors.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	switch c.TokenBackend {
	case TokenBackendSQL, TokenBackendRedis:
	default:
		return errors.Errorf("TOKEN_BACKEND must be sql or redis, got %q", c.TokenBackend)
	}
	if c.LoginRateMax <= 0 {
		return errors.New("LOGIN_RATE_MAX must be positive")
	}
	return nil
}
