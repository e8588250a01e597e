// Package config loads client configuration from the environment.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// Config holds every setting the client reads from the environment.
type Config struct {
	AppName       string        `env:"MATHCODE_APP_NAME" envDefault:"MathCode"`
	Env           string        `env:"MATHCODE_ENV" envDefault:"DEV"`
	APIBaseURL    string        `env:"MATHCODE_API_URL" envDefault:"http://localhost:5000"`
	CallbackAddr  string        `env:"MATHCODE_CALLBACK_ADDR" envDefault:"127.0.0.1:53682"`
	DataFolder    string        `env:"MATHCODE_DATA_FOLDER"`
	HTTPTimeout   time.Duration `env:"MATHCODE_HTTP_TIMEOUT" envDefault:"30s"`
	StorageBucket string        `env:"MATHCODE_STORAGE_BUCKET" envDefault:"mathcode-uploads"`
}

// Load parses the environment. DataFolder defaults to ~/.mathcode when
// unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "[config.Load] env.Parse")
	}
	if cfg.DataFolder == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, errors.Wrap(err, "[config.Load] UserHomeDir")
		}
		cfg.DataFolder = filepath.Join(home, ".mathcode")
	}
	return cfg, nil
}

// IsDev reports whether the client runs in a development environment.
func (c Config) IsDev() bool {
	return c.Env == "DEV"
}
