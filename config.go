package authflow

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries the service configuration, loaded from the environment.
type Config struct {
	ListenAddr string `env:"AUTHFLOW_LISTEN_ADDR" envDefault:":8080"`

	SigningKey  string        `env:"AUTHFLOW_JWT_SECRET,required,notEmpty"`
	TokenTTL    time.Duration `env:"AUTHFLOW_TOKEN_TTL" envDefault:"1h"`
	TokenIssuer string        `env:"AUTHFLOW_TOKEN_ISSUER" envDefault:"authflow"`

	BcryptCost int `env:"AUTHFLOW_BCRYPT_COST" envDefault:"10"`

	AllowOrigins string `env:"AUTHFLOW_ALLOW_ORIGINS" envDefault:"*"`

	// GoogleAPIKey enables the federated flow when set.
	GoogleAPIKey string `env:"AUTHFLOW_GOOGLE_API_KEY"`
}

// LoadConfig reads .env when present, then parses the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, ErrInvalidInput.WithMetadata(map[string]any{"config": err.Error()})
	}
	return cfg, nil
}
