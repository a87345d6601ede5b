package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// BASE_URL points at a running server; tests are skipped when unset.
	BaseURL string `envconfig:"BASE_URL"`
	// AUTH_SECRET must match the server's signing secret so the suite can
	// mint its own tokens.
	AuthSecret string `envconfig:"AUTH_SECRET" default:"test-secret"`
	// E2E_DEBUG_JSON allows dumping full request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
