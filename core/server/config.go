package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// Env is the deployment environment (local, staging, production).
	Env string `mapstructure:"env" default:"local"`
}

const (
	EnvLocal      = "local"
	EnvStaging    = "staging"
	EnvProduction = "production"
)

// IsValidEnv checks if the configured environment is valid.
func (c Config) IsValidEnv() bool {
	switch c.Env {
	case EnvLocal, EnvStaging, EnvProduction:
		return true
	default:
		return false
	}
}

// IsLocal reports whether the server runs in a local development environment.
func (c Config) IsLocal() bool {
	return c.Env == EnvLocal
}
