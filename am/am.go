// Package am holds CEN's configuration: loading (viper over TOML files
// and CEN_-prefixed environment variables), persistence with rotating
// backups, and a debounced file watcher for live reload.
package am

// Config represents the core CEN configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Models   ModelsConfig   `mapstructure:"models"`
}

// ServerConfig configures the admin HTTP server
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig configures the SQLite sentence journal
type DatabaseConfig struct {
	Path string `mapstructure:"path"` // empty = journaling disabled
}

// AgentConfig configures the card-handling agent
type AgentConfig struct {
	Name           string            `mapstructure:"name"`             // identity cards are addressed to
	PollIntervalMS int               `mapstructure:"poll_interval_ms"` // card poll pacing (default: 1000)
	Peers          map[string]string `mapstructure:"peers"`            // name = base URL of a peer's admin server
}

// ModelsConfig configures model loading at startup
type ModelsConfig struct {
	Dir      string `mapstructure:"dir"`      // model directory (manifest.yaml + .ce files)
	Autoload bool   `mapstructure:"autoload"` // load Dir after the CORE vocabulary at startup
}

// Default values
const (
	DefaultServerPort     = 5209
	DefaultPollIntervalMS = 1000
	DefaultStoreName      = "cen"
)
