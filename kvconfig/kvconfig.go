// Package kvconfig loads the TOML document describing which backend
// engine serves each named store and how logging is configured, mirroring
// the layered [server]/[logging]/[store.<alias>] shape of a typical
// server configuration file.
package kvconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig holds ambient server-level settings.
type ServerConfig struct {
	WebClient string `toml:"web_client"`
}

// LoggingConfig holds log destination and rotation settings.
type LoggingConfig struct {
	Logfile string `toml:"logfile"`
	MaxSize int    `toml:"max_size"`
	MaxAge  int    `toml:"max_age"`
}

// StoreConfig names the backend engine and its parameters for one named
// store alias. Engine is either "memkv" or "boltkv"; Path is required for
// "boltkv" and ignored for "memkv".
type StoreConfig struct {
	Engine string `toml:"engine"`
	Path   string `toml:"path"`
}

// Config is the fully parsed configuration document.
type Config struct {
	Server  ServerConfig           `toml:"server"`
	Logging LoggingConfig          `toml:"logging"`
	Store   map[string]StoreConfig `toml:"store"`
}

// Load reads and parses the TOML document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kvconfig: read %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("kvconfig: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ConvertPathsToAbsolute rewrites every relative path in the config (the
// web client directory, the log file, and each store's db path) to be
// relative to configPath's directory, leaving already-absolute paths
// untouched. configPath is the path to the TOML document itself, the same
// argument a caller would pass to Load.
func (c *Config) ConvertPathsToAbsolute(configPath string) {
	baseDir := filepath.Dir(configPath)
	c.Server.WebClient = resolvePath(baseDir, c.Server.WebClient)
	c.Logging.Logfile = resolvePath(baseDir, c.Logging.Logfile)
	for alias, sc := range c.Store {
		sc.Path = resolvePath(baseDir, sc.Path)
		c.Store[alias] = sc
	}
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
