// Package config handles repository and global configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the per-repository configuration stored in .litgraph/config.yaml.
type Config struct {
	// PDFRoot is an absolute path to a local folder of PDF files, used when
	// resolving a request that names a PDF by relative path.
	PDFRoot string `yaml:"pdf_root,omitempty"`
	// S2APIKey raises the Semantic Scholar rate limit when set.
	S2APIKey string `yaml:"s2_api_key,omitempty"`
	// MaxAttempts caps metadata sources tried per resolution. Zero means
	// the engine default.
	MaxAttempts int `yaml:"max_attempts,omitempty"`
	// FastHosts lists URL hosts routed to the concurrent fan-out path.
	FastHosts []string `yaml:"fast_hosts,omitempty"`
}

const (
	LitgraphDir = ".litgraph"
	ConfigFile  = "config.yaml"
	DBFile      = "litgraph.db"

	envS2APIKey = "LITGRAPH_S2_API_KEY"
)

// LitgraphPath returns the path to the .litgraph directory from a root path.
func LitgraphPath(root string) string {
	return filepath.Join(root, LitgraphDir)
}

// ConfigPath returns the path to config.yaml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, LitgraphDir, ConfigFile)
}

// DBPath returns the path to the entity database from a root path.
func DBPath(root string) string {
	return filepath.Join(root, LitgraphDir, DBFile)
}

// IsRepository checks if the given path contains a litgraph repository.
func IsRepository(root string) bool {
	info, err := os.Stat(LitgraphPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a litgraph repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a litgraph repository (no .litgraph directory found)")
		}
		abs = parent
	}
}

// Init creates the .litgraph directory and an empty config file at root.
func Init(root string) error {
	if err := os.MkdirAll(LitgraphPath(root), 0755); err != nil {
		return fmt.Errorf("creating repository directory: %w", err)
	}
	if _, err := os.Stat(ConfigPath(root)); err == nil {
		return nil
	}
	return (&Config{}).Save(root)
}

// Load reads configuration from the repository at the given root. A missing
// config file yields defaults, not an error. A .env file at the root and
// process environment variables override file values for secrets.
func Load(root string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(ConfigPath(root))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// .env is optional; absence is not an error.
	_ = godotenv.Load(filepath.Join(root, ".env"))
	if key := os.Getenv(envS2APIKey); key != "" {
		cfg.S2APIKey = key
	}
	if cfg.S2APIKey == "" {
		cfg.S2APIKey = GetS2APIKey()
	}

	cfg.PDFRoot = ExpandPath(cfg.PDFRoot)
	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ValidatePDFRoot checks that the PDF root path exists and is a directory.
func ValidatePDFRoot(path string) error {
	if path == "" {
		return nil // not yet configured
	}

	expanded := ExpandPath(path)
	info, err := os.Stat(expanded)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", expanded)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", expanded)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
