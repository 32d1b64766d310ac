package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DirName is the per-project configuration directory.
const DirName = ".schemagraph"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (SCHEMAGRAPH_*, plus GITHUB_TOKEN for the token)
// 2. Config file (.schemagraph/config.yml or .schemagraph/config.yaml)
// 3. Default values
//
// A .env file in the root directory is loaded first. Variables already set
// in the environment are not overwritten by it.
func (l *loader) Load() (*Config, error) {
	_ = godotenv.Load(filepath.Join(l.rootDir, ".env"))

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(l.rootDir, DirName))

	v.SetEnvPrefix("SCHEMAGRAPH")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., SCHEMAGRAPH_FETCH_CONCURRENCY)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("selector.strong_cap")
	v.BindEnv("selector.weak_cap")

	v.BindEnv("fetch.concurrency")
	v.BindEnv("fetch.timeout")
	v.BindEnv("fetch.cache_size")
	v.BindEnv("fetch.cache_ttl")

	v.BindEnv("github.api_url")
	v.BindEnv("github.token", "SCHEMAGRAPH_GITHUB_TOKEN", "GITHUB_TOKEN")
	v.BindEnv("github.branch")

	v.BindEnv("storage.path")
	v.BindEnv("plan.name")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("selector.include", defaults.Selector.Include)
	v.SetDefault("selector.strong_dirs", defaults.Selector.StrongDirs)
	v.SetDefault("selector.strong_names", defaults.Selector.StrongNames)
	v.SetDefault("selector.exclude", defaults.Selector.Exclude)
	v.SetDefault("selector.strong_cap", defaults.Selector.StrongCap)
	v.SetDefault("selector.weak_cap", defaults.Selector.WeakCap)

	v.SetDefault("fetch.concurrency", defaults.Fetch.Concurrency)
	v.SetDefault("fetch.timeout", defaults.Fetch.Timeout)
	v.SetDefault("fetch.cache_size", defaults.Fetch.CacheSize)
	v.SetDefault("fetch.cache_ttl", defaults.Fetch.CacheTTL)

	v.SetDefault("github.api_url", defaults.GitHub.APIURL)
	v.SetDefault("github.token", defaults.GitHub.Token)
	v.SetDefault("github.branch", defaults.GitHub.Branch)

	v.SetDefault("storage.path", defaults.Storage.Path)
	v.SetDefault("plan.name", defaults.Plan.Name)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
