package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mvp-joe/schemagraph/internal/scanner"
	"github.com/mvp-joe/schemagraph/internal/selector"
	"github.com/mvp-joe/schemagraph/internal/source"
)

// Config represents the complete schemagraph configuration.
// It can be loaded from .schemagraph/config.yml with environment variable overrides.
type Config struct {
	Selector SelectorConfig `yaml:"selector" mapstructure:"selector"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	GitHub   GitHubConfig   `yaml:"github" mapstructure:"github"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Plan     PlanConfig     `yaml:"plan" mapstructure:"plan"`
}

// SelectorConfig controls which repository files are fetched.
type SelectorConfig struct {
	Include     []string `yaml:"include" mapstructure:"include"`           // glob patterns for eligible files
	StrongDirs  []string `yaml:"strong_dirs" mapstructure:"strong_dirs"`   // e.g. "/models/"
	StrongNames []string `yaml:"strong_names" mapstructure:"strong_names"` // e.g. "schema"
	Exclude     []string `yaml:"exclude" mapstructure:"exclude"`
	StrongCap   int      `yaml:"strong_cap" mapstructure:"strong_cap"`
	WeakCap     int      `yaml:"weak_cap" mapstructure:"weak_cap"`
}

// FetchConfig controls content retrieval.
type FetchConfig struct {
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`       // batch deadline, 0 disables
	CacheSize   int           `yaml:"cache_size" mapstructure:"cache_size"` // cached file contents
	CacheTTL    time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`   // 0 keeps entries until evicted
}

// GitHubConfig configures the GitHub source.
type GitHubConfig struct {
	APIURL string `yaml:"api_url" mapstructure:"api_url"`
	Token  string `yaml:"token" mapstructure:"token"`
	Branch string `yaml:"branch" mapstructure:"branch"` // empty uses the repository default
}

// StorageConfig configures the diagram database.
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PlanConfig selects the plan used for CLI usage accounting.
type PlanConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
}

// Default returns the default configuration.
func Default() *Config {
	sel := selector.DefaultOptions()
	return &Config{
		Selector: SelectorConfig{
			Include:     sel.Include,
			StrongDirs:  sel.StrongDirs,
			StrongNames: sel.StrongNames,
			Exclude:     sel.Exclude,
			StrongCap:   sel.StrongCap,
			WeakCap:     sel.WeakCap,
		},
		Fetch: FetchConfig{
			Concurrency: scanner.DefaultConcurrency,
			Timeout:     60 * time.Second,
			CacheSize:   2000,
			CacheTTL:    10 * time.Minute,
		},
		GitHub: GitHubConfig{
			APIURL: source.DefaultGitHubAPI,
		},
		Storage: StorageConfig{
			Path: "~/.schemagraph/schemagraph.db",
		},
		Plan: PlanConfig{
			Name: "free",
		},
	}
}

// SelectorOptions converts the selector section.
func (c *Config) SelectorOptions() selector.Options {
	return selector.Options{
		Include:     c.Selector.Include,
		StrongDirs:  c.Selector.StrongDirs,
		StrongNames: c.Selector.StrongNames,
		Exclude:     c.Selector.Exclude,
		StrongCap:   c.Selector.StrongCap,
		WeakCap:     c.Selector.WeakCap,
	}
}

// ScannerOptions converts the fetch section. Progress and verbosity are left
// to the caller.
func (c *Config) ScannerOptions() scanner.Options {
	return scanner.Options{
		Concurrency: c.Fetch.Concurrency,
		Timeout:     c.Fetch.Timeout,
	}
}

// GitHubOptions converts the github section.
func (c *Config) GitHubOptions() source.GitHubOptions {
	return source.GitHubOptions{
		APIURL: c.GitHub.APIURL,
		Token:  c.GitHub.Token,
		Branch: c.GitHub.Branch,
	}
}

// StoragePath returns the database path with a leading ~ expanded.
func (c *Config) StoragePath() string {
	return expandHome(c.Storage.Path)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
