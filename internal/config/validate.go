package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/schemagraph/internal/plans"
)

var (
	// ErrInvalidCap indicates a non-positive selector cap
	ErrInvalidCap = errors.New("invalid selector cap")

	// ErrInvalidPattern indicates an include glob that does not compile
	ErrInvalidPattern = errors.New("invalid include pattern")

	// ErrInvalidConcurrency indicates a non-positive fetch concurrency
	ErrInvalidConcurrency = errors.New("invalid fetch concurrency")

	// ErrInvalidTimeout indicates a negative timeout or ttl
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")

	// ErrInvalidPlan indicates an unknown plan name
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrEmptyStoragePath indicates a missing database path
	ErrEmptyStoragePath = errors.New("empty storage path")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateSelector(&cfg.Selector); err != nil {
		errs = append(errs, err)
	}

	if err := validateFetch(&cfg.Fetch); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(cfg.Storage.Path) == "" {
		errs = append(errs, ErrEmptyStoragePath)
	}

	if _, ok := plans.Lookup(cfg.Plan.Name); !ok {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidPlan, cfg.Plan.Name))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateSelector(cfg *SelectorConfig) error {
	var errs []error

	if cfg.StrongCap <= 0 {
		errs = append(errs, fmt.Errorf("%w: strong_cap must be positive, got %d", ErrInvalidCap, cfg.StrongCap))
	}
	if cfg.WeakCap <= 0 {
		errs = append(errs, fmt.Errorf("%w: weak_cap must be positive, got %d", ErrInvalidCap, cfg.WeakCap))
	}

	for _, pattern := range cfg.Include {
		if _, err := glob.Compile(strings.ToLower(pattern), '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateFetch(cfg *FetchConfig) error {
	var errs []error

	if cfg.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConcurrency, cfg.Concurrency))
	}
	if cfg.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: timeout cannot be negative, got %s", ErrInvalidTimeout, cfg.Timeout))
	}
	if cfg.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("%w: cache_ttl cannot be negative, got %s", ErrInvalidTimeout, cfg.CacheTTL))
	}
	if cfg.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size must be positive, got %d", ErrInvalidCacheSettings, cfg.CacheSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
