package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mvp-joe/schemagraph/internal/config"
	"github.com/mvp-joe/schemagraph/internal/scanner"
	"github.com/mvp-joe/schemagraph/internal/selector"
	"github.com/mvp-joe/schemagraph/internal/source"
	"github.com/mvp-joe/schemagraph/internal/storage"
)

// signalContext returns a context cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// loadConfig loads configuration from the working directory.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newSelector(cfg *config.Config) (*selector.Selector, error) {
	sel, err := selector.New(cfg.SelectorOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create selector: %w", err)
	}
	return sel, nil
}

func newScanner(cfg *config.Config, sel *selector.Selector, progress scanner.ProgressReporter) *scanner.Scanner {
	opts := cfg.ScannerOptions()
	opts.Verbose = verbose
	opts.Progress = progress
	return scanner.New(sel, opts)
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	store, err := storage.Open(cfg.StoragePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open diagram store: %w", err)
	}
	return store, nil
}

// openSource opens a GitHub repository when repo is set, otherwise the local
// directory dir. The returned key names the repository for storage.
func openSource(cfg *config.Config, dir, repo, branch string) (src source.Source, key string, err error) {
	if repo != "" {
		opts := cfg.GitHubOptions()
		if branch != "" {
			opts.Branch = branch
		}
		gh, err := source.NewGitHub(repo, opts)
		if err != nil {
			return nil, "", err
		}
		return gh, gh.FullName(), nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	local, err := source.NewLocal(abs)
	if err != nil {
		return nil, "", err
	}
	return local, abs, nil
}

// defaultUser is the account usage is recorded under when --user is not given.
func defaultUser() string {
	if u := os.Getenv("SCHEMAGRAPH_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
