package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/schemagraph/internal/config"
	"github.com/mvp-joe/schemagraph/internal/mcp"
	"github.com/mvp-joe/schemagraph/internal/source"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for schema extraction",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can
extract Mongoose models from repositories.

The MCP server provides:
- schema_extract: models as JSON, or a Graphviz diagram with format=dot
- schema_diagram: nodes and relationship edges as JSON

The path argument of both tools may be a local directory or an owner/repo
on GitHub. Communicates via stdio (standard MCP transport).

Example:
  schemagraph mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sel, err := newSelector(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Schemagraph MCP Server %s\n\n", Version)

	server := mcp.NewServer(newScanner(cfg, sel, nil), pathOpener(cfg), Version)
	return server.Serve(cmd.Context())
}

// pathOpener resolves existing directories locally and anything else as a
// GitHub repository. GitHub sources are cached per repository for the life
// of the server.
func pathOpener(cfg *config.Config) mcp.Opener {
	var mu sync.Mutex
	remotes := make(map[string]*source.CachedSource)

	return func(ctx context.Context, path string) (source.Source, error) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return source.NewLocal(path)
		}

		gh, err := source.NewGitHub(path, cfg.GitHubOptions())
		if err != nil {
			return nil, fmt.Errorf("%s is neither a directory nor a GitHub repository: %w", path, err)
		}

		mu.Lock()
		defer mu.Unlock()
		if cached, ok := remotes[gh.FullName()]; ok {
			return cached, nil
		}
		cached, err := source.NewCachedSource(gh, cfg.Fetch.CacheSize, cfg.Fetch.CacheTTL)
		if err != nil {
			return nil, err
		}
		remotes[gh.FullName()] = cached
		return cached, nil
	}
}
