package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/schemagraph/internal/storage"
)

var (
	diagramsUserFlag   string
	diagramsRepoFlag   string
	diagramsFormatFlag string
)

// diagramsCmd groups commands for saved diagrams
var diagramsCmd = &cobra.Command{
	Use:   "diagrams",
	Short: "Manage saved diagrams",
	Long: `List, show and delete diagrams saved with 'schemagraph scan --save'.

Examples:
  schemagraph diagrams list
  schemagraph diagrams list --repo acme/shop
  schemagraph diagrams show 5f0c... --format dot
  schemagraph diagrams delete 5f0c...
`,
}

var diagramsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved diagrams, most recently updated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.Store) error {
			return listDiagrams(cmd.Context(), cmd.OutOrStdout(), store, diagramsUser(), diagramsRepoFlag)
		})
	},
}

var diagramsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(diagramsFormatFlag); err != nil {
			return err
		}
		return withStore(func(store *storage.Store) error {
			return showDiagram(cmd.Context(), cmd.OutOrStdout(), store, diagramsUser(), args[0], diagramsFormatFlag)
		})
	},
}

var diagramsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.Store) error {
			return deleteDiagram(cmd.Context(), cmd.OutOrStdout(), store, diagramsUser(), args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(diagramsCmd)
	diagramsCmd.AddCommand(diagramsListCmd, diagramsShowCmd, diagramsDeleteCmd)

	diagramsCmd.PersistentFlags().StringVar(&diagramsUserFlag, "user", "", "Owner of the diagrams (default: $SCHEMAGRAPH_USER or $USER)")
	diagramsListCmd.Flags().StringVar(&diagramsRepoFlag, "repo", "", "Only list diagrams for this repository")
	diagramsShowCmd.Flags().StringVarP(&diagramsFormatFlag, "format", "f", formatSummary, "Output format: json, dot or summary")
}

func diagramsUser() string {
	if diagramsUserFlag != "" {
		return diagramsUserFlag
	}
	return defaultUser()
}

// withStore opens the configured store for the duration of fn.
func withStore(fn func(*storage.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func listDiagrams(ctx context.Context, w io.Writer, store *storage.Store, user, repo string) error {
	list, err := store.ListDiagrams(ctx, user, repo)
	if err != nil {
		return fmt.Errorf("failed to list diagrams: %w", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No saved diagrams")
		return nil
	}

	for _, d := range list {
		fmt.Fprintf(w, "%s  %-40s  %3d models  updated %s\n",
			d.ID, d.Repository, len(d.Models), d.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func showDiagram(ctx context.Context, w io.Writer, store *storage.Store, user, id, format string) error {
	d, err := store.GetDiagram(ctx, id, user)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no diagram %s for user %s", id, user)
	}
	if err != nil {
		return fmt.Errorf("failed to load diagram: %w", err)
	}
	return render(w, format, d.Models, d)
}

func deleteDiagram(ctx context.Context, w io.Writer, store *storage.Store, user, id string) error {
	err := store.DeleteDiagram(ctx, id, user)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no diagram %s for user %s", id, user)
	}
	if err != nil {
		return fmt.Errorf("failed to delete diagram: %w", err)
	}
	fmt.Fprintf(w, "✓ Deleted diagram %s\n", id)
	return nil
}
