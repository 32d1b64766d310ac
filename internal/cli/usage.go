package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/schemagraph/internal/diagrams"
	"github.com/mvp-joe/schemagraph/internal/plans"
	"github.com/mvp-joe/schemagraph/internal/storage"
)

var (
	usageUserFlag string
	usagePlanFlag string
)

// usageCmd represents the usage command
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show today's diagram generations against the plan limit",
	RunE:  runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.Flags().StringVar(&usageUserFlag, "user", "", "User to report (default: $SCHEMAGRAPH_USER or $USER)")
	usageCmd.Flags().StringVar(&usagePlanFlag, "plan", "", "Plan to compare against (default: plan.name from config)")
}

func runUsage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	user := usageUserFlag
	if user == "" {
		user = defaultUser()
	}
	plan := usagePlanFlag
	if plan == "" {
		plan = cfg.Plan.Name
	}

	return printUsage(cmd.Context(), cmd.OutOrStdout(), store, user, plans.Get(plan), diagrams.Date(time.Now()))
}

func printUsage(ctx context.Context, w io.Writer, store *storage.Store, user string, plan plans.Plan, date string) error {
	used, err := store.Usage(ctx, user, date)
	if err != nil {
		return fmt.Errorf("failed to read usage: %w", err)
	}
	repos, err := store.CountRepositories(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to count repositories: %w", err)
	}

	fmt.Fprintf(w, "User:         %s\n", user)
	fmt.Fprintf(w, "Plan:         %s\n", plan.Name)
	fmt.Fprintf(w, "Date (UTC):   %s\n", date)
	fmt.Fprintf(w, "Diagrams:     %s\n", usageLine(used, plan.DiagramsPerDay))
	fmt.Fprintf(w, "Repositories: %s\n", usageLine(repos, plan.RepoLimit))
	return nil
}

// usageLine renders "used/limit", or "used/unlimited".
func usageLine(used, limit int) string {
	if limit == plans.Unlimited {
		return fmt.Sprintf("%d/unlimited", used)
	}
	return fmt.Sprintf("%d/%d", used, limit)
}
