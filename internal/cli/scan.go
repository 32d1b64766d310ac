package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/schemagraph/internal/diagrams"
	"github.com/mvp-joe/schemagraph/internal/scanner"
	"github.com/mvp-joe/schemagraph/internal/source"
	"github.com/mvp-joe/schemagraph/internal/watcher"
)

var (
	scanGitHubFlag string
	scanBranchFlag string
	scanFormatFlag string
	scanSaveFlag   bool
	scanUserFlag   string
	scanPlanFlag   string
	scanWatchFlag  bool
	scanQuietFlag  bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Extract Mongoose models from a repository",
	Long: `Scan lists a repository, picks the files most likely to declare Mongoose
schemas, fetches them in parallel and reconstructs every model with its
fields and relationships.

Examples:
  # Scan the current directory
  schemagraph scan

  # Scan a GitHub repository on a given branch as a Graphviz diagram
  schemagraph scan --github acme/shop --branch develop --format dot | dot -Tsvg > shop.svg

  # Save the diagram under your plan
  schemagraph scan --github acme/shop --save --plan pro

  # Re-scan whenever a model file changes
  schemagraph scan ./backend --watch --format summary
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanGitHubFlag, "github", "", "Scan a GitHub repository (owner/repo or URL) instead of a directory")
	scanCmd.Flags().StringVar(&scanBranchFlag, "branch", "", "Branch to scan on GitHub (default: repository default branch)")
	scanCmd.Flags().StringVarP(&scanFormatFlag, "format", "f", formatSummary, "Output format: json, dot or summary")
	scanCmd.Flags().BoolVar(&scanSaveFlag, "save", false, "Store the diagram and count it against the plan")
	scanCmd.Flags().StringVar(&scanUserFlag, "user", "", "User to save diagrams for (default: $SCHEMAGRAPH_USER or $USER)")
	scanCmd.Flags().StringVar(&scanPlanFlag, "plan", "", "Plan to enforce when saving (default: plan.name from config)")
	scanCmd.Flags().BoolVarP(&scanWatchFlag, "watch", "w", false, "Watch the directory and re-scan on changes")
	scanCmd.Flags().BoolVarP(&scanQuietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if scanGitHubFlag != "" && len(args) == 1 {
		return errors.New("pass either a directory or --github, not both")
	}
	if scanWatchFlag && scanGitHubFlag != "" {
		return errors.New("--watch only works with local directories")
	}
	if err := validateFormat(scanFormatFlag); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	src, key, err := openSource(cfg, dir, scanGitHubFlag, scanBranchFlag)
	if err != nil {
		return err
	}
	cached, err := source.NewCachedSource(src, cfg.Fetch.CacheSize, cfg.Fetch.CacheTTL)
	if err != nil {
		return err
	}
	defer cached.Close()

	sel, err := newSelector(cfg)
	if err != nil {
		return err
	}

	var progress scanner.ProgressReporter = &scanner.NoOpProgressReporter{}
	if !scanQuietFlag {
		progress = NewCLIProgressReporter(false)
	}

	job := &scanJob{
		source:  cached,
		key:     key,
		scanner: newScanner(cfg, sel, progress),
		format:  scanFormatFlag,
		out:     cmd.OutOrStdout(),
		quiet:   scanQuietFlag,
	}

	if scanSaveFlag {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		job.service = diagrams.NewService(job.scanner, store)
		job.user = scanUserFlag
		if job.user == "" {
			job.user = defaultUser()
		}
		job.plan = scanPlanFlag
		if job.plan == "" {
			job.plan = cfg.Plan.Name
		}
	}

	if err := job.run(ctx); err != nil {
		return err
	}
	if !scanWatchFlag {
		return nil
	}

	local, ok := src.(*source.Local)
	if !ok {
		return errors.New("--watch only works with local directories")
	}
	w, err := watcher.New(local.Root(), watcher.Options{
		Filter: func(rel string) bool {
			return sel.Allowed(rel) && !sel.Excluded(rel)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", local.Root(), err)
	}
	defer w.Stop()

	return watchLoop(ctx, w, cached, job)
}

// watchLoop re-runs job for every batch of changes until ctx is cancelled.
// Failed re-scans are logged and watching continues.
func watchLoop(ctx context.Context, w *watcher.Watcher, cached *source.CachedSource, job *scanJob) error {
	changes := make(chan []string, 1)
	err := w.Start(ctx, func(paths []string) {
		select {
		case changes <- paths:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}

	if !job.quiet {
		log.Println("Watching for changes (Ctrl+C to stop)...")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			w.Pause()
			cached.Invalidate(paths...)
			if !job.quiet {
				log.Printf("%d file(s) changed, re-scanning", len(paths))
			}
			if err := job.run(ctx); err != nil {
				log.Printf("Scan failed: %v", err)
			}
			w.Resume()
		}
	}
}

// scanJob is one configured scan, repeated in watch mode.
type scanJob struct {
	source  source.Source
	key     string
	scanner *scanner.Scanner
	service *diagrams.Service // nil unless saving
	user    string
	plan    string
	format  string
	out     io.Writer
	quiet   bool
}

func (j *scanJob) run(ctx context.Context) error {
	if j.service == nil {
		result, err := j.scanner.Scan(ctx, j.source)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", j.key, err)
		}
		if len(result.Models) == 0 && !j.quiet {
			log.Println(diagrams.NoSchemasMessage)
		}
		return render(j.out, j.format, result.Models, result)
	}

	outcome, err := j.service.Generate(ctx, diagrams.Request{
		Repository: j.key,
		User:       j.user,
		Plan:       j.plan,
		Source:     j.source,
	})
	if err != nil {
		return err
	}

	if outcome.Diagram == nil {
		if !j.quiet {
			log.Println(outcome.Message)
		}
		if outcome.Scan == nil {
			return nil
		}
		return render(j.out, j.format, outcome.Scan.Models, outcome)
	}

	if !j.quiet {
		log.Printf("Saved diagram %s for %s (%s)", outcome.Diagram.ID, j.key, usageLine(outcome.Used, outcome.Limit))
	}
	return render(j.out, j.format, outcome.Diagram.Models, outcome)
}
