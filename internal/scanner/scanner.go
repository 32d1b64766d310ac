// Package scanner turns a repository into a model collection.
//
// A scan lists the tree, lets the selector pick candidates, fetches their
// content with bounded parallelism, parses each file independently and then
// merges the per-file models in selector order so that name deduplication
// is deterministic regardless of which fetch finished first.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/schemagraph/internal/schema"
	"github.com/mvp-joe/schemagraph/internal/selector"
	"github.com/mvp-joe/schemagraph/internal/source"
)

// ErrTreeUnavailable is returned when the repository listing cannot be obtained.
// It is the only failure that aborts a scan.
var ErrTreeUnavailable = errors.New("repository tree unavailable")

// DefaultConcurrency bounds concurrent content fetches.
const DefaultConcurrency = 8

// Status distinguishes a scan that produced models from one that did not.
type Status string

const (
	StatusFound     Status = "found"
	StatusNoSchemas Status = "no_schemas"
)

// Result is the outcome of one scan.
type Result struct {
	Models    []schema.Model `json:"models"`
	Status    Status         `json:"status"`
	Selected  int            `json:"selected"`  // Candidates chosen by the selector
	Scanned   int            `json:"scanned"`   // Files handed to the extraction engine
	Failed    int            `json:"failed"`    // Fetches that returned an error
	Truncated bool           `json:"truncated"` // The batch deadline expired before all fetches ran
	Duration  time.Duration  `json:"duration"`
}

// Options configures a Scanner.
type Options struct {
	Concurrency int              // Parallel fetches; defaults to DefaultConcurrency
	Timeout     time.Duration    // Batch deadline for fetching; zero means none
	Verbose     bool             // Log individual fetch failures
	Progress    ProgressReporter // Defaults to NoOpProgressReporter
}

// Scanner runs scans against any Source.
type Scanner struct {
	selector *selector.Selector
	opts     Options
}

// New creates a scanner using sel to choose candidate files.
func New(sel *selector.Selector, opts Options) *Scanner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Progress == nil {
		opts.Progress = &NoOpProgressReporter{}
	}
	return &Scanner{selector: sel, opts: opts}
}

// fetched is the per-candidate slot filled by one worker.
type fetched struct {
	done   bool
	models []schema.Model
}

// Scan lists src, fetches the selected candidates and extracts models.
// Only a failed tree listing returns an error; everything else degrades to
// fewer models.
func (s *Scanner) Scan(ctx context.Context, src source.Source) (*Result, error) {
	start := time.Now()

	entries, err := src.Tree(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTreeUnavailable, err)
	}
	s.opts.Progress.OnTreeListed(len(entries))

	selection := s.selector.Select(entries)
	s.opts.Progress.OnSelected(len(selection.Strong), len(selection.Weak))
	candidates := selection.All()

	batchCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	slots := make([]fetched, len(candidates))
	var scanned, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)

	for i, cand := range candidates {
		if batchCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if batchCtx.Err() != nil {
				return nil
			}

			content, err := src.Content(batchCtx, cand.Path)
			s.opts.Progress.OnFileFetched(cand.Path)
			if err != nil {
				if batchCtx.Err() != nil {
					return nil
				}
				failed.Add(1)
				if s.opts.Verbose {
					log.Printf("Warning: failed to fetch %s: %v\n", cand.Path, err)
				}
				content = ""
			}

			slots[i].done = true
			if !keep(cand, content) {
				return nil
			}

			scanned.Add(1)
			slots[i].models = schema.ParseFile(schema.SourceFile{Path: cand.Path, Content: content})
			return nil
		})
	}
	// Workers never return errors.
	_ = g.Wait()

	registry := schema.NewNameRegistry()
	models := []schema.Model{}
	truncated := false
	for _, slot := range slots {
		if !slot.done {
			truncated = true
			continue
		}
		models = append(models, registry.Merge(slot.models)...)
	}

	result := &Result{
		Models:    models,
		Status:    StatusFound,
		Selected:  len(candidates),
		Scanned:   int(scanned.Load()),
		Failed:    int(failed.Load()),
		Truncated: truncated,
		Duration:  time.Since(start),
	}
	if len(models) == 0 {
		result.Status = StatusNoSchemas
	}

	s.opts.Progress.OnComplete(result)
	return result, nil
}

// keep decides whether fetched content is handed to the extraction engine.
// Weak candidates must pass the cheap probe; empty content never is.
func keep(cand selector.Candidate, content string) bool {
	if content == "" {
		return false
	}
	if cand.Tier == selector.TierWeak {
		return schema.HasSchemaContent(content)
	}
	return true
}
