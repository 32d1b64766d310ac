package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/schemagraph/internal/scanner"
)

// CLIProgressReporter shows fetch progress on stderr so stdout stays clean
// for scan output.
type CLIProgressReporter struct {
	quiet    bool
	out      io.Writer
	fetchBar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet: quiet,
		out:   os.Stderr,
	}
}

func (c *CLIProgressReporter) OnTreeListed(entries int) {
	if c.quiet {
		return
	}
	log.Printf("Listed %s tree entries", formatNumber(entries))
}

func (c *CLIProgressReporter) OnSelected(strong, weak int) {
	if c.quiet {
		return
	}
	log.Printf("Fetching %d likely and %d possible schema files", strong, weak)

	c.fetchBar = progressbar.NewOptions(strong+weak,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Fetching files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

// OnFileFetched may be called from several goroutines; ProgressBar.Add is
// safe for that.
func (c *CLIProgressReporter) OnFileFetched(path string) {
	if c.quiet || c.fetchBar == nil {
		return
	}
	c.fetchBar.Add(1)
}

func (c *CLIProgressReporter) OnComplete(result *scanner.Result) {
	if c.quiet {
		return
	}
	if c.fetchBar != nil {
		c.fetchBar.Finish()
		c.fetchBar = nil
	}

	fmt.Fprintf(c.out, "✓ Scan complete: %s models from %s files in %.1fs\n",
		formatNumber(len(result.Models)), formatNumber(result.Scanned), result.Duration.Seconds())
	if result.Failed > 0 {
		fmt.Fprintf(c.out, "  Failed fetches: %s\n", formatNumber(result.Failed))
	}
	if result.Truncated {
		fmt.Fprintln(c.out, "  Fetch deadline reached; results are partial")
	}
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
