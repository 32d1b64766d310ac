package scanner

// ProgressReporter provides callbacks for reporting scan progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnTreeListed is called after the repository tree is listed.
	OnTreeListed(entries int)

	// OnSelected is called once candidates are chosen.
	OnSelected(strong, weak int)

	// OnFileFetched is called after each fetch attempt. It may be called
	// concurrently.
	OnFileFetched(path string)

	// OnComplete is called when the scan finishes, including partial scans.
	OnComplete(result *Result)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnTreeListed(entries int)    {}
func (n *NoOpProgressReporter) OnSelected(strong, weak int) {}
func (n *NoOpProgressReporter) OnFileFetched(path string)   {}
func (n *NoOpProgressReporter) OnComplete(result *Result)   {}
