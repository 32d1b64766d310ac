package selector

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// EntryType distinguishes files from directories in a tree listing.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// TreeEntry is one item of a repository tree listing.
type TreeEntry struct {
	Path string    `json:"path"`
	Type EntryType `json:"type"`
	SHA  string    `json:"sha,omitempty"` // Content hash when the source provides one
}

// Tier is the selector's confidence that a file declares schemas.
type Tier int

const (
	// TierStrong files sit in model-like directories or have model-like names.
	TierStrong Tier = iota
	// TierWeak files must pass a content probe before they are parsed.
	TierWeak
)

func (t Tier) String() string {
	switch t {
	case TierStrong:
		return "strong"
	case TierWeak:
		return "weak"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Candidate is a file chosen for fetching.
type Candidate struct {
	Path string `json:"path"`
	SHA  string `json:"sha,omitempty"`
	Tier Tier   `json:"tier"`
}

// Selection is the ordered result of Select: strong candidates first.
type Selection struct {
	Strong   []Candidate
	Weak     []Candidate
	Eligible int // Files passing the extension allow-list and exclusions
	Excluded int // Allow-listed files dropped by exclusion rules
	Overflow int // Eligible files dropped by the caps
}

// All returns strong candidates followed by weak ones.
func (s *Selection) All() []Candidate {
	all := make([]Candidate, 0, len(s.Strong)+len(s.Weak))
	all = append(all, s.Strong...)
	return append(all, s.Weak...)
}

// Len returns the number of selected candidates.
func (s *Selection) Len() int {
	return len(s.Strong) + len(s.Weak)
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	root    glob.Glob // pattern without a leading "**/", for files at the root
}

// Selector decides which files of a tree are worth fetching.
type Selector struct {
	opts    Options
	include []compiledPattern
}

// New compiles the include patterns of opts.
func New(opts Options) (*Selector, error) {
	s := &Selector{opts: opts}

	for _, pattern := range opts.Include {
		cp, err := compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
		s.include = append(s.include, cp)
	}

	return s, nil
}

// Options returns the options the selector was built with.
func (s *Selector) Options() Options {
	return s.opts
}

func compile(pattern string) (compiledPattern, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return compiledPattern{}, err
	}
	cp := compiledPattern{pattern: pattern, glob: g}

	// "**/*.js" should also match "app.js" at the repository root.
	if strings.HasPrefix(pattern, "**/") {
		if root, err := glob.Compile(strings.TrimPrefix(pattern, "**/"), '/'); err == nil {
			cp.root = root
		}
	}
	return cp, nil
}

// Select filters and ranks a tree listing. Order within each tier follows
// the listing order.
func (s *Selector) Select(entries []TreeEntry) *Selection {
	sel := &Selection{}

	for _, entry := range entries {
		if entry.Type != EntryFile || !s.Allowed(entry.Path) {
			continue
		}
		if s.Excluded(entry.Path) {
			sel.Excluded++
			continue
		}
		sel.Eligible++

		if s.isStrong(entry.Path) {
			if len(sel.Strong) < s.opts.StrongCap {
				sel.Strong = append(sel.Strong, Candidate{Path: entry.Path, SHA: entry.SHA, Tier: TierStrong})
			} else {
				sel.Overflow++
			}
			continue
		}

		if len(sel.Weak) < s.opts.WeakCap {
			sel.Weak = append(sel.Weak, Candidate{Path: entry.Path, SHA: entry.SHA, Tier: TierWeak})
		} else {
			sel.Overflow++
		}
	}

	return sel
}

// Allowed reports whether the lower-cased path matches an include pattern.
func (s *Selector) Allowed(p string) bool {
	p = strings.ToLower(p)
	for _, cp := range s.include {
		if cp.glob.Match(p) {
			return true
		}
		if cp.root != nil && !strings.Contains(p, "/") && cp.root.Match(p) {
			return true
		}
	}
	return false
}

// Excluded reports whether path is a test, build output, dependency,
// type declaration or migration file.
func (s *Selector) Excluded(p string) bool {
	lower := strings.ToLower(p)
	for _, sub := range s.opts.Exclude {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// IsStrong reports whether path would be a strong candidate.
func (s *Selector) IsStrong(p string) bool {
	return s.Allowed(p) && !s.Excluded(p) && s.isStrong(p)
}

func (s *Selector) isStrong(p string) bool {
	lower := "/" + strings.ToLower(strings.TrimPrefix(p, "/"))
	for _, dir := range s.opts.StrongDirs {
		if strings.Contains(lower, dir) {
			return true
		}
	}

	name := path.Base(lower)
	for _, word := range s.opts.StrongNames {
		if strings.Contains(name, word) {
			return true
		}
	}
	return false
}
