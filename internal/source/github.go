package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mvp-joe/schemagraph/internal/selector"
)

// DefaultGitHubAPI is the public GitHub REST endpoint.
const DefaultGitHubAPI = "https://api.github.com"

// GitHubOptions configures a GitHub source.
type GitHubOptions struct {
	APIURL string       // Defaults to DefaultGitHubAPI
	Token  string       // Optional bearer token
	Branch string       // Empty resolves the repository's default branch
	Client *http.Client // Defaults to a client with a 30s timeout
}

// GitHub reads a repository through the GitHub REST API.
type GitHub struct {
	owner  string
	repo   string
	apiURL string
	token  string
	client *http.Client

	mu     sync.Mutex
	branch string
}

// NewGitHub creates a source for repository, given as "owner/repo" or a
// github.com URL.
func NewGitHub(repository string, opts GitHubOptions) (*GitHub, error) {
	owner, repo, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}

	apiURL := strings.TrimRight(opts.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultGitHubAPI
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &GitHub{
		owner:  owner,
		repo:   repo,
		apiURL: apiURL,
		token:  opts.Token,
		client: client,
		branch: opts.Branch,
	}, nil
}

// ParseRepository splits "owner/repo", "github.com/owner/repo" or
// "https://github.com/owner/repo.git" into its parts.
func ParseRepository(s string) (owner, repo string, err error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.TrimPrefix(trimmed, "github.com/")
	trimmed = strings.TrimSuffix(strings.TrimSuffix(trimmed, "/"), ".git")

	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/repo", s)
	}
	return parts[0], parts[1], nil
}

// FullName returns "owner/repo".
func (g *GitHub) FullName() string {
	return g.owner + "/" + g.repo
}

// Branch returns the branch being read, resolving the default branch on first use.
func (g *GitHub) Branch(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.branch != "" {
		return g.branch, nil
	}

	var repo struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := g.getJSON(ctx, g.repoURL(""), &repo); err != nil {
		return "", fmt.Errorf("failed to resolve default branch: %w", err)
	}
	if repo.DefaultBranch == "" {
		return "", fmt.Errorf("repository %s reports no default branch", g.FullName())
	}
	g.branch = repo.DefaultBranch
	return g.branch, nil
}

type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
		SHA  string `json:"sha"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

// Tree lists the repository recursively. Blobs map to files and trees to
// directories; submodules are ignored.
func (g *GitHub) Tree(ctx context.Context) ([]selector.TreeEntry, error) {
	branch, err := g.Branch(ctx)
	if err != nil {
		return nil, err
	}

	var resp treeResponse
	if err := g.getJSON(ctx, g.repoURL("/git/trees/"+url.PathEscape(branch))+"?recursive=1", &resp); err != nil {
		return nil, fmt.Errorf("failed to list tree of %s@%s: %w", g.FullName(), branch, err)
	}

	entries := make([]selector.TreeEntry, 0, len(resp.Tree))
	for _, item := range resp.Tree {
		switch item.Type {
		case "blob":
			entries = append(entries, selector.TreeEntry{Path: item.Path, Type: selector.EntryFile, SHA: item.SHA})
		case "tree":
			entries = append(entries, selector.TreeEntry{Path: item.Path, Type: selector.EntryDir, SHA: item.SHA})
		}
	}
	return entries, nil
}

type contentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Content fetches one file through the contents endpoint.
func (g *GitHub) Content(ctx context.Context, path string) (string, error) {
	branch, err := g.Branch(ctx)
	if err != nil {
		return "", err
	}

	endpoint := g.repoURL("/contents/"+escapePath(path)) + "?ref=" + url.QueryEscape(branch)

	var resp contentResponse
	if err := g.getJSON(ctx, endpoint, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	if resp.Encoding != "base64" {
		return "", fmt.Errorf("unsupported encoding %q for %s", resp.Encoding, path)
	}

	// The API wraps base64 bodies at 60 columns.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return text(raw), nil
}

func (g *GitHub) repoURL(suffix string) string {
	return fmt.Sprintf("%s/repos/%s/%s%s", g.apiURL, url.PathEscape(g.owner), url.PathEscape(g.repo), suffix)
}

func (g *GitHub) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func escapePath(p string) string {
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
