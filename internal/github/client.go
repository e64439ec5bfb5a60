// Package github imports a public repository as a single text artifact.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.github.com"

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL           string
	Token             string
	RequestsPerSecond float64
	MaxConcurrent     int
	MaxFileBytes      int64
}

// Client talks to the GitHub REST API.
type Client struct {
	baseURL       string
	token         string
	maxConcurrent int
	maxFileBytes  int64
	limiter       *rate.Limiter
	httpClient    *http.Client
	log           *slog.Logger
}

func NewClient(opts Options, log *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 10
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 8
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		token:         opts.Token,
		maxConcurrent: opts.MaxConcurrent,
		maxFileBytes:  opts.MaxFileBytes,
		limiter:       rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.MaxConcurrent),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// Import is a repository flattened into one artifact.
type Import struct {
	Content   string `json:"content"`
	FileCount int    `json:"file_count"`
	RepoName  string `json:"repo_name"`
	Branch    string `json:"branch"`
	Truncated bool   `json:"truncated"`
}

type repoInfo struct {
	DefaultBranch string `json:"default_branch"`
}

type treeResponse struct {
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type blobResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Import fetches every relevant file of the repository at repoURL and joins
// them in tree order. onProgress may be nil.
func (c *Client) Import(ctx context.Context, repoURL string, onProgress func(string)) (*Import, error) {
	if onProgress == nil {
		onProgress = func(string) {}
	}
	repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	log := c.log.With("repo", repo.String())
	onProgress(fmt.Sprintf("Fetching file list for %s...", repo))

	var info repoInfo
	status, msg, err := c.getJSON(ctx, "/repos/"+repo.Owner+"/"+repo.Name, &info)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, repoError(status, msg)
	}
	branch := info.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	var tree treeResponse
	status, msg, err = c.getJSON(ctx, "/repos/"+repo.Owner+"/"+repo.Name+"/git/trees/"+branch+"?recursive=1", &tree)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, treeError(status, msg, branch)
	}
	if tree.Truncated {
		log.Warn("repository tree is truncated, some files may be missing")
	}

	files := FilterTree(tree.Tree, c.maxFileBytes)
	if len(files) == 0 {
		return nil, &ImportError{Kind: KindNoFiles, Message: msgNoFiles}
	}
	onProgress(fmt.Sprintf("Found %d files. Fetching content...", len(files)))

	parts := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)
	for i, f := range files {
		g.Go(func() error {
			content, err := c.blob(gctx, repo, f.SHA)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn("skipping file", "path", f.Path, "error", err)
				parts[i] = fmt.Sprintf("--- FAILED TO LOAD FILE: %s ---\n\n", f.Path)
				return nil
			}
			parts[i] = fmt.Sprintf("--- START OF FILE: %s ---\n\n%s\n\n--- END OF FILE: %s ---\n\n", f.Path, content, f.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch files: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyzing repository: %s\nBranch: %s\nTotal files included: %d\n\n", repo, branch, len(files))
	for _, p := range parts {
		sb.WriteString(p)
	}

	log.Info("repository imported", "branch", branch, "files", len(files), "bytes", sb.Len())
	return &Import{
		Content:   sb.String(),
		FileCount: len(files),
		RepoName:  repo.String(),
		Branch:    branch,
		Truncated: tree.Truncated,
	}, nil
}

// blob fetches and decodes one file. Non-base64 payloads decode to "".
func (c *Client) blob(ctx context.Context, repo Repo, sha string) (string, error) {
	var b blobResponse
	status, msg, err := c.getJSON(ctx, "/repos/"+repo.Owner+"/"+repo.Name+"/git/blobs/"+sha, &b)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("blob %s: status %d: %s", sha, status, msg)
	}
	if b.Encoding != "base64" || b.Content == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(b.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode blob %s: %w", sha, err)
	}
	return string(raw), nil
}

// getJSON performs a paced GET. On a 200 it decodes into out; otherwise it
// returns the status and the "message" field of the error body, if any.
func (c *Client) getJSON(ctx context.Context, path string, out any) (int, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, "", fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "sift")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("github api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &e)
		return resp.StatusCode, e.Message, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, "", nil
}

func repoError(status int, msg string) error {
	switch status {
	case http.StatusNotFound:
		return &ImportError{Kind: KindNotFound, Status: status, Message: msgNotFound}
	case http.StatusForbidden:
		return forbiddenError(status, msg, "GitHub API Error: ",
			"Access to the repository is forbidden (Status: 403). This is often due to API rate limiting. Please wait a while before trying again.")
	}
	return &ImportError{
		Kind:    KindUpstream,
		Status:  status,
		Message: fmt.Sprintf("Failed to fetch repository info: %s (Status: %d).", http.StatusText(status), status),
	}
}

func treeError(status int, msg, branch string) error {
	switch status {
	case http.StatusNotFound:
		return &ImportError{
			Kind:    KindBranchNotFound,
			Status:  status,
			Message: fmt.Sprintf("Could not find the default branch ('%s'). The repository might be empty or the branch name is incorrect.", branch),
		}
	case http.StatusForbidden:
		return forbiddenError(status, msg, "GitHub API Error while fetching file list: ",
			"Access to the repository file list is forbidden (Status: 403). This is often due to API rate limiting.")
	}
	return &ImportError{
		Kind:    KindUpstream,
		Status:  status,
		Message: fmt.Sprintf("Failed to fetch file tree: %s (Status: %d).", http.StatusText(status), status),
	}
}

func forbiddenError(status int, msg, prefix, fallback string) error {
	if msg == "" {
		return &ImportError{Kind: KindForbidden, Status: status, Message: fallback}
	}
	if strings.Contains(strings.ToLower(msg), "rate limit") {
		return &ImportError{Kind: KindRateLimited, Status: status, Message: prefix + msg + rateLimitHint}
	}
	return &ImportError{Kind: KindForbidden, Status: status, Message: prefix + msg}
}
