package github

import (
	"net/url"
	"path"
	"strings"
)

// Files with one of these extensions, or with one of these exact names, are
// imported. Everything else is treated as binary or noise.
var includedExtensions = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".json": true, ".md": true,
	".html": true, ".css": true, ".scss": true, ".py": true, ".rb": true, ".java": true,
	".go": true, ".php": true, ".rs": true, ".swift": true, ".kt": true, ".c": true,
	".cpp": true, ".h": true, ".cs": true, ".sh": true, ".yml": true, ".yaml": true,
	".toml": true, ".ini": true, ".cfg": true, ".xml": true, ".svg": true,
}

var includedNames = map[string]bool{
	"Dockerfile":   true,
	".env.example": true,
}

// Any path segment matching one of these excludes the file.
var ignoredDirs = map[string]bool{
	"node_modules": true, "dist": true, "build": true, "target": true, "vendor": true,
	".git": true, "coverage": true, "public": true, "assets": true,
}

// DefaultMaxFileBytes is the largest blob imported.
const DefaultMaxFileBytes = 1_000_000

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepoURL extracts owner and repository from a github.com URL.
func ParseRepoURL(raw string) (Repo, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() != "github.com" {
		return Repo{}, &ImportError{Kind: KindInvalidURL, Message: msgInvalidURL}
	}
	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return Repo{}, &ImportError{Kind: KindInvalidURL, Message: msgInvalidURL}
	}
	name := strings.TrimSuffix(parts[1], ".git")
	if name == "" {
		return Repo{}, &ImportError{Kind: KindInvalidURL, Message: msgInvalidURL}
	}
	return Repo{Owner: parts[0], Name: name}, nil
}

// TreeEntry is one item of a recursive git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Include reports whether a tree entry is imported.
func Include(e TreeEntry, maxBytes int64) bool {
	if e.Type != "blob" {
		return false
	}
	if e.Size > maxBytes {
		return false
	}
	for _, seg := range strings.Split(e.Path, "/") {
		if ignoredDirs[seg] {
			return false
		}
	}
	base := path.Base(e.Path)
	if includedNames[base] {
		return true
	}
	return includedExtensions[path.Ext(base)]
}

// FilterTree keeps the importable entries in tree order.
func FilterTree(entries []TreeEntry, maxBytes int64) []TreeEntry {
	var out []TreeEntry
	for _, e := range entries {
		if Include(e, maxBytes) {
			out = append(out, e)
		}
	}
	return out
}
