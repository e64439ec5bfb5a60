package github

import "fmt"

// ErrorKind classifies an import failure.
type ErrorKind string

const (
	KindInvalidURL     ErrorKind = "invalid_url"
	KindNotFound       ErrorKind = "not_found"
	KindBranchNotFound ErrorKind = "branch_not_found"
	KindForbidden      ErrorKind = "forbidden"
	KindRateLimited    ErrorKind = "rate_limited"
	KindNoFiles        ErrorKind = "no_files"
	KindUpstream       ErrorKind = "upstream"
)

// ImportError is a user-facing import failure. Message is safe to show.
type ImportError struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *ImportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("github import %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("github import %s: %s", e.Kind, e.Message)
}

const (
	msgInvalidURL = "Invalid GitHub repository URL. Please use a format like 'https://github.com/owner/repo'."
	msgNotFound   = "Repository not found. Please check the URL and ensure it's a public repository."
	msgNoFiles    = "No relevant source code files were found in this repository."
	rateLimitHint = " The limit for unauthenticated requests is low. Please wait a while before trying again."
)
