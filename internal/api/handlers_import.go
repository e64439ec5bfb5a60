package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/sift/internal/github"
)

type importRequest struct {
	URL string `json:"url"`
}

func importStatus(kind github.ErrorKind) int {
	switch kind {
	case github.KindInvalidURL:
		return http.StatusBadRequest
	case github.KindNotFound, github.KindBranchNotFound:
		return http.StatusNotFound
	case github.KindRateLimited:
		return http.StatusTooManyRequests
	case github.KindForbidden:
		return http.StatusForbidden
	case github.KindNoFiles:
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

func (s *Server) handleImportGitHub(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		jsonError(w, "url is required", http.StatusBadRequest)
		return
	}

	var progress []string
	imp, err := s.importer.Import(r.Context(), req.URL, func(msg string) {
		progress = append(progress, msg)
	})
	if err != nil {
		var impErr *github.ImportError
		if errors.As(err, &impErr) {
			s.log.Warn("github import rejected", "url", req.URL, "kind", impErr.Kind, "status", impErr.Status)
			jsonError(w, impErr.Message, importStatus(impErr.Kind))
			return
		}
		s.log.Error("github import failed", "url", req.URL, "error", err)
		jsonError(w, "github import failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"content":    imp.Content,
		"file_count": imp.FileCount,
		"repo_name":  imp.RepoName,
		"branch":     imp.Branch,
		"truncated":  imp.Truncated,
		"progress":   progress,
	})
}
