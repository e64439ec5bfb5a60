package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/sift/internal/analysis"
	"github.com/dgallion1/sift/internal/llm"
	"github.com/dgallion1/sift/internal/pipeline"
	"github.com/dgallion1/sift/internal/render"
	"github.com/go-chi/chi/v5"
)

type createGenerationRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models":  s.models.Models(),
		"default": s.cfg.DefaultModel,
	})
}

func (s *Server) handleCreateGeneration(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req createGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		jsonError(w, "input is required", http.StatusBadRequest)
		return
	}
	if req.Model == "" {
		req.Model = s.cfg.DefaultModel
	}
	if _, err := s.models.Lookup(req.Model); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := llm.CheckBudget(req.Input, s.cfg.MaxInputTokens); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(req.Input, req.Model)
	if err := s.orchestrator.Submit(job); err != nil {
		if errors.Is(err, pipeline.ErrQueueFull) {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.log.Info("generation submitted",
		"generation_id", job.ID,
		"model", job.Model,
		"input_hash", job.InputHash,
		"input_bytes", len(req.Input),
	)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"generation_id": job.ID,
		"status":        job.Snapshot().Status,
		"poll_url":      fmt.Sprintf("/api/generations/%s", job.ID),
		"events_url":    fmt.Sprintf("/api/generations/%s/events", job.ID),
		"view_url":      fmt.Sprintf("/generations/%s", job.ID),
	})
}

// jobFor resolves the {id} URL parameter, writing a 404 when unknown.
func (s *Server) jobFor(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	job := s.orchestrator.GetJob(chi.URLParam(r, "id"))
	if job == nil {
		jsonError(w, "generation not found", http.StatusNotFound)
	}
	return job
}

func (s *Server) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	job := s.jobFor(w, r)
	if job == nil {
		return
	}
	snap := job.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"generation": snap,
		"mode":       render.Decide(snap.Status, snap.Document, job.Result()),
	})
}

func (s *Server) handleCancelGeneration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.orchestrator.Cancel(id); err != nil {
		switch {
		case errors.Is(err, pipeline.ErrNotFound):
			jsonError(w, "generation not found", http.StatusNotFound)
		case errors.Is(err, pipeline.ErrNotRunning):
			jsonError(w, err.Error(), http.StatusConflict)
		default:
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, s.orchestrator.GetJob(id).Snapshot())
}

// finishedResult returns the derived sections, writing a 409 while the
// generation has not returned to idle with a parsed document.
func finishedResult(w http.ResponseWriter, job *pipeline.Job) (*analysis.Result, bool) {
	snap := job.Snapshot()
	res := job.Result()
	if snap.Status != pipeline.StatusIdle || res == nil {
		jsonError(w, fmt.Sprintf("generation is %s, sections are available once it completes", snap.Status), http.StatusConflict)
		return nil, false
	}
	return res, true
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	job := s.jobFor(w, r)
	if job == nil {
		return
	}
	res, ok := finishedResult(w, job)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generation_id": job.ID,
		"cards":         res.Cards,
		"tables":        res.Tables,
	})
}

func (s *Server) handleSectionTable(w http.ResponseWriter, r *http.Request) {
	job := s.jobFor(w, r)
	if job == nil {
		return
	}
	res, ok := finishedResult(w, job)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonError(w, "section index must be an integer", http.StatusBadRequest)
		return
	}
	table, ok := res.Table(index)
	if !ok {
		jsonError(w, "section has no table", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	var state analysis.SortState
	if key := q.Get("sort"); key != "" {
		if !slices.Contains(table.Headers, key) {
			jsonError(w, fmt.Sprintf("unknown column %q", key), http.StatusBadRequest)
			return
		}
		state = analysis.SortState{Key: key, Direction: analysis.ParseDirection(q.Get("dir"))}
	}

	rows := analysis.View(table, q.Get("q"), state)
	next := make(map[string]analysis.SortState, len(table.Headers))
	for _, h := range table.Headers {
		next[h] = analysis.NextSort(state, h)
	}

	resp := map[string]any{
		"index":     index,
		"title":     res.Cards[index].Title,
		"headers":   table.Headers,
		"rows":      rows,
		"total":     len(table.Rows),
		"matched":   len(rows),
		"next_sort": next,
	}
	if !state.IsZero() {
		resp["sort"] = state
	}
	if len(rows) == 0 {
		resp["message"] = "No results found."
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "id"))
	if job == nil {
		http.NotFound(w, r)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := render.Page(w, render.PageData{
		GenerationID: snap.ID,
		Status:       snap.Status,
		Document:     snap.Document,
		Error:        snap.Error,
		Result:       job.Result(),
		Query:        r.URL.Query(),
	})
	if err != nil {
		s.log.Error("render page failed", "generation_id", snap.ID, "error", err)
	}
}

// handleGenerationEvents streams the document as server-sent events: "chunk"
// events carry text in arrival order, then a single "status" event reports
// the final state.
func (s *Server) handleGenerationEvents(w http.ResponseWriter, r *http.Request) {
	job := s.jobFor(w, r)
	if job == nil {
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sent := 0
	for {
		changed := job.Changed()
		snap := job.Snapshot()

		if len(snap.Document) > sent {
			if err := writeEvent(w, "chunk", map[string]string{"text": snap.Document[sent:]}); err != nil {
				return
			}
			sent = len(snap.Document)
		}
		if !snap.Running() {
			_ = writeEvent(w, "status", map[string]any{
				"status":    snap.Status,
				"error":     snap.Error,
				"cancelled": snap.Cancelled,
				"mode":      render.Decide(snap.Status, snap.Document, job.Result()),
			})
			_ = rc.Flush()
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}

		select {
		case <-changed:
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	return err
}
