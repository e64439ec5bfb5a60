package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/sift/internal/analysis"
)

type stubGenerator struct {
	chunks []string
	err    error
	got    Request
}

func (s *stubGenerator) Stream(ctx context.Context, req Request, onChunk func(string)) error {
	s.got = req
	for _, c := range s.chunks {
		onChunk(c)
	}
	return s.err
}

func TestStreamTextSuccess(t *testing.T) {
	g := &stubGenerator{chunks: []string{"a", "b"}}
	var events []string
	StreamText(context.Background(), g, "input", "m",
		func(s string) { events = append(events, "chunk:"+s) },
		func(s string) { events = append(events, "error:"+s) },
		func() { events = append(events, "complete") },
	)
	assert.Equal(t, []string{"chunk:a", "chunk:b", "complete"}, events)
	assert.Equal(t, Request{Input: "input", Model: "m"}, g.got)
}

func TestStreamTextError(t *testing.T) {
	g := &stubGenerator{chunks: []string{"a"}, err: errors.New("boom")}
	var events []string
	StreamText(context.Background(), g, "input", "m",
		func(s string) { events = append(events, "chunk:"+s) },
		func(s string) { events = append(events, "error:"+s) },
		func() { events = append(events, "complete") },
	)
	assert.Equal(t, []string{"chunk:a", "error:Failed to generate analysis. Error: boom", "complete"}, events)
}

func TestRegistryRouting(t *testing.T) {
	gemini := &stubGenerator{chunks: []string{"g"}}
	r := NewRegistry(Models)
	r.Register(ProviderGoogle, gemini)

	var out strings.Builder
	require.NoError(t, r.Stream(context.Background(), Request{Model: "gemini-2.5-flash"}, func(s string) { out.WriteString(s) }))
	assert.Equal(t, "g", out.String())

	err := r.Stream(context.Background(), Request{Model: "claude-sonnet-4-5-20250929"}, func(string) {})
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "API key for provider anthropic is not configured", err.Error())

	err = r.Stream(context.Background(), Request{Model: "gpt-nope"}, func(string) {})
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRegistryModelsCopy(t *testing.T) {
	r := NewRegistry(Models)
	models := r.Models()
	models[0].ID = "changed"
	assert.Equal(t, Models[0].ID, r.Models()[0].ID)

	m, err := r.Lookup("gemini-2.5-pro")
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, m.Provider)
}

func TestSystemPrompt(t *testing.T) {
	now := time.Date(2025, time.March, 4, 15, 30, 0, 0, time.UTC)
	prompt := SystemPrompt(now)

	assert.Contains(t, prompt, "Tuesday, March 4, 2025 at 3:30 PM UTC")
	assert.NotContains(t, prompt, datePlaceholder)
	for _, label := range analysis.MarkerLabels() {
		assert.Contains(t, prompt, "## "+label)
	}
}

func TestUserContent(t *testing.T) {
	assert.Equal(t, "Here is the user-provided artifact to analyze:\n\n---\n\nspec text", UserContent("spec text"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("a"))
	assert.Equal(t, 13, EstimateTokens(strings.Repeat("word ", 10)))
	// Unbroken text falls back to the character estimate.
	assert.Equal(t, 250, EstimateTokens(strings.Repeat("x", 1000)))
}

func TestCheckBudget(t *testing.T) {
	assert.NoError(t, CheckBudget(strings.Repeat("x", 1000), 0))
	assert.NoError(t, CheckBudget(strings.Repeat("x", 1000), 250))

	err := CheckBudget(strings.Repeat("x", 1000), 100)
	var budgetErr *BudgetError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, 250, budgetErr.Tokens)
	assert.Equal(t, 100, budgetErr.Max)
}

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(Sample{
			Total:      time.Duration(ms) * time.Millisecond,
			FirstChunk: 10 * time.Millisecond,
			Bytes:      100,
		})
	}

	snap := stats.Snapshot()
	assert.Equal(t, 5, snap.Count)
	assert.Equal(t, int64(100), snap.MinMs)
	assert.Equal(t, int64(500), snap.MaxMs)
	assert.Equal(t, 300.0, snap.AvgMs)
	assert.Equal(t, 300.0, snap.P50Ms)
	assert.Equal(t, 480.0, snap.P95Ms)
	assert.Equal(t, 496.0, snap.P99Ms)
	assert.Equal(t, 10.0, snap.AvgFirstChunkMs)
	assert.Equal(t, int64(500), snap.TotalBytes)
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record(Sample{Total: 100 * time.Millisecond})
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, 0, stats.Snapshot().Count)

	stats.Record(Sample{Total: -time.Second})
	snap := stats.Snapshot()
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, int64(0), snap.MinMs)
}
