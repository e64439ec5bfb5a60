package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_PreservesOrderTitlesAndBodies(t *testing.T) {
	var doc strings.Builder
	var want []Section
	for i := 0; i < 6; i++ {
		title := fmt.Sprintf("Title_%d", i)
		body := fmt.Sprintf("Body line for %d.\n\n  - item %d\n", i, i)
		fmt.Fprintf(&doc, "## %s\n%s\n", title, body)
		want = append(want, Section{Title: title, Body: strings.TrimSpace(body)})
	}

	got := Split(doc.String())
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Title, got[i].Title)
		assert.Equal(t, want[i].Body, got[i].Body)
		assert.False(t, got[i].IsTable)
	}
}

func TestSplit_NoHeadersYieldsNoSections(t *testing.T) {
	assert.Empty(t, Split("Just prose.\n\nMore prose."))
	assert.Empty(t, Split(""))
	assert.Empty(t, Split("# Top level only\n\ntext"))
}

func TestSplit_ConsecutiveHeadersGiveEmptyBody(t *testing.T) {
	got := Split("## First\n## Second\nbody")
	require.Len(t, got, 2)
	assert.Equal(t, "First", got[0].Title)
	assert.Equal(t, "", got[0].Body)
	assert.Equal(t, "Second", got[1].Title)
	assert.Equal(t, "body", got[1].Body)
}

func TestSplit_HorizontalRulesDelimitAndAreDropped(t *testing.T) {
	doc := "intro without header\n\n## A\nalpha\n---\norphan text\n\n***\n### B\nbeta\n_ _ _\n"
	got := Split(doc)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "alpha", got[0].Body)
	assert.Equal(t, "B", got[1].Title)
	assert.Equal(t, "beta\n_ _ _", got[1].Body, "spaced rule characters are not a rule")
}

func TestSplit_HeaderWithoutSpaceInsideChunk(t *testing.T) {
	got := Split("---\nlead in\n##Tight\nrest")
	require.Len(t, got, 1)
	assert.Equal(t, "Tight", got[0].Title)
	assert.Equal(t, "lead in\nrest", got[0].Body)
}

func TestSplit_EmptyTitleDropped(t *testing.T) {
	got := Split("##   \nbody\n## Real\ntext")
	require.Len(t, got, 1)
	assert.Equal(t, "Real", got[0].Title)
}

func TestSplit_FencedCodeDoesNotSplit(t *testing.T) {
	doc := "## Code\n```md\n## not a header\n---\n```\nafter\n## Next\nx"
	got := Split(doc)
	require.Len(t, got, 2)
	assert.Equal(t, "Code", got[0].Title)
	assert.Contains(t, got[0].Body, "## not a header")
	assert.Contains(t, got[0].Body, "---")
	assert.Contains(t, got[0].Body, "after")
	assert.Equal(t, "Next", got[1].Title)
}

func TestSplit_UnclosedFenceStillSplits(t *testing.T) {
	doc := "## One\nrun this:\n```bash\necho hi\n\n## Two\nsecond body\n\n---\n## Three\nthird"
	got := Split(doc)
	require.Len(t, got, 3)
	assert.Equal(t, "One", got[0].Title)
	assert.Equal(t, "run this:\n```bash\necho hi", got[0].Body)
	assert.Equal(t, "Two", got[1].Title)
	assert.Equal(t, "second body", got[1].Body)
	assert.Equal(t, "Three", got[2].Title)
	assert.Equal(t, "third", got[2].Body)
}

func TestSplit_FencedHeaderIsNotATitle(t *testing.T) {
	assert.Empty(t, Split("intro\n```\n## not a header\n```\ntext"))

	got := Split("---\n```\n##tight in code\n```\n##Real\nbody")
	require.Len(t, got, 1)
	assert.Equal(t, "Real", got[0].Title)
	assert.Equal(t, "```\n##tight in code\n```\nbody", got[0].Body)
}

func TestSplit_CRLFInput(t *testing.T) {
	got := Split("## A\r\none\r\n## B\r\ntwo\r\n")
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Body)
	assert.Equal(t, "two", got[1].Body)
}

func TestSplit_ClassifiesTableSections(t *testing.T) {
	doc := "## " + TableMarkers[0].Label + "\n| a |\n|---|\n| 1 |\n## Summary\ntext\n## " + TableMarkers[1].Label + " (3 found)\n"
	got := Split(doc)
	require.Len(t, got, 3)
	assert.True(t, got[0].IsTable)
	assert.Equal(t, KindVerified, got[0].Kind)
	assert.False(t, got[1].IsTable)
	assert.Equal(t, KindNone, got[1].Kind)
	assert.True(t, got[2].IsTable)
	assert.Equal(t, KindIssues, got[2].Kind)
}

func TestClassify_PrefixMatching(t *testing.T) {
	for _, m := range TableMarkers {
		assert.Equal(t, m.Kind, Classify(m.Label), m.Label)
		assert.Equal(t, m.Kind, Classify(m.Label+" and more"), m.Label)
	}
	assert.Equal(t, KindNone, Classify("Summary"))
	assert.Equal(t, KindNone, Classify("Intro "+TableMarkers[0].Label), "marker must be a prefix")
	assert.Equal(t, KindNone, Classify(strings.ToUpper(TableMarkers[0].Label)), "matching is case-sensitive")
	assert.Equal(t, KindNone, Classify(""))
}

func TestMarkerLabels_Order(t *testing.T) {
	labels := MarkerLabels()
	require.Len(t, labels, len(TableMarkers))
	for i, m := range TableMarkers {
		assert.Equal(t, m.Label, labels[i])
	}
}
