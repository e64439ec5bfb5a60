package analysis

import "strings"

// MarkerKind tags a section whose body is expected to hold a pipe table.
type MarkerKind int

const (
	KindNone MarkerKind = iota
	KindVerified
	KindIssues
	KindOptimizations
	KindResources
)

func (k MarkerKind) String() string {
	switch k {
	case KindVerified:
		return "verified"
	case KindIssues:
		return "issues"
	case KindOptimizations:
		return "optimizations"
	case KindResources:
		return "resources"
	}
	return "none"
}

// MarshalText lets the kind appear by name in JSON output.
func (k MarkerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Marker is a heading prefix that classifies a section as tabular.
type Marker struct {
	Kind  MarkerKind
	Label string
}

// TableMarkers is checked in order; the first label that prefixes a section
// title wins. The system prompt asks the model for these exact headings.
var TableMarkers = []Marker{
	{Kind: KindVerified, Label: "✅ Verified Facts"},
	{Kind: KindIssues, Label: "⚠️ Issues & Risks"},
	{Kind: KindOptimizations, Label: "⚡ Optimization Opportunities"},
	{Kind: KindResources, Label: "🧰 Resources & Tools"},
}

// Classify returns the marker kind for a section title. Matching is a
// case-sensitive prefix test.
func Classify(title string) MarkerKind {
	for _, m := range TableMarkers {
		if strings.HasPrefix(title, m.Label) {
			return m.Kind
		}
	}
	return KindNone
}

// MarkerLabels returns the marker labels in classification order.
func MarkerLabels() []string {
	labels := make([]string, len(TableMarkers))
	for i, m := range TableMarkers {
		labels[i] = m.Label
	}
	return labels
}
