// Package analysis turns a generated markdown document into titled sections
// and interactive tables.
package analysis

import (
	"regexp"
	"strings"
)

// Section is a titled fragment of a generated document.
type Section struct {
	Title   string     `json:"title"`
	Body    string     `json:"body"`
	IsTable bool       `json:"is_table"`
	Kind    MarkerKind `json:"kind"`
}

var (
	ruleRe        = regexp.MustCompile(`^\s*(?:[*\-_]){3,}\s*$`)
	sectionHeadRe = regexp.MustCompile(`^#{2,}\s`)
	titleLineRe   = regexp.MustCompile(`^#{2,}\s*`)
)

// Split partitions a document into sections. A chunk ends at a horizontal
// rule (which is dropped) or right before a level-2+ header. Chunks without a
// header line, or whose header text is empty, are discarded. Lines inside a
// closed fenced code block are never structure.
func Split(document string) []Section {
	var sections []Section
	for _, chunk := range splitChunks(document) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		title, body, ok := titleAndBody(chunk)
		if !ok || title == "" {
			continue
		}
		kind := Classify(title)
		sections = append(sections, Section{
			Title:   title,
			Body:    body,
			IsTable: kind != KindNone,
			Kind:    kind,
		})
	}
	return sections
}

func splitChunks(document string) []string {
	lines := strings.Split(strings.ReplaceAll(document, "\r\n", "\n"), "\n")
	fenced := fencedLines(lines)

	var chunks []string
	var current []string

	flush := func() {
		chunks = append(chunks, strings.Join(current, "\n"))
		current = current[:0]
	}

	for i, line := range lines {
		switch {
		case fenced[i]:
			current = append(current, line)
		case ruleRe.MatchString(line):
			flush()
		case sectionHeadRe.MatchString(line):
			flush()
			current = append(current, line)
		default:
			current = append(current, line)
		}
	}
	flush()
	return chunks
}

// fencedLines marks the lines of every closed fenced block, fence lines
// included. An opener with no closing fence later on is plain text.
func fencedLines(lines []string) []bool {
	fenced := make([]bool, len(lines))
	unclosed := make(map[string]bool)
	for i := 0; i < len(lines); i++ {
		f := fenceMarker(lines[i])
		if f == "" || unclosed[f] {
			continue
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.HasPrefix(strings.TrimSpace(lines[j]), f) {
				end = j
				break
			}
		}
		if end < 0 {
			unclosed[f] = true
			continue
		}
		for k := i; k <= end; k++ {
			fenced[k] = true
		}
		i = end
	}
	return fenced
}

func fenceMarker(line string) string {
	t := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(t, "```"):
		return "```"
	case strings.HasPrefix(t, "~~~"):
		return "~~~"
	}
	return ""
}

// titleAndBody pulls the first header line outside a code fence out of a
// chunk.
func titleAndBody(chunk string) (title, body string, ok bool) {
	lines := strings.Split(chunk, "\n")
	fenced := fencedLines(lines)
	for i, line := range lines {
		if fenced[i] || !titleLineRe.MatchString(line) {
			continue
		}
		title = strings.TrimSpace(titleLineRe.ReplaceAllString(line, ""))
		rest := make([]string, 0, len(lines)-1)
		rest = append(rest, lines[:i]...)
		rest = append(rest, lines[i+1:]...)
		return title, strings.TrimSpace(strings.Join(rest, "\n")), true
	}
	return "", "", false
}
