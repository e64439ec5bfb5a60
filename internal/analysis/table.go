package analysis

import (
	"regexp"
	"strings"
)

// Row maps a header name to its cell text.
type Row map[string]string

// Table is a parsed pipe table. A Table always has at least one header and
// one row; ParseTable reports "no table" instead of building an empty one.
type Table struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

var separatorRe = regexp.MustCompile(`\|.*-.*\|`)

// ParseTable converts a GFM pipe table into a Table. Line 0 is the header
// row and line 1 must be a separator row containing a hyphen.
//
// Duplicate headers are kept as-is; a row then holds the value of the last
// column sharing that name.
func ParseTable(markdown string) (*Table, bool) {
	var lines []string
	for _, line := range strings.Split(markdown, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 || !separatorRe.MatchString(lines[1]) {
		return nil, false
	}

	var headers []string
	for _, cell := range strings.Split(lines[0], "|") {
		if cell = strings.TrimSpace(cell); cell != "" {
			headers = append(headers, cell)
		}
	}
	if len(headers) == 0 {
		return nil, false
	}

	var rows []Row
	for _, line := range lines[2:] {
		cells := rowCells(line)
		row := make(Row, len(headers))
		blank := true
		for i, h := range headers {
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			row[h] = v
			if v != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, false
	}
	return &Table{Headers: headers, Rows: rows}, true
}

// rowCells splits a data row, dropping only the empty framing cells produced
// by leading and trailing pipes. Empty interior cells are preserved.
func rowCells(line string) []string {
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	if len(cells) > 0 && cells[0] == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// Markdown renders the table back into pipe-table form. Cells that contain a
// pipe do not survive a round trip through ParseTable.
func (t *Table) Markdown() string {
	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("| ")
		sb.WriteString(strings.Join(cells, " | "))
		sb.WriteString(" |\n")
	}
	writeRow(t.Headers)
	sep := make([]string, len(t.Headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, r := range t.Rows {
		cells := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			cells[i] = r[h]
		}
		writeRow(cells)
	}
	return sb.String()
}

// extractTableBlock returns the first run of consecutive pipe lines in body
// together with the text around it.
func extractTableBlock(body string) (block, rest string) {
	lines := strings.Split(body, "\n")
	start, end := -1, -1
	for i, line := range lines {
		isPipe := strings.HasPrefix(strings.TrimSpace(line), "|")
		if isPipe && start < 0 {
			start = i
		}
		if start >= 0 && !isPipe {
			end = i
			break
		}
	}
	if start < 0 {
		return "", body
	}
	if end < 0 {
		end = len(lines)
	}
	block = strings.Join(lines[start:end], "\n")
	other := append(append([]string{}, lines[:start]...), lines[end:]...)
	return block, strings.TrimSpace(strings.Join(other, "\n"))
}
