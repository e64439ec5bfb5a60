package analysis

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction is a column sort direction.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// SortState is the active column sort. The zero value means unsorted.
type SortState struct {
	Key       string    `json:"key,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// IsZero reports whether no sort is active.
func (s SortState) IsZero() bool {
	return s.Key == ""
}

// NextSort returns the state after a sort request on key: an ascending sort
// on the same key flips to descending, anything else starts ascending.
func NextSort(current SortState, key string) SortState {
	if current.Key == key && current.Direction == Ascending {
		return SortState{Key: key, Direction: Descending}
	}
	return SortState{Key: key, Direction: Ascending}
}

// ParseDirection maps a query value to a Direction, defaulting to ascending.
func ParseDirection(s string) Direction {
	switch strings.ToLower(s) {
	case "desc", "descending":
		return Descending
	}
	return Ascending
}

// Filter returns the rows in which any cell contains query, ignoring case.
// An empty query keeps every row. The table is never modified.
func Filter(t *Table, query string) []Row {
	rows := make([]Row, 0, len(t.Rows))
	if query == "" {
		return append(rows, t.Rows...)
	}
	q := strings.ToLower(query)
	for _, r := range t.Rows {
		for _, cell := range r {
			if strings.Contains(strings.ToLower(cell), q) {
				rows = append(rows, r)
				break
			}
		}
	}
	return rows
}

var leadingIntRe = regexp.MustCompile(`^\d+`)

// SortRows returns a stably sorted copy of rows. Cells that both start with
// an integer ("4/5", "10") compare by that integer; everything else uses
// locale collation with numeric ordering.
func SortRows(rows []Row, state SortState) []Row {
	out := append([]Row(nil), rows...)
	if state.IsZero() {
		return out
	}
	sign := 1
	if state.Direction == Descending {
		sign = -1
	}
	col := collate.New(language.Und, collate.Numeric)
	sort.SliceStable(out, func(i, j int) bool {
		return sign*compareCells(col, out[i][state.Key], out[j][state.Key]) < 0
	})
	return out
}

func compareCells(col *collate.Collator, a, b string) int {
	am, bm := leadingIntRe.FindString(a), leadingIntRe.FindString(b)
	if am != "" && bm != "" {
		an, _ := strconv.ParseFloat(am, 64)
		bn, _ := strconv.ParseFloat(bm, 64)
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	return col.CompareString(a, b)
}

// View applies Filter and then SortRows.
func View(t *Table, query string, state SortState) []Row {
	return SortRows(Filter(t, query), state)
}
