package analysis

// Card is a section ready for display. Table is set only for table sections
// whose body parsed; ParseFailed marks a table section shown as raw text.
type Card struct {
	Section
	Table       *Table `json:"table,omitempty"`
	Notes       string `json:"notes,omitempty"`
	ParseFailed bool   `json:"parse_failed,omitempty"`
}

// Result is the derived view of a finished document.
type Result struct {
	Cards  []Card `json:"cards"`
	Tables int    `json:"tables"`
}

// Analyze splits a document and parses every table section once.
func Analyze(document string) *Result {
	res := &Result{Cards: []Card{}}
	for _, s := range Split(document) {
		card := Card{Section: s}
		if s.IsTable {
			card.Table, card.Notes, card.ParseFailed = parseSectionTable(s.Body)
			if card.Table != nil {
				res.Tables++
			}
		}
		res.Cards = append(res.Cards, card)
	}
	return res
}

// parseSectionTable parses the first pipe block of a body, returning the
// prose around it as notes. Bodies whose rows lack leading pipes are parsed
// whole.
func parseSectionTable(body string) (*Table, string, bool) {
	if block, rest := extractTableBlock(body); block != "" {
		if t, ok := ParseTable(block); ok {
			return t, rest, false
		}
	}
	if t, ok := ParseTable(body); ok {
		return t, "", false
	}
	return nil, "", true
}

// Table returns the card at index when it holds a parsed table.
func (r *Result) Table(index int) (*Table, bool) {
	if r == nil || index < 0 || index >= len(r.Cards) || r.Cards[index].Table == nil {
		return nil, false
	}
	return r.Cards[index].Table, true
}
