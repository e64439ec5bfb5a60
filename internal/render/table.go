package render

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"golang.org/x/net/html"

	"github.com/dgallion1/sift/internal/analysis"
)

// TableState is the filter and sort applied to one table card.
type TableState struct {
	Query string
	Sort  analysis.SortState
}

// Per-table query parameters carry the card index, e.g. q3, sort3, dir3.
func queryKey(i int) string { return "q" + strconv.Itoa(i) }
func sortKey(i int) string  { return "sort" + strconv.Itoa(i) }
func dirKey(i int) string   { return "dir" + strconv.Itoa(i) }

// StateFor reads the state of table card i from query values.
func StateFor(v url.Values, i int) TableState {
	st := TableState{Query: v.Get(queryKey(i))}
	if key := v.Get(sortKey(i)); key != "" {
		st.Sort = analysis.SortState{Key: key, Direction: analysis.ParseDirection(v.Get(dirKey(i)))}
	}
	return st
}

func dirParam(d analysis.Direction) string {
	if d == analysis.Descending {
		return "desc"
	}
	return "asc"
}

// sortHref links to the current page with table i sorted by next.
func sortHref(v url.Values, i int, next analysis.SortState) string {
	out := url.Values{}
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	out.Set(sortKey(i), next.Key)
	out.Set(dirKey(i), dirParam(next.Direction))
	return "?" + out.Encode() + fmt.Sprintf("#section-%d", i)
}

func sortIcon(st analysis.SortState, header string) string {
	if st.Key != header {
		return "↕"
	}
	if st.Direction == analysis.Descending {
		return "↓"
	}
	return "↑"
}

// tableNode renders an interactive table: a filter form, sortable headers
// and the filtered, sorted rows.
func tableNode(t *analysis.Table, i int, v url.Values) *html.Node {
	st := StateFor(v, i)
	rows := analysis.View(t, st.Query, st.Sort)

	form := el("form", attrs("class", "table-filter", "method", "get", "action", fmt.Sprintf("#section-%d", i)))
	// Keep the state of other tables when this filter is submitted.
	keys := make([]string, 0, len(v))
	for k := range v {
		if k != queryKey(i) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, val := range v[k] {
			form.AppendChild(el("input", attrs("type", "hidden", "name", k, "value", val)))
		}
	}
	form.AppendChild(el("input", attrs(
		"type", "text",
		"name", queryKey(i),
		"value", st.Query,
		"placeholder", fmt.Sprintf("Filter %d items...", len(t.Rows)),
	)))
	form.AppendChild(el("button", attrs("type", "submit"), text("Filter")))

	headRow := el("tr", nil)
	for _, h := range t.Headers {
		a := []string{"scope", "col"}
		if st.Sort.Key == h {
			a = append(a, "aria-sort", string(st.Sort.Direction))
		}
		headRow.AppendChild(el("th", attrs(a...),
			el("a", attrs("href", sortHref(v, i, analysis.NextSort(st.Sort, h))),
				text(h),
				el("span", attrs("class", "sort-icon"), text(sortIcon(st.Sort, h))),
			),
		))
	}

	body := el("tbody", nil)
	for _, r := range rows {
		tr := el("tr", nil)
		for _, h := range t.Headers {
			tr.AppendChild(el("td", nil, el("span", attrs("class", "cell"), text(r[h]))))
		}
		body.AppendChild(tr)
	}
	if len(rows) == 0 {
		body.AppendChild(el("tr", nil,
			el("td", attrs("colspan", strconv.Itoa(len(t.Headers)), "class", "no-results"), text("No results found.")),
		))
	}

	return el("div", attrs("class", "interactive-table"),
		form,
		el("div", attrs("class", "table-scroll"),
			el("table", nil, el("thead", nil, headRow), body),
		),
	)
}
