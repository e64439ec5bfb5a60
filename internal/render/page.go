package render

import (
	"fmt"
	"io"
	"net/url"

	"golang.org/x/net/html"

	"github.com/dgallion1/sift/internal/analysis"
	"github.com/dgallion1/sift/internal/pipeline"
)

// ParseFailedNotice precedes the raw body of a table section that did not parse.
const ParseFailedNotice = "Could not parse table data. Displaying raw content:"

// PageData is everything needed to draw one generation.
type PageData struct {
	GenerationID string
	Status       pipeline.Status
	Document     string
	Error        string
	Result       *analysis.Result
	// Query carries per-table filter and sort state.
	Query url.Values
}

const pageStyle = `
body{font-family:system-ui,sans-serif;background:#0f172a;color:#e2e8f0;margin:0}
main{max-width:960px;margin:0 auto;padding:24px}
.card{border:1px solid #334155;border-radius:8px;margin:16px 0;overflow:hidden}
.card-header{background:#1e293b;padding:12px 20px}
.card-header h3{margin:0}
.card-body{padding:16px 20px}
.interactive-table table{width:100%;border-collapse:collapse;font-size:14px}
.interactive-table th,.interactive-table td{padding:8px 12px;text-align:left;vertical-align:top;border-bottom:1px solid #1e293b}
.interactive-table th a{color:inherit;text-decoration:none}
.sort-icon{margin-left:6px;color:#64748b}
.cell{white-space:pre-wrap}
.no-results{text-align:center;color:#64748b;padding:24px}
.notice{color:#fbbf24}
.error{color:#f87171}
.skeleton-line{height:16px;background:#334155;border-radius:4px;margin:12px 0}
.empty{text-align:center;color:#64748b;padding:64px 0}
`

// Page writes the HTML view of a generation.
func Page(w io.Writer, d PageData) error {
	mode := Decide(d.Status, d.Document, d.Result)

	content, err := contentNode(mode, d)
	if err != nil {
		return err
	}

	head := el("head", nil,
		el("meta", attrs("charset", "utf-8")),
		el("title", nil, text("SIFT analysis")),
		el("style", nil, text(pageStyle)),
	)
	if d.Status == pipeline.StatusLoading || d.Status == pipeline.StatusStreaming {
		head.AppendChild(el("meta", attrs("http-equiv", "refresh", "content", "2")))
	}

	page := el("main", attrs("data-generation-id", d.GenerationID, "data-mode", mode.String(), "data-status", string(d.Status)),
		el("header", nil,
			el("h1", nil, text("SIFT analysis")),
			el("span", attrs("class", "status"), text(string(d.Status))),
		),
		content,
	)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(el("html", attrs("lang", "en"), head, el("body", nil, page)))

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func contentNode(mode Mode, d PageData) (*html.Node, error) {
	switch mode {
	case ModeSkeleton:
		sk := el("div", attrs("class", "skeleton", "aria-busy", "true"))
		for _, width := range []string{"33%", "100%", "83%", "25%", "100%"} {
			sk.AppendChild(el("div", attrs("class", "skeleton-line", "style", "width:"+width)))
		}
		return sk, nil

	case ModeEmpty:
		return el("div", attrs("class", "empty"),
			el("h3", nil, text("Analysis Output")),
			el("p", nil, text("Your generated SIFT analysis will appear here.")),
		), nil

	case ModeRaw:
		body, err := markdownNode("markdown", d.Document)
		if err != nil {
			return nil, err
		}
		wrap := el("div", attrs("class", "raw"))
		if d.Error != "" {
			wrap.AppendChild(el("p", attrs("class", "error", "role", "alert"), text(d.Error)))
		}
		wrap.AppendChild(body)
		return wrap, nil
	}

	wrap := el("div", attrs("class", "sections"))
	for i, c := range d.Result.Cards {
		card, err := cardNode(c, i, d.Query)
		if err != nil {
			return nil, err
		}
		wrap.AppendChild(card)
	}
	return wrap, nil
}

func cardNode(c analysis.Card, i int, v url.Values) (*html.Node, error) {
	body := el("div", attrs("class", "card-body"))
	switch {
	case c.Table != nil:
		body.AppendChild(tableNode(c.Table, i, v))
		if c.Notes != "" {
			notes, err := markdownNode("markdown notes", c.Notes)
			if err != nil {
				return nil, err
			}
			body.AppendChild(notes)
		}
	case c.ParseFailed:
		body.AppendChild(el("p", attrs("class", "notice"), text(ParseFailedNotice)))
		raw, err := markdownNode("markdown", c.Body)
		if err != nil {
			return nil, err
		}
		body.AppendChild(raw)
	default:
		md, err := markdownNode("markdown", c.Body)
		if err != nil {
			return nil, err
		}
		body.AppendChild(md)
	}

	return el("section", attrs("class", "card", "id", fmt.Sprintf("section-%d", i), "data-kind", c.Kind.String()),
		el("div", attrs("class", "card-header"), el("h3", nil, text(c.Title))),
		body,
	), nil
}
