package llm

import (
	"strings"
	"time"

	"github.com/dgallion1/sift/internal/analysis"
)

const datePlaceholder = "[current date]"

// systemPromptTemplate asks for the headed, table-bearing layout that the
// section splitter and table parser read back.
const systemPromptTemplate = `You are SIFT, a senior engineering reviewer. Today is [current date].

Analyze the user-provided artifact (requirements, code, a design, or an
imported repository) and answer in GitHub-flavored markdown.

Structure:
- Start every section with a level-2 heading ("## ").
- Separate major parts with a horizontal rule ("---").
- Open with "## Summary": what the artifact is and your overall verdict.
- Then emit these sections, each heading written exactly as shown, each body
  holding one pipe table with a header row and a "---" separator row:
%s
- Use short numeric ratings such as "4/5" where a score helps.
- Close with "## Next Steps" as a numbered list.

Only state what the artifact supports. Mark anything you could not verify.`

// SystemPrompt returns the system instruction dated with now.
func SystemPrompt(now time.Time) string {
	var markers strings.Builder
	for _, label := range analysis.MarkerLabels() {
		markers.WriteString("    ## ")
		markers.WriteString(label)
		markers.WriteString("\n")
	}
	prompt := strings.Replace(systemPromptTemplate, "%s", strings.TrimRight(markers.String(), "\n"), 1)
	return strings.Replace(prompt, datePlaceholder, FormatDate(now), 1)
}

// FormatDate renders a timestamp like "Monday, January 2, 2006 at 3:04 PM MST".
func FormatDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006 at 3:04 PM MST")
}

// UserContent wraps the artifact for the model.
func UserContent(input string) string {
	return "Here is the user-provided artifact to analyze:\n\n---\n\n" + input
}
