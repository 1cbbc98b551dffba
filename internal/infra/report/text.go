package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

var headings = map[review.Category]string{
	review.CategoryBug:          "Bugs",
	review.CategoryPerformance:  "Performance optimizations",
	review.CategorySecurity:     "Security vulnerabilities",
	review.CategoryBestPractice: "Best practices",
}

// WriteText renders res for a terminal in the fixed category order.
func WriteText(w io.Writer, res review.Result) error {
	var b strings.Builder
	if res.Notice != "" {
		fmt.Fprintf(&b, "note: %s\n\n", res.Notice)
	}
	for _, c := range review.Categories {
		findings := res.Findings(c)
		fmt.Fprintf(&b, "%s (%d)\n", headings[c], len(findings))
		for _, f := range findings {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}
	fmt.Fprintf(&b, "\nTime complexity:  %s\nSpace complexity: %s\n", res.TimeComplexity, res.SpaceComplexity)
	if res.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", res.Source)
	}
	fmt.Fprintf(&b, "\nRewritten code:\n%s\n", res.RewrittenCode)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes res as indented JSON.
func WriteJSON(w io.Writer, res any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
