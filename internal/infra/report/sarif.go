package report

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

const (
	toolName = "CodeRefine"
	toolURI  = "https://github.com/bryanwahyu/coderefine"
)

type category struct {
	review.Category
	ruleID      string
	description string
	level       string
}

var categories = []category{
	{review.CategoryBug, "coderefine/bug", "Defects that make the code incorrect or fragile.", "error"},
	{review.CategoryPerformance, "coderefine/performance", "Changes that make the code faster or leaner.", "warning"},
	{review.CategorySecurity, "coderefine/security", "Injection, unsafe evaluation, leaked secrets or insecure transport.", "error"},
	{review.CategoryBestPractice, "coderefine/best-practice", "Readability, structure and documentation.", "note"},
}

// SARIF builds a SARIF 2.1.0 log with one rule per finding category and
// one result per finding, all located at path.
func SARIF(path string, res review.Result) (*sarif.Report, error) {
	rep, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	for _, c := range categories {
		findings := res.Findings(c.Category)
		if len(findings) == 0 {
			continue
		}
		rule := run.AddRule(c.ruleID).
			WithDescription(c.description).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: c.level})

		for _, msg := range findings {
			location := sarif.NewLocation().WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(path)),
			)
			result := sarif.NewRuleResult(rule.ID).
				WithMessage(sarif.NewTextMessage(msg)).
				WithLevel(c.level).
				WithLocations([]*sarif.Location{location})
			run.AddResult(result)
		}
	}
	rep.AddRun(run)
	return rep, nil
}

// WriteSARIF writes the SARIF log for res to w.
func WriteSARIF(w io.Writer, path string, res review.Result) error {
	rep, err := SARIF(path, res)
	if err != nil {
		return err
	}
	return rep.PrettyWrite(w)
}
