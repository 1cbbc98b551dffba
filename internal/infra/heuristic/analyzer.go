package heuristic

import (
	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

// Report is the analyzer output together with the rules that fired.
type Report struct {
	Result review.Result
	Fired  []RuleID
}

// Analyzer runs the rule set offline. It holds no state and is safe for
// concurrent use.
type Analyzer struct {
	rules []Rule
}

// NewAnalyzer uses Rules when rules is nil.
func NewAnalyzer(rules []Rule) *Analyzer {
	if rules == nil {
		rules = Rules
	}
	return &Analyzer{rules: rules}
}

// Analyze implements review.Analyzer.
func (a *Analyzer) Analyze(code string, lang review.Language) review.Result {
	return a.Inspect(code, lang).Result
}

// Inspect runs every rule once, then rewrites when a bug or security
// finding fired. Performance and best-practice findings alone never trigger
// a rewrite.
func (a *Analyzer) Inspect(code string, lang review.Language) Report {
	res := review.Result{
		Bugs:                     []string{},
		PerformanceOptimizations: []string{},
		SecurityVulnerabilities:  []string{},
		BestPractices:            []string{},
		Source:                   review.SourceHeuristic,
	}
	fired := make(map[RuleID]bool)
	var order []RuleID

	for _, r := range a.rules {
		msg, ok := r.Apply(code, lang)
		if !ok {
			continue
		}
		fired[r.ID] = true
		order = append(order, r.ID)
		switch r.Category {
		case review.CategoryBug:
			res.Bugs = append(res.Bugs, msg)
		case review.CategoryPerformance:
			res.PerformanceOptimizations = append(res.PerformanceOptimizations, msg)
		case review.CategorySecurity:
			res.SecurityVulnerabilities = append(res.SecurityVulnerabilities, msg)
		case review.CategoryBestPractice:
			res.BestPractices = append(res.BestPractices, msg)
		}
	}

	res.RewrittenCode = code
	if len(res.Bugs) > 0 || len(res.SecurityVulnerabilities) > 0 {
		res.RewrittenCode = Rewrite(code, fired)
	}

	c := EstimateComplexity(code)
	res.TimeComplexity = c.Time
	res.SpaceComplexity = c.Space

	return Report{Result: res, Fired: order}
}
