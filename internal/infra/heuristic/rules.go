package heuristic

import (
	"regexp"
	"strings"

	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

// RuleID identifies a rule. The rewrite step is gated on these.
type RuleID string

const (
	RuleLegacyVar         RuleID = "bug/legacy-var"
	RuleLooseEquality     RuleID = "bug/loose-equality"
	RuleEvalBug           RuleID = "bug/eval"
	RuleBareExcept        RuleID = "bug/bare-except"
	RuleEmptyPrintln      RuleID = "bug/empty-println"
	RuleUncaughtThrow     RuleID = "bug/uncaught-throw"
	RuleMarkerComment     RuleID = "bug/marker-comment"
	RuleNestedLoops       RuleID = "perf/nested-loops"
	RuleChainedIteration  RuleID = "perf/chained-iteration"
	RulePythonConcat      RuleID = "perf/python-concat"
	RuleArrayConstructor  RuleID = "perf/array-constructor"
	RuleConcatInLoop      RuleID = "perf/concat-in-loop"
	RuleInnerHTML         RuleID = "sec/inner-html"
	RuleEvalSecurity      RuleID = "sec/eval"
	RuleHardcodedPassword RuleID = "sec/hardcoded-password"
	RuleSQL               RuleID = "sec/sql"
	RuleInsecureHTTP      RuleID = "sec/insecure-http"
	RuleBlankLines        RuleID = "style/blank-lines"
	RuleNoComments        RuleID = "style/no-comments"
	RuleConsoleLog        RuleID = "style/console-log"
	RuleTooManyDecls      RuleID = "style/too-many-declarations"
	RuleMissingTypes      RuleID = "style/missing-types"
)

// Rule is a single textual check over raw source. It is approximate by
// nature: no parsing, false positives and negatives are expected.
type Rule struct {
	ID        RuleID
	Category  review.Category
	Languages []review.Language // empty means any language
	Message   string
	Match     func(code string, lang review.Language) bool
}

// AppliesTo reports whether the rule's language gate admits lang.
func (r Rule) AppliesTo(lang review.Language) bool {
	if len(r.Languages) == 0 {
		return true
	}
	for _, l := range r.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Apply returns the rule's finding for code, if any.
func (r Rule) Apply(code string, lang review.Language) (string, bool) {
	if !r.AppliesTo(lang) || !r.Match(code, lang) {
		return "", false
	}
	return r.Message, true
}

// languagesWhere filters the enumerated languages by keep.
func languagesWhere(keep func(review.Language) bool) []review.Language {
	var out []review.Language
	for _, l := range review.Languages {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

var (
	jsFamily = languagesWhere(review.Language.JSFamily)

	rxVarBinding    = regexp.MustCompile(`\bvar\s+`)
	rxLooseEquality = regexp.MustCompile(`(^|[^=!<>])==([^=]|$)`)
	rxBareExcept    = regexp.MustCompile(`\bexcept\s*:`)
	rxEmptyPrintln  = regexp.MustCompile(`System\.out\.println\s*\(\s*\)`)
	rxThrow         = regexp.MustCompile(`\bthrow\b`)
	rxTry           = regexp.MustCompile(`\btry\b`)
	rxMarker        = regexp.MustCompile(`\b(TODO|FIXME|XXX|BUG|HACK)\b`)
	rxFor           = regexp.MustCompile(`\bfor\b`)
	rxWhile         = regexp.MustCompile(`\bwhile\b`)
	rxConcatInLoop  = regexp.MustCompile(`\+\s*=.*\+\s*.*\bfor\b|\bfor\b[\s\S]*\+\s*=`)
	rxInnerHTML     = regexp.MustCompile(`\.innerHTML\s*=([^=]|$)`)
	rxPassword      = regexp.MustCompile(`(?i)\b\w*(password|passwd|pwd)\w*\s*=\s*["'][^"']*["']`)
	rxSQL           = regexp.MustCompile(`(?i)sql`)
	rxBlankLines    = regexp.MustCompile(`\n(?:[ \t]*\n){3,}`)
	rxDeclarations  = regexp.MustCompile(`\b(function|const|let|var|def|public|private)\b`)
)

// Rules is the ordered rule set. Within a category, findings come out in
// this order.
var Rules = []Rule{
	// bugs
	{
		ID:        RuleLegacyVar,
		Category:  review.CategoryBug,
		Languages: jsFamily,
		Message:   "Using `var` causes hoisting issues - should use `let` or `const`",
		Match:     func(code string, _ review.Language) bool { return rxVarBinding.MatchString(code) },
	},
	{
		ID:        RuleLooseEquality,
		Category:  review.CategoryBug,
		Languages: jsFamily,
		Message:   "Using loose equality (==) causes type coercion bugs - use strict equality (===) instead",
		Match:     func(code string, _ review.Language) bool { return rxLooseEquality.MatchString(code) },
	},
	{
		ID:       RuleEvalBug,
		Category: review.CategoryBug,
		Message:  "eval() is a critical bug - it's a security risk and performance issue",
		Match:    func(code string, _ review.Language) bool { return strings.Contains(code, "eval(") },
	},
	{
		ID:        RuleBareExcept,
		Category:  review.CategoryBug,
		Languages: []review.Language{review.LanguagePython},
		Message:   "Bare except clause is a bug - specify the exception type",
		Match:     func(code string, _ review.Language) bool { return rxBareExcept.MatchString(code) },
	},
	{
		ID:        RuleEmptyPrintln,
		Category:  review.CategoryBug,
		Languages: []review.Language{review.LanguageJava},
		Message:   "Empty println() statement detected - remove unnecessary output calls",
		Match:     func(code string, _ review.Language) bool { return rxEmptyPrintln.MatchString(code) },
	},
	{
		ID:        RuleUncaughtThrow,
		Category:  review.CategoryBug,
		Languages: []review.Language{review.LanguageJava},
		Message:   "Exception thrown but no catch block to handle it properly",
		Match: func(code string, _ review.Language) bool {
			return rxThrow.MatchString(code) && !rxTry.MatchString(code)
		},
	},
	{
		ID:       RuleMarkerComment,
		Category: review.CategoryBug,
		Message:  "Found TODO/FIXME comments indicating incomplete or problematic code",
		Match:    func(code string, _ review.Language) bool { return rxMarker.MatchString(code) },
	},

	// performance
	{
		ID:       RuleNestedLoops,
		Category: review.CategoryPerformance,
		Message:  "Nested loops detected - consider optimizing or using more efficient algorithms",
		Match: func(code string, _ review.Language) bool {
			return len(rxFor.FindAllStringIndex(code, 3)) >= 3
		},
	},
	{
		ID:       RuleChainedIteration,
		Category: review.CategoryPerformance,
		Message:  "Multiple array iterations - consider combining operations into a single pass",
		Match: func(code string, _ review.Language) bool {
			return strings.Contains(code, ".map(") && strings.Contains(code, ".filter(") && strings.Contains(code, ".reduce(")
		},
	},
	{
		ID:        RulePythonConcat,
		Category:  review.CategoryPerformance,
		Languages: []review.Language{review.LanguagePython},
		Message:   "Consider using f-strings instead of string concatenation for better performance",
		Match:     func(code string, _ review.Language) bool { return strings.Count(code, "+ ") > 5 },
	},
	{
		ID:       RuleArrayConstructor,
		Category: review.CategoryPerformance,
		Message:  "Use Array.from() or spread operator instead of new Array()",
		Match: func(code string, _ review.Language) bool {
			return strings.Contains(code, "new Array(") && !strings.Contains(code, "Array.from")
		},
	},
	{
		ID:       RuleConcatInLoop,
		Category: review.CategoryPerformance,
		Message:  "String concatenation in loops is inefficient - use StringBuilder or array join",
		Match:    func(code string, _ review.Language) bool { return rxConcatInLoop.MatchString(code) },
	},

	// security
	{
		ID:       RuleInnerHTML,
		Category: review.CategorySecurity,
		Message:  "innerHTML can cause XSS vulnerabilities - use textContent or DOM methods instead",
		Match:    func(code string, _ review.Language) bool { return rxInnerHTML.MatchString(code) },
	},
	{
		ID:       RuleEvalSecurity,
		Category: review.CategorySecurity,
		Message:  "eval() is a critical security risk - avoid at all costs",
		Match:    func(code string, _ review.Language) bool { return strings.Contains(code, "eval(") },
	},
	{
		ID:       RuleHardcodedPassword,
		Category: review.CategorySecurity,
		Message:  "Hardcoded credentials detected - use environment variables instead",
		Match:    func(code string, _ review.Language) bool { return rxPassword.MatchString(code) },
	},
	{
		ID:       RuleSQL,
		Category: review.CategorySecurity,
		Message:  "Be cautious with SQL queries - use parameterized queries to prevent SQL injection",
		Match:    func(code string, _ review.Language) bool { return rxSQL.MatchString(code) },
	},
	{
		ID:       RuleInsecureHTTP,
		Category: review.CategorySecurity,
		Message:  "Use HTTPS instead of HTTP for secure communication",
		Match: func(code string, _ review.Language) bool {
			return strings.Contains(code, "http://") && !strings.Contains(code, "https://")
		},
	},

	// best practices
	{
		ID:       RuleBlankLines,
		Category: review.CategoryBestPractice,
		Message:  "Reduce excessive blank lines for better code readability",
		Match:    func(code string, _ review.Language) bool { return rxBlankLines.MatchString(code) },
	},
	{
		ID:       RuleNoComments,
		Category: review.CategoryBestPractice,
		Message:  "Add comments to explain complex logic and improve maintainability",
		Match: func(code string, lang review.Language) bool {
			return commentCount(code, lang) == 0 && strings.Count(code, "\n")+1 > 10
		},
	},
	{
		ID:        RuleConsoleLog,
		Category:  review.CategoryBestPractice,
		Languages: []review.Language{review.LanguageTypeScript},
		Message:   "Remove or replace console.log with proper logging framework",
		Match:     func(code string, _ review.Language) bool { return strings.Contains(code, "console.log(") },
	},
	{
		ID:       RuleTooManyDecls,
		Category: review.CategoryBestPractice,
		Message:  "Consider breaking this code into smaller functions for better modularity",
		Match: func(code string, _ review.Language) bool {
			return len(rxDeclarations.FindAllStringIndex(code, 21)) > 20
		},
	},
	{
		ID:        RuleMissingTypes,
		Category:  review.CategoryBestPractice,
		Languages: []review.Language{review.LanguageTypeScript},
		Message:   "Add type annotations to improve code clarity and catch errors early",
		Match: func(code string, _ review.Language) bool {
			return !strings.Contains(code, ": ") && !strings.Contains(code, "any")
		},
	},
}

// commentCount counts comment openers. Python and HTML use their own markers,
// everything else the C-style ones.
func commentCount(code string, lang review.Language) int {
	switch lang {
	case review.LanguagePython:
		return strings.Count(code, "#")
	case review.LanguageHTML:
		return strings.Count(code, "<!--")
	default:
		return strings.Count(code, "//") + strings.Count(code, "/*")
	}
}

// RuleByID looks a rule up in Rules.
func RuleByID(id RuleID) (Rule, bool) {
	for _, r := range Rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}
