package heuristic

import (
	"regexp"
	"strings"
)

var (
	rxStrictEq    = regexp.MustCompile(`([^=!<>])===([^=])|^===([^=])`)
	rxLooseEqFlip = regexp.MustCompile(`([^=!<>])==([^=])|^==([^=])`)
	rxInnerHTMLAs = regexp.MustCompile(`\.innerHTML\s*=([^=]|$)`)
)

// substitution is one gated rewrite step.
type substitution struct {
	rule  RuleID
	apply func(string) string
}

// substitutions run in this order. Each one only fires when its rule did.
var substitutions = []substitution{
	{RuleLegacyVar, func(s string) string { return rxVarBinding.ReplaceAllString(s, "let ") }},
	{RuleLooseEquality, FlipEquality},
	{RuleEvalBug, func(s string) string { return strings.ReplaceAll(s, "eval(", "Function(") }},
	{RuleBareExcept, func(s string) string { return rxBareExcept.ReplaceAllString(s, "except Exception:") }},
	{RuleEmptyPrintln, func(s string) string { return rxEmptyPrintln.ReplaceAllString(s, "// Removed empty output") }},
	{RuleInnerHTML, func(s string) string { return rxInnerHTMLAs.ReplaceAllString(s, ".textContent =${1}") }},
	{RuleInsecureHTTP, func(s string) string { return strings.ReplaceAll(s, "http://", "https://") }},
}

// FlipEquality is the two-pass equality normalization: every standalone ===
// first becomes ==, then every standalone == becomes ===. Both passes are
// required; a single == to === pass gives different output on inputs that
// mix the two operators next to each other.
func FlipEquality(s string) string {
	s = rxStrictEq.ReplaceAllString(s, "${1}==${2}${3}")
	return rxLooseEqFlip.ReplaceAllString(s, "${1}===${2}${3}")
}

// Rewrite applies the substitutions gated on fired.
func Rewrite(code string, fired map[RuleID]bool) string {
	out := code
	for _, sub := range substitutions {
		if fired[sub.rule] {
			out = sub.apply(out)
		}
	}
	return out
}
