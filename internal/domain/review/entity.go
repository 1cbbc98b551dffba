package review

import "strings"

// Language of the submitted source, always lowercase.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageJava       Language = "java"
	LanguageCPP        Language = "c++"
	LanguageHTML       Language = "html"
	LanguageCSS        Language = "css"
)

// Languages is the enumerated set offered to callers, in display order.
var Languages = []Language{
	LanguagePython,
	LanguageJavaScript,
	LanguageTypeScript,
	LanguageJava,
	LanguageCPP,
	LanguageHTML,
	LanguageCSS,
}

var languageAliases = map[string]Language{
	"js":  LanguageJavaScript,
	"ts":  LanguageTypeScript,
	"py":  LanguagePython,
	"cpp": LanguageCPP,
}

// ParseLanguage normalizes a caller supplied language name. Unknown names are
// kept (lowercased) so analysis can still run language-agnostic rules.
func ParseLanguage(s string) Language {
	v := strings.ToLower(strings.TrimSpace(s))
	if l, ok := languageAliases[v]; ok {
		return l
	}
	return Language(v)
}

// Known reports whether l is one of Languages.
func (l Language) Known() bool {
	for _, k := range Languages {
		if k == l {
			return true
		}
	}
	return false
}

// JSFamily is true for javascript and typescript.
func (l Language) JSFamily() bool {
	return l == LanguageJavaScript || l == LanguageTypeScript
}

// Category of a finding. The order of Categories is the output order.
type Category string

const (
	CategoryBug          Category = "bug"
	CategoryPerformance  Category = "performance"
	CategorySecurity     Category = "security"
	CategoryBestPractice Category = "best-practice"
)

var Categories = []Category{CategoryBug, CategoryPerformance, CategorySecurity, CategoryBestPractice}

// Mode selects the prompt template and output schema.
type Mode string

const (
	// ModeReview is the canonical multi-category review.
	ModeReview Mode = "review"
	// ModeFix is the narrow fix-and-estimate variant.
	ModeFix Mode = "fix"
)

// ParseMode returns ModeReview for an empty string.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeReview:
		return ModeReview, nil
	case ModeFix:
		return ModeFix, nil
	default:
		return "", &ValidationError{Field: "mode", Reason: "must be one of review, fix"}
	}
}

// Source tells which path produced a Result.
type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
)

// Complexity labels. Coarse static estimates, not measurements.
const (
	ComplexityConstant  = "O(1)"
	ComplexityLinear    = "O(n)"
	ComplexityQuadratic = "O(n²)"
	ComplexityCubic     = "O(n³)"
)

// Request is one submission.
type Request struct {
	Language   string
	Code       string
	Credential string
	Mode       Mode
}

// Result is the canonical analysis shape returned to callers.
type Result struct {
	Bugs                     []string `json:"bugs"`
	PerformanceOptimizations []string `json:"performanceOptimizations"`
	SecurityVulnerabilities  []string `json:"securityVulnerabilities"`
	BestPractices            []string `json:"bestPractices"`
	RewrittenCode            string   `json:"rewrittenCode"`
	TimeComplexity           string   `json:"timeComplexity"`
	SpaceComplexity          string   `json:"spaceComplexity"`

	Source Source `json:"source,omitempty"`
	Notice string `json:"notice,omitempty"`
}

// Findings returns the findings of one category.
func (r Result) Findings(c Category) []string {
	switch c {
	case CategoryBug:
		return r.Bugs
	case CategoryPerformance:
		return r.PerformanceOptimizations
	case CategorySecurity:
		return r.SecurityVulnerabilities
	case CategoryBestPractice:
		return r.BestPractices
	}
	return nil
}

// FixStatus of the narrow shape.
type FixStatus string

const (
	FixStatusCorrect FixStatus = "correct"
	FixStatusFixed   FixStatus = "fixed"
)

// FixReport is the narrow "fix and estimate complexity" shape.
type FixReport struct {
	Status          FixStatus `json:"status"`
	Errors          []string  `json:"errors"`
	FixedCode       string    `json:"fixedCode"`
	TimeComplexity  string    `json:"timeComplexity"`
	SpaceComplexity string    `json:"spaceComplexity"`
}

// Normalize projects the narrow shape onto Result. Errors become bugs, the
// other categories stay empty. A correct report (or an empty fixedCode)
// keeps the submitted code as the rewrite.
func (f FixReport) Normalize(code string) Result {
	rewritten := f.FixedCode
	if f.Status == FixStatusCorrect || strings.TrimSpace(rewritten) == "" {
		rewritten = code
	}
	return Result{
		Bugs:                     nonNil(f.Errors),
		PerformanceOptimizations: []string{},
		SecurityVulnerabilities:  []string{},
		BestPractices:            []string{},
		RewrittenCode:            rewritten,
		TimeComplexity:           f.TimeComplexity,
		SpaceComplexity:          f.SpaceComplexity,
	}
}

// Fix projects a Result back onto the narrow shape for legacy callers.
// Status is correct only when there are no errors and no rewrite. When errors
// were found but nothing could be substituted, fixedCode is the input code.
func (r Result) Fix(code string) FixReport {
	errs := make([]string, 0, len(r.Bugs)+len(r.SecurityVulnerabilities))
	errs = append(errs, r.Bugs...)
	errs = append(errs, r.SecurityVulnerabilities...)

	out := FixReport{
		Status:          FixStatusCorrect,
		Errors:          errs,
		TimeComplexity:  r.TimeComplexity,
		SpaceComplexity: r.SpaceComplexity,
	}
	if len(errs) == 0 && r.RewrittenCode == code {
		return out
	}
	out.Status = FixStatusFixed
	out.FixedCode = r.RewrittenCode
	if strings.TrimSpace(out.FixedCode) == "" {
		out.FixedCode = code
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
