package prompt

import (
	"encoding/json"
	"strings"

	"github.com/bryanwahyu/coderefine/internal/domain/ai"
	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

const (
	placeholderLanguage = "{{{language}}}"
	placeholderCode     = "{{{code}}}"
)

// FixTemplate is the narrow "fix and estimate complexity" instruction.
const FixTemplate = `You are a highly skilled software engineer specializing in code analysis and optimization. Given the following code, identify any errors, automatically fix them, estimate the time complexity, and estimate the space complexity. Return the information in JSON format.

Language: {{{language}}}
Code:
{{{code}}}

Ensure that the "status" field is "correct" if no errors are found, and "fixed" if errors were fixed.
If no errors are found, the "errors" and "fixedCode" fields should be empty.
`

// ReviewTemplate is the broad multi-category review instruction.
const ReviewTemplate = `You are a senior software engineer performing a thorough code review. Analyze the following code and report:
- bugs: defects that make the code incorrect or fragile
- performanceOptimizations: changes that make it faster or use less memory
- securityVulnerabilities: injection, unsafe evaluation, leaked secrets, insecure transport
- bestPractices: readability, structure, naming, documentation
Then return the whole program rewritten with every bug and security issue fixed in "rewrittenCode" (return the code unchanged when there is nothing to fix), and estimate the time and space complexity.

Language: {{{language}}}
Code:
{{{code}}}

Each finding is one short sentence. Use empty arrays for categories with no findings.
`

// Render substitutes the placeholders in one pass. The code goes in verbatim,
// so placeholder-looking text inside it is left alone.
func Render(template, language, code string) string {
	return strings.NewReplacer(
		placeholderLanguage, language,
		placeholderCode, code,
	).Replace(template)
}

// GetSystemPrompt carries the JSON-only directive and the schema, for
// backends that cannot enforce a schema natively.
func GetSystemPrompt(mode review.Mode) string {
	name, schema := Schema(mode)
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		b = []byte("{}")
	}
	return `You must produce one valid JSON object only (no markdown, no commentary, no code fences) that follows the JSON schema "` + name + `" below.

Requirements:
- Output must be a single JSON object with exactly the listed fields.
- Complexity values must be one of the enumerated labels.

Schema:
` + string(b)
}

// Build renders the prompt for mode.
func Build(mode review.Mode, language, code string) ai.Prompt {
	tmpl := ReviewTemplate
	if mode == review.ModeFix {
		tmpl = FixTemplate
	}
	name, schema := Schema(mode)
	return ai.Prompt{
		System:     GetSystemPrompt(mode),
		User:       Render(tmpl, language, code),
		SchemaName: name,
		Schema:     schema,
	}
}
