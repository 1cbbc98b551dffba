package prompt

import (
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

const (
	ReviewSchemaName = "code_review"
	FixSchemaName    = "code_fix"
)

func stringList(desc string) jsonschema.Definition {
	return jsonschema.Definition{
		Type:        jsonschema.Array,
		Description: desc,
		Items:       &jsonschema.Definition{Type: jsonschema.String},
	}
}

func label(desc string, labels []string) jsonschema.Definition {
	return jsonschema.Definition{
		Type:        jsonschema.String,
		Description: desc,
		Enum:        labels,
	}
}

// ReviewSchema builds the broad output shape. A fresh value is built per
// call since Definition.MarshalJSON writes to its receiver.
func ReviewSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"bugs":                     stringList("Bugs found in the code."),
			"performanceOptimizations": stringList("Performance improvements."),
			"securityVulnerabilities":  stringList("Security vulnerabilities."),
			"bestPractices":            stringList("Best practice recommendations."),
			"rewrittenCode": {
				Type:        jsonschema.String,
				Description: "The full code with bugs and vulnerabilities fixed, or the original code if nothing needed fixing.",
			},
			"timeComplexity":  label("The estimated time complexity of the code.", review.TimeLabels),
			"spaceComplexity": label("The estimated space complexity of the code.", review.SpaceLabels),
		},
		Required: []string{
			"bugs", "performanceOptimizations", "securityVulnerabilities", "bestPractices",
			"rewrittenCode", "timeComplexity", "spaceComplexity",
		},
		AdditionalProperties: false,
	}
}

// FixSchema builds the narrow output shape.
func FixSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"status": label(
				"correct if no errors were found, fixed if errors were automatically fixed.",
				[]string{string(review.FixStatusCorrect), string(review.FixStatusFixed)},
			),
			"errors": stringList("A list of errors found in the code, if any."),
			"fixedCode": {
				Type:        jsonschema.String,
				Description: "The corrected code, if any errors were found.",
			},
			"timeComplexity":  label("The estimated time complexity of the code.", review.TimeLabels),
			"spaceComplexity": label("The estimated space complexity of the code.", review.SpaceLabels),
		},
		Required:             []string{"status", "errors", "fixedCode", "timeComplexity", "spaceComplexity"},
		AdditionalProperties: false,
	}
}

// Schema returns the schema name and a fresh definition for mode.
func Schema(mode review.Mode) (string, *jsonschema.Definition) {
	if mode == review.ModeFix {
		return FixSchemaName, FixSchema()
	}
	return ReviewSchemaName, ReviewSchema()
}
