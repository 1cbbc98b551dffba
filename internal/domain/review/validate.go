package review

import (
	"fmt"
	"strings"
)

var (
	// TimeLabels is the closed set of time complexity labels.
	TimeLabels = []string{ComplexityConstant, ComplexityLinear, ComplexityQuadratic, ComplexityCubic}
	// SpaceLabels is the closed set of space complexity labels.
	SpaceLabels = []string{ComplexityConstant, ComplexityLinear, ComplexityQuadratic}
)

var complexityReplacer = strings.NewReplacer(
	"^2", "²",
	"^3", "³",
	"**2", "²",
	"**3", "³",
	"n2", "n²",
	"n3", "n³",
)

// NormalizeComplexity maps ASCII spellings such as "O(n^2)" onto the label set.
func NormalizeComplexity(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	s = strings.ReplaceAll(s, "N", "n")
	return complexityReplacer.Replace(s)
}

func oneOf(field, v string, allowed []string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not one of %s", v, strings.Join(allowed, ", "))}
}

// Validate checks the enumerated fields of a model answer, normalizing the
// complexity labels in place first.
func (r *Result) Validate() error {
	r.TimeComplexity = NormalizeComplexity(r.TimeComplexity)
	r.SpaceComplexity = NormalizeComplexity(r.SpaceComplexity)
	if err := oneOf("timeComplexity", r.TimeComplexity, TimeLabels); err != nil {
		return err
	}
	return oneOf("spaceComplexity", r.SpaceComplexity, SpaceLabels)
}

// Validate checks the status enum and the complexity labels.
func (f *FixReport) Validate() error {
	if err := oneOf("status", string(f.Status), []string{string(FixStatusCorrect), string(FixStatusFixed)}); err != nil {
		return err
	}
	f.TimeComplexity = NormalizeComplexity(f.TimeComplexity)
	f.SpaceComplexity = NormalizeComplexity(f.SpaceComplexity)
	if err := oneOf("timeComplexity", f.TimeComplexity, TimeLabels); err != nil {
		return err
	}
	return oneOf("spaceComplexity", f.SpaceComplexity, SpaceLabels)
}
