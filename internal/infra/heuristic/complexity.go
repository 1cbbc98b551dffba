package heuristic

import (
	"regexp"
	"strings"

	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

var (
	rxFuncDecl = regexp.MustCompile(`\b(?:function|def|func|fn)\s+([A-Za-z_]\w*)\s*\(`)

	collectionKeywords = []string{"array", "Array", "list", "[]", "ArrayList", "HashMap", "vector"}
)

// Complexity is a coarse static estimate.
type Complexity struct {
	Time  string
	Space string
}

// EstimateComplexity derives the time label from the loop count and the space
// label from recursion and collection hints. Recursion sets the floor first,
// a collection keyword then bumps one tier.
func EstimateComplexity(code string) Complexity {
	loops := max(len(rxFor.FindAllStringIndex(code, -1)), len(rxWhile.FindAllStringIndex(code, -1)))

	c := Complexity{Time: review.ComplexityConstant, Space: review.ComplexityConstant}
	switch {
	case loops >= 3:
		c.Time = review.ComplexityCubic
	case loops == 2:
		c.Time = review.ComplexityQuadratic
	case loops == 1:
		c.Time = review.ComplexityLinear
	}

	if strings.Contains(code, "recursive") || selfCalling(code) {
		c.Space = review.ComplexityLinear
	}
	if hasCollection(code) {
		if c.Space == review.ComplexityConstant {
			c.Space = review.ComplexityLinear
		} else {
			c.Space = review.ComplexityQuadratic
		}
	}
	return c
}

// selfCalling reports whether some declared function name is called again
// before the next declaration starts.
func selfCalling(code string) bool {
	decls := rxFuncDecl.FindAllStringSubmatchIndex(code, -1)
	for i, m := range decls {
		name := code[m[2]:m[3]]
		end := len(code)
		if i+1 < len(decls) {
			end = decls[i+1][0]
		}
		if callsName(code[m[1]:end], name) {
			return true
		}
	}
	return false
}

// callsName reports whether text holds name at a word start followed by
// optional whitespace and an opening parenthesis.
func callsName(text, name string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], name)
		if j < 0 {
			return false
		}
		start := i + j
		i = start + len(name)
		if start > 0 && isWordByte(text[start-1]) {
			continue
		}
		rest := strings.TrimLeft(text[i:], " \t\r\n\f")
		if strings.HasPrefix(rest, "(") {
			return true
		}
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func hasCollection(code string) bool {
	for _, k := range collectionKeywords {
		if strings.Contains(code, k) {
			return true
		}
	}
	return false
}
