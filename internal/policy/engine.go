package policy

import (
	"fmt"
	"regexp"
	"strings"
)

type riskPattern struct {
	re       *regexp.Regexp
	category RiskCategory
}

type compliancePattern struct {
	re       *regexp.Regexp
	category ComplianceCategory
}

// Engine classifies prompts against compiled pattern tables. It holds no
// mutable state after construction and is safe for concurrent use.
type Engine struct {
	risk       []riskPattern
	compliance []compliancePattern
}

// NewEngine compiles every rule in p. All patterns are matched
// case-insensitively; (?i) is added to rules that do not carry it.
func NewEngine(p *Policy) (*Engine, error) {
	e := &Engine{}
	for i, rule := range p.Risk {
		if _, ok := ParseRiskCategory(string(rule.Category)); !ok {
			return nil, fmt.Errorf("risk rule %d: unknown category %q", i, rule.Category)
		}
		re, err := compileRule(rule.Regex)
		if err != nil {
			return nil, fmt.Errorf("risk rule %d (%s): %w", i, rule.Category, err)
		}
		e.risk = append(e.risk, riskPattern{re: re, category: rule.Category})
	}
	for i, rule := range p.Compliance {
		re, err := compileRule(rule.Regex)
		if err != nil {
			return nil, fmt.Errorf("compliance rule %d (%s): %w", i, rule.Category, err)
		}
		e.compliance = append(e.compliance, compliancePattern{re: re, category: rule.Category})
	}
	return e, nil
}

// MustDefaultEngine returns an engine over DefaultPolicy. The built-in
// tables always compile.
func MustDefaultEngine() *Engine {
	e, err := NewEngine(DefaultPolicy())
	if err != nil {
		panic(err)
	}
	return e
}

func compileRule(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty regex")
	}
	if !strings.HasPrefix(expr, "(?i)") {
		expr = "(?i)" + expr
	}
	return regexp.Compile(widenWhitespace(expr))
}

// unicodeSpace is every Unicode whitespace character: ASCII whitespace,
// \v, the C0 separators, NEL and the Z categories (NBSP, U+2000 to
// U+200A, U+3000 and friends). RE2's \s alone covers only [\t\n\f\r ].
const unicodeSpace = `\s\v\x{1c}-\x{1f}\x{85}\p{Z}`

// widenWhitespace rewrites \s (and \S outside classes) so a prompt cannot
// slip past a pattern by using a non-ASCII space.
func widenWhitespace(expr string) string {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '\\' && i+1 < len(expr):
			i++
			next := expr[i]
			switch {
			case next == 's' && inClass:
				b.WriteString(unicodeSpace)
			case next == 's':
				b.WriteString("[" + unicodeSpace + "]")
			case next == 'S' && !inClass:
				b.WriteString("[^" + unicodeSpace + "]")
			default:
				b.WriteByte(c)
				b.WriteByte(next)
			}
		case inClass && c == '[' && strings.HasPrefix(expr[i:], "[:"):
			end := strings.Index(expr[i:], ":]")
			if end < 0 {
				b.WriteString(expr[i:])
				return b.String()
			}
			b.WriteString(expr[i : i+end+2])
			i += end + 1
		case inClass && c == ']':
			inClass = false
			b.WriteByte(c)
		case !inClass && c == '[':
			inClass = true
			b.WriteByte(c)
			// A leading ^ negates and a leading ] is a literal member.
			if i+1 < len(expr) && expr[i+1] == '^' {
				i++
				b.WriteByte('^')
			}
			if i+1 < len(expr) && expr[i+1] == ']' {
				i++
				b.WriteByte(']')
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Classify runs every risk pattern and the compliance patterns against
// prompt. A category is recorded once, at the position of its first
// matching pattern. Compliance evaluation stops at the first match.
func (e *Engine) Classify(prompt string) Result {
	result := Result{
		Risks:      []RiskCategory{},
		Compliance: []ComplianceCategory{},
		Decision:   DecisionAllow,
	}

	seen := make(map[RiskCategory]bool, len(RiskCategories))
	for _, p := range e.risk {
		if seen[p.category] {
			continue
		}
		if p.re.MatchString(prompt) {
			seen[p.category] = true
			result.Risks = append(result.Risks, p.category)
		}
	}

	for _, p := range e.compliance {
		if p.re.MatchString(prompt) {
			result.Compliance = append(result.Compliance, p.category)
			break
		}
	}

	if len(result.Risks) > 0 {
		result.Decision = DecisionBlock
	}
	return result
}

// RiskRuleCount reports how many risk patterns the engine evaluates.
func (e *Engine) RiskRuleCount() int {
	return len(e.risk)
}
