// Package unicode finds characters that change how a prompt reads without
// being visible: zero-width joiners, bidi controls, tag characters and
// stray C0/C1 controls. Findings are diagnostic only.
package unicode

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

type Kind string

const (
	KindZeroWidth   Kind = "zero-width"
	KindBidi        Kind = "bidi-control"
	KindTag         Kind = "tag-char"
	KindControl     Kind = "control-char"
	KindInvalidUTF8 Kind = "invalid-utf8"
)

// Finding is one hidden character and its byte offset.
type Finding struct {
	Kind      Kind
	Offset    int
	Codepoint string
}

var zeroWidth = map[rune]bool{
	'\u200B': true, '\u200C': true, '\u200D': true, '\u200E': true,
	'\u200F': true, '\u2060': true, '\u180E': true, '\uFEFF': true,
}

var bidi = map[rune]bool{
	'\u202A': true, '\u202B': true, '\u202C': true, '\u202D': true,
	'\u202E': true, '\u2066': true, '\u2067': true, '\u2068': true,
	'\u2069': true,
}

// Scan returns every hidden character in s in input order.
func Scan(s string) []Finding {
	var findings []Finding
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			findings = append(findings, Finding{Kind: KindInvalidUTF8, Offset: i, Codepoint: fmt.Sprintf("0x%02X", s[i])})
			i++
			continue
		}
		if kind, ok := classify(r); ok {
			findings = append(findings, Finding{Kind: kind, Offset: i, Codepoint: fmt.Sprintf("U+%04X", r)})
		}
		i += size
	}
	return findings
}

func classify(r rune) (Kind, bool) {
	switch {
	case zeroWidth[r]:
		return KindZeroWidth, true
	case bidi[r]:
		return KindBidi, true
	case r >= 0xE0001 && r <= 0xE007F:
		return KindTag, true
	case r == '\t' || r == '\n' || r == '\r':
		return "", false
	case r <= 0x1F || r == 0x7F || (r >= 0x80 && r <= 0x9F):
		return KindControl, true
	}
	return "", false
}

// Kinds returns the distinct kinds present in findings, sorted.
func Kinds(findings []Finding) []string {
	seen := map[Kind]bool{}
	var kinds []string
	for _, f := range findings {
		if !seen[f.Kind] {
			seen[f.Kind] = true
			kinds = append(kinds, string(f.Kind))
		}
	}
	sort.Strings(kinds)
	return kinds
}
