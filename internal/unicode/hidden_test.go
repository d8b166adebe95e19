package unicode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_CleanText(t *testing.T) {
	assert.Empty(t, Scan("plain prompt\twith tabs\nand newlines\r\n"))
	assert.Empty(t, Scan("émigré naïve 日本語 🚀"))
}

func TestScan_HiddenCharacters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  Kind
		cp    string
	}{
		{"zero width space", "rm\u200b -rf", KindZeroWidth, "U+200B"},
		{"right to left override", "abc\u202edef", KindBidi, "U+202E"},
		{"tag character", "hi\U000E0041", KindTag, "U+E0041"},
		{"escape", "x\x1b[31m", KindControl, "U+001B"},
		{"invalid utf8", "ok\xff", KindInvalidUTF8, "0xFF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := Scan(tt.input)
			require.Len(t, findings, 1)
			assert.Equal(t, tt.kind, findings[0].Kind)
			assert.Equal(t, tt.cp, findings[0].Codepoint)
		})
	}
}

func TestScan_Offsets(t *testing.T) {
	findings := Scan("a\u200bb\u200cc")
	require.Len(t, findings, 2)
	assert.Equal(t, 1, findings[0].Offset)
	assert.Equal(t, 5, findings[1].Offset)
}

func TestKinds(t *testing.T) {
	findings := Scan("\u202e\u200b\u200b")
	assert.Equal(t, []string{"bidi-control", "zero-width"}, Kinds(findings))
	assert.Empty(t, Kinds(nil))
}
