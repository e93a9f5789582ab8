package textx_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Subhamsidhanta/Vision-U/pkg/textx"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hello world", textx.SanitizeText("  hello\x00 world  "))
	assert.Equal(t, "line1\nline2", textx.SanitizeText("line1\nline2"))
	assert.Equal(t, "", textx.SanitizeText("\x01\x02\x03"))
	assert.Equal(t, "tab\tkept", textx.SanitizeText("tab\tkept"))
}

func TestSanitizePromptField(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a b c", textx.SanitizePromptField("  a \n b\t\tc  ", 100))
	assert.Equal(t, "", textx.SanitizePromptField("\x00\x01", 100))

	long := strings.Repeat("word ", 50)
	capped := textx.SanitizePromptField(long, 20)
	assert.LessOrEqual(t, len([]rune(capped)), 20)
	assert.Equal(t, capped, strings.TrimSpace(capped))
}

func TestSanitizePromptField_ZeroMaxLenMeansUncapped(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("a", 500)
	assert.Equal(t, long, textx.SanitizePromptField(long, 0))
}
