package utils

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessionLabel(t *testing.T) {
	label := GenerateSessionLabel()
	assert.Regexp(t, regexp.MustCompile(`^[a-z]+(-[a-z]+)+$`), label)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"привет мир", 4, "при…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.n), "Truncate(%q, %d)", tt.in, tt.n)
	}
}

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "see you at 5", SingleLine("  see you\n\n at\t5 "))
	assert.Equal(t, "", SingleLine(" \n "))
}

func TestInlineDiff(t *testing.T) {
	spans := InlineDiff("see you at 5", "see you at 6")
	require.NotEmpty(t, spans)
	assert.Equal(t, "see you at [-5-]{+6+}", FormatInlineDiff(spans))

	deleted, inserted := DiffStats(spans)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 1, inserted)

	same := InlineDiff("ok", "ok")
	require.Len(t, same, 1)
	assert.Equal(t, DiffEqual, same[0].Op)
}

func TestRenderTable(t *testing.T) {
	text.DisableColors()
	t.Cleanup(text.EnableColors)

	var buf bytes.Buffer
	RenderTable(&buf, []string{"Decision", "Count"}, [][]string{{"merge", "2"}, {"add", "1"}},
		TableOptions{Title: "Chats", Style: table.StyleLight, NumericColumns: []int{2}})

	out := buf.String()
	assert.Contains(t, out, "Chats")
	assert.Contains(t, out, "merge")
	assert.Contains(t, out, "DECISION")
	assert.NotContains(t, out, "No records found.")

	buf.Reset()
	RenderTable(&buf, []string{"ID"}, nil, DefaultTableOptions())
	assert.Contains(t, buf.String(), "No records found.")
}

func TestPrintHelpers(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	old := Output
	Output = &buf
	t.Cleanup(func() { Output = old })

	PrintSuccess("merged")
	PrintWarning("chat 7 skipped")
	PrintKeyValue("Session", "mrg-1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "✓ merged", lines[0])
	assert.Equal(t, "⚠ chat 7 skipped", lines[1])
	assert.Equal(t, "Session: mrg-1", lines[2])
}
