package utils

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffOp is the kind of an inline diff span
type DiffOp int

const (
	// DiffEqual is text present on both sides
	DiffEqual DiffOp = iota
	// DiffDelete is text only in the master message
	DiffDelete
	// DiffInsert is text only in the slave message
	DiffInsert
)

// DiffSpan is a run of text with one DiffOp
type DiffSpan struct {
	Op   DiffOp
	Text string
}

// InlineDiff computes a word-friendly character diff between two message texts
func InlineDiff(master, slave string) []DiffSpan {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(master, slave, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	spans := make([]DiffSpan, 0, len(diffs))
	for _, d := range diffs {
		var op DiffOp
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = DiffDelete
		case diffmatchpatch.DiffInsert:
			op = DiffInsert
		default:
			op = DiffEqual
		}
		spans = append(spans, DiffSpan{Op: op, Text: d.Text})
	}
	return spans
}

// DiffStats counts deleted and inserted runes
func DiffStats(spans []DiffSpan) (deleted, inserted int) {
	for _, s := range spans {
		switch s.Op {
		case DiffDelete:
			deleted += len([]rune(s.Text))
		case DiffInsert:
			inserted += len([]rune(s.Text))
		}
	}
	return deleted, inserted
}

// FormatInlineDiff renders spans with [-deleted-] and {+inserted+} markers
func FormatInlineDiff(spans []DiffSpan) string {
	var b strings.Builder
	for _, s := range spans {
		switch s.Op {
		case DiffDelete:
			b.WriteString("[-" + s.Text + "-]")
		case DiffInsert:
			b.WriteString("{+" + s.Text + "+}")
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}
