package cli

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Loan options",
		Headers: []string{"Loan", "Rate"},
		Rows: [][]string{
			{"Conventional 30-year fixed", "6.50%"},
			{"---"},
			{"VA 30-year fixed", "6.30%"},
		},
	})
	for _, want := range []string{"Loan options", "Conventional 30-year fixed", "6.30%", "├", "╰"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got != 8 {
		t.Errorf("table has %d lines, want 8:\n%s", got, out)
	}
}

func TestRenderTableEmpty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Errorf("RenderTable(empty) = %q, want empty", got)
	}
}

func TestRenderKeyValues(t *testing.T) {
	out := RenderKeyValues("Summary", []KV{{"Home price", "$250,000"}, {"Rate", "6.50%"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	// Values line up after the widest key.
	if strings.Index(lines[1], "$250,000") != strings.Index(lines[2], "6.50%") {
		t.Errorf("values not aligned:\n%s", out)
	}
}

func TestRenderBar(t *testing.T) {
	if got := RenderBar(5, 0, 10); got != "" {
		t.Errorf("RenderBar with zero max = %q", got)
	}
	if got := strings.Count(RenderBar(5, 10, 10), "█"); got != 5 {
		t.Errorf("half bar has %d blocks, want 5", got)
	}
	if got := strings.Count(RenderBar(-50, 10, 10), "█"); got != 10 {
		t.Errorf("overflow bar has %d blocks, want 10", got)
	}
}
