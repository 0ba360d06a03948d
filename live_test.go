package weft

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderTableContents(t *testing.T) {
	s := Snapshot{
		Columns: []string{"step", "loss"},
		Rows: []Row{
			{Key: "0", Cells: []string{"0", "1.00"}, Marks: []CellMark{MarkNone, MarkBest}, Closed: true},
			{Key: "1", Cells: []string{"1", "0.50"}, Marks: []CellMark{MarkNone, MarkBest}},
		},
	}

	out := renderTable(s)
	for _, want := range []string{"step", "loss", "1.00", "0.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected rendered table to contain %q:\n%s", want, out)
		}
	}
}

func TestLiveRendererNonTTYPaintsOnceAtClose(t *testing.T) {
	var buf bytes.Buffer
	r := NewLiveRenderer(&buf)

	s := Snapshot{Columns: []string{"step"}, Rows: []Row{{Key: "0", Cells: []string{"0"}, Marks: []CellMark{MarkNone}}}}
	if err := r.Render(s); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Error("non-TTY writer must not be painted per update")
	}

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "step") {
		t.Errorf("expected final paint at Close, got %q", buf.String())
	}
}

func TestLiveRendererCloseWithoutRender(t *testing.T) {
	var buf bytes.Buffer
	r := NewLiveRenderer(&buf)
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
