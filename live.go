package weft

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
)

var (
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
	styleBest   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true).Padding(0, 1)  // green
	styleWorse  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Padding(0, 1)            // red
	styleBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// LiveRenderer paints the table in place on a terminal, moving the cursor
// back over the previous paint on every refresh. On a non-terminal writer it
// buffers the latest snapshot and paints once at Close, so piped output gets
// a single final table instead of one per update.
type LiveRenderer struct {
	w         io.Writer
	tty       bool
	lastLines int
	pending   *Snapshot
}

// NewLiveRenderer returns a renderer writing to w (os.Stdout when nil).
func NewLiveRenderer(w io.Writer) *LiveRenderer {
	if w == nil {
		w = os.Stdout
	}
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &LiveRenderer{w: w, tty: tty}
}

func (r *LiveRenderer) Open() error { return nil }

func (r *LiveRenderer) Render(s Snapshot) error {
	if !r.tty {
		r.pending = &s
		return nil
	}
	return r.paint(s)
}

func (r *LiveRenderer) Close() error {
	if r.pending != nil {
		s := *r.pending
		r.pending = nil
		_, err := fmt.Fprintln(r.w, renderTable(s))
		return err
	}
	return nil
}

func (r *LiveRenderer) paint(s Snapshot) error {
	out := renderTable(s)
	lines := strings.Count(out, "\n") + 1

	var b strings.Builder
	if r.lastLines > 0 {
		// Cursor up over the previous table, clear to end of screen.
		fmt.Fprintf(&b, "\x1b[%dA\x1b[J", r.lastLines)
	}
	b.WriteString(out)
	b.WriteByte('\n')

	if _, err := io.WriteString(r.w, b.String()); err != nil {
		return err
	}
	r.lastLines = lines
	return nil
}

// renderTable builds the lipgloss table for a snapshot.
func renderTable(s Snapshot) string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleBorder).
		Headers(s.Columns...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if row >= 0 && row < len(s.Rows) && col >= 0 && col < len(s.Rows[row].Marks) {
				switch s.Rows[row].Marks[col] {
				case MarkBest:
					return styleBest
				case MarkWorse:
					return styleWorse
				}
			}
			return styleCell
		})
	for _, row := range s.Rows {
		cells := make([]string, len(row.Cells))
		copy(cells, row.Cells)
		tbl.Row(cells...)
	}
	return tbl.Render()
}
