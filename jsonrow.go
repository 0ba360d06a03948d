package weft

import (
	"encoding/json"
	"io"
	"os"
)

// JSONRenderer emits each closed row as a single JSON object per line, for
// piping into other tools. Open rows are held back until they close; the
// final render during Finalize flushes everything.
type JSONRenderer struct {
	enc     *json.Encoder
	emitted int
}

// NewJSONRenderer returns a renderer writing JSON lines to w (os.Stdout when
// nil).
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Open() error { return nil }

func (r *JSONRenderer) Render(s Snapshot) error {
	for r.emitted < len(s.Rows) && s.Rows[r.emitted].Closed {
		if err := r.emit(s.Columns, s.Rows[r.emitted]); err != nil {
			return err
		}
		r.emitted++
	}
	return nil
}

func (r *JSONRenderer) Close() error { return nil }

func (r *JSONRenderer) emit(columns []string, row Row) error {
	out := struct {
		Key    string            `json:"key,omitempty"`
		Fields map[string]string `json:"fields"`
	}{
		Key:    row.Key,
		Fields: make(map[string]string, len(columns)),
	}
	for i, col := range columns {
		if i < len(row.Cells) && row.Cells[i] != "" {
			out.Fields[col] = row.Cells[i]
		}
	}
	return r.enc.Encode(out)
}
