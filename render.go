package weft

// CellMark tells a renderer how a cell relates to the best value seen for its
// column. The printer never emits styling itself; it only marks cells.
type CellMark uint8

const (
	MarkNone  CellMark = iota // no goal, or value not comparable
	MarkBest                  // new best value for a goal-bearing field
	MarkWorse                 // goal-bearing field that did not improve
)

// Row is one table row handed to a Renderer. Cells and Marks are aligned with
// the snapshot's column order; cells for columns the row never received are
// empty strings.
type Row struct {
	Key    string
	Cells  []string
	Marks  []CellMark
	Closed bool
}

// Snapshot is the complete table state at one point in time. Columns appear
// in first-seen order and only ever grow.
type Snapshot struct {
	Columns []string
	Rows    []Row
}

// Renderer displays table snapshots. Open is called before the first Render,
// Close exactly once when the printer is finalized. Render errors are
// propagated to the Log caller and not retried.
type Renderer interface {
	Open() error
	Render(Snapshot) error
	Close() error
}
