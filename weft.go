// Package weft renders streaming key-value metric records as a live,
// auto-updating terminal table. Records arrive as partial maps; fields are
// matched against configured FieldSpecs, merged into rows keyed by a
// designated key field, and improved values are marked for highlighting.
package weft

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

var (
	// ErrConfig reports an invalid printer or field configuration.
	ErrConfig = errors.New("invalid configuration")
	// ErrOrphanUpdate reports a record without the key field when no row is open.
	ErrOrphanUpdate = errors.New("record has no key field and no row is open")
	// ErrFinalized reports a Log call after Finalize.
	ErrFinalized = errors.New("printer already finalized")
)

const defaultRefresh = 100 * time.Millisecond

type config struct {
	key      string
	specs    []FieldSpec
	renderer Renderer
	refresh  time.Duration
	implicit bool
}

// Option configures a Printer.
type Option func(*config)

// WithKey sets the field whose value identifies row boundaries (e.g. "step").
// Without a key, every record opens a new row.
func WithKey(name string) Option {
	return func(c *config) { c.key = name }
}

// WithFields sets the ordered FieldSpec list. Earlier specs win when several
// patterns match the same field name.
func WithFields(specs []FieldSpec) Option {
	return func(c *config) { c.specs = specs }
}

// WithRenderer replaces the default live terminal renderer.
func WithRenderer(r Renderer) Option {
	return func(c *config) { c.renderer = r }
}

// WithRefreshInterval bounds how often the table is repainted. Zero or
// negative repaints on every update. Row closes and Finalize always repaint.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *config) { c.refresh = d }
}

// WithImplicitRows opens an unkeyed row for records that arrive without the
// key field while no row is open, instead of returning ErrOrphanUpdate.
func WithImplicitRows() Option {
	return func(c *config) { c.implicit = true }
}

type tableRow struct {
	key    string
	cells  map[string]string
	marks  map[string]CellMark
	closed bool
}

// Printer accumulates partial metric records into table rows and drives a
// Renderer. Log may be called from multiple goroutines; each call is
// processed synchronously under a single lock.
type Printer struct {
	mu       sync.Mutex
	key      string
	res      *resolver
	tracker  *bestTracker
	renderer Renderer
	refresh  time.Duration
	implicit bool

	columns []string
	colSeen map[string]bool
	rows    []*tableRow
	open    *tableRow

	opened     bool
	finalized  bool
	dirty      bool
	lastRender time.Time
}

// NewPrinter builds a Printer. Invalid field patterns fail here, never at log
// time.
func NewPrinter(opts ...Option) (*Printer, error) {
	cfg := config{refresh: defaultRefresh}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.renderer == nil {
		cfg.renderer = NewLiveRenderer(os.Stdout)
	}

	res, err := newResolver(cfg.specs)
	if err != nil {
		return nil, err
	}

	return &Printer{
		key:      cfg.key,
		res:      res,
		tracker:  newBestTracker(),
		renderer: cfg.renderer,
		refresh:  cfg.refresh,
		implicit: cfg.implicit,
		colSeen:  make(map[string]bool),
	}, nil
}

// Log merges a partial record into the table and refreshes the display.
//
// A record carrying the key field merges into the open row when the value
// matches, and otherwise closes it and opens a new row. Closed rows never
// reopen: logging an already-seen key value again appends a fresh row. A
// record without the key field merges into the open row; with no open row it
// is rejected with ErrOrphanUpdate unless WithImplicitRows was set.
func (p *Printer) Log(record map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finalized {
		return ErrFinalized
	}
	if !p.opened {
		if err := p.renderer.Open(); err != nil {
			return fmt.Errorf("open display: %w", err)
		}
		p.opened = true
	}

	rowClosed := false
	switch {
	case p.key == "":
		rowClosed = p.closeOpenRow()
		p.openRow("")
	default:
		kv, hasKey := record[p.key]
		switch {
		case hasKey:
			ks := fmt.Sprintf("%v", kv)
			if p.open == nil || p.open.key != ks {
				rowClosed = p.closeOpenRow()
				p.openRow(ks)
			}
		case p.open == nil:
			if !p.implicit {
				return ErrOrphanUpdate
			}
			p.openRow("")
		}
	}

	for _, name := range fieldOrder(record, p.key) {
		raw := record[name]
		rf := p.res.resolve(name)
		if rf.hide {
			continue
		}

		mark := MarkNone
		if rf.goal != GoalNone {
			if _, numeric := toFloat(raw); numeric {
				if p.tracker.consider(rf.name, rf.goal, raw) {
					mark = MarkBest
				} else {
					mark = MarkWorse
				}
			}
		}
		p.setCell(rf.name, formatValue(rf.format, raw), mark)
	}

	p.dirty = true
	if !rowClosed && p.refresh > 0 && time.Since(p.lastRender) < p.refresh {
		return nil // throttled; next unthrottled update or Finalize repaints
	}
	return p.render()
}

// Finalize closes the open row, repaints the final table state, and releases
// the renderer. It is idempotent; calls after the first are no-ops. Log
// returns ErrFinalized afterwards.
func (p *Printer) Finalize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finalized {
		return nil
	}
	p.finalized = true
	p.closeOpenRow()

	if !p.opened {
		return nil
	}
	if p.dirty {
		if err := p.render(); err != nil {
			_ = p.renderer.Close()
			return err
		}
	}
	return p.renderer.Close()
}

// Snapshot returns a copy of the current table state.
func (p *Printer) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *Printer) openRow(key string) {
	rw := &tableRow{
		key:   key,
		cells: make(map[string]string),
		marks: make(map[string]CellMark),
	}
	p.rows = append(p.rows, rw)
	p.open = rw
}

func (p *Printer) closeOpenRow() bool {
	if p.open == nil {
		return false
	}
	p.open.closed = true
	p.open = nil
	p.dirty = true
	return true
}

func (p *Printer) setCell(name, cell string, mark CellMark) {
	if !p.colSeen[name] {
		p.colSeen[name] = true
		p.columns = append(p.columns, name)
	}
	p.open.cells[name] = cell
	p.open.marks[name] = mark
}

func (p *Printer) render() error {
	if err := p.renderer.Render(p.snapshot()); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	p.dirty = false
	p.lastRender = time.Now()
	return nil
}

func (p *Printer) snapshot() Snapshot {
	cols := append([]string(nil), p.columns...)
	rows := make([]Row, len(p.rows))
	for i, rw := range p.rows {
		cells := make([]string, len(cols))
		marks := make([]CellMark, len(cols))
		for j, c := range cols {
			cells[j] = rw.cells[c]
			marks[j] = rw.marks[c]
		}
		rows[i] = Row{Key: rw.key, Cells: cells, Marks: marks, Closed: rw.closed}
	}
	return Snapshot{Columns: cols, Rows: rows}
}

// fieldOrder returns the record's field names with the key first and the rest
// sorted, so column arrival order does not depend on map iteration order.
func fieldOrder(record map[string]any, key string) []string {
	names := make([]string, 0, len(record))
	for name := range record {
		if name != key {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if key != "" {
		if _, ok := record[key]; ok {
			names = append([]string{key}, names...)
		}
	}
	return names
}
