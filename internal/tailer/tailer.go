package tailer

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/atikulmunna/weft/internal/model"
	"github.com/atikulmunna/weft/internal/watcher"

	"github.com/fsnotify/fsnotify"
)

// Tailer reads lines from watched metrics logs and emits RawLine values.
//
// Unlike a generic log follower, a metrics tailer replays each file from the
// beginning on first sight: the table is rebuilt from the run's full history,
// not just the lines appended after startup. A checkpoint records how far
// each file has been consumed so a restart does not replay rows twice.
type Tailer struct {
	mu     sync.Mutex
	files  map[string]*trackedLog
	out    chan model.RawLine
	ckpt   *Checkpoint
	events <-chan watcher.Event
	watch  *watcher.Watcher
}

type trackedLog struct {
	path   string
	file   *os.File
	offset int64
}

// New creates a Tailer that reads events from the given Watcher.
func New(w *watcher.Watcher, ckpt *Checkpoint) *Tailer {
	return &Tailer{
		files:  make(map[string]*trackedLog),
		out:    make(chan model.RawLine, 512),
		ckpt:   ckpt,
		events: w.Events,
		watch:  w,
	}
}

// Lines returns the channel where raw metric lines are sent.
func (t *Tailer) Lines() <-chan model.RawLine {
	return t.out
}

// Start begins processing watcher events. Blocks until context is cancelled.
func (t *Tailer) Start(ctx context.Context) {
	defer close(t.out)

	// Open all initially watched files and replay their history.
	for _, p := range t.watch.Paths() {
		t.openLog(p)
		t.readNewLines(p)
	}

	// Periodic checkpoint save.
	saveTicker := time.NewTicker(5 * time.Second)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.saveCheckpoint()
			t.closeAll()
			return

		case ev, ok := <-t.events:
			if !ok {
				return
			}
			t.handleEvent(ev)

		case <-saveTicker.C:
			t.saveCheckpoint()
		}
	}
}

// handleEvent dispatches watcher events to the appropriate handler.
func (t *Tailer) handleEvent(ev watcher.Event) {
	switch {
	case ev.Op&fsnotify.Write != 0:
		t.readNewLines(ev.Path)

	case ev.Op&fsnotify.Create != 0:
		// New file appeared (possibly after rotation).
		t.openLog(ev.Path)
		t.readNewLines(ev.Path)

	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		// File rotated or deleted — close and schedule reconnect.
		t.closeLog(ev.Path)
		go t.reconnect(ev.Path)
	}
}

// openLog opens a metrics log for tailing, resuming from the checkpointed
// offset when one exists and otherwise from the start of the file.
func (t *Tailer) openLog(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.files[path]; exists {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.Printf("cannot open %s: %v", path, err)
		return
	}

	var offset int64
	if saved, ok := t.ckpt.Get(path); ok {
		offset = saved
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		log.Printf("cannot seek %s: %v", path, err)
		f.Close()
		return
	}

	t.files[path] = &trackedLog{
		path:   path,
		file:   f,
		offset: offset,
	}
}

// readNewLines reads from the last offset to EOF and emits complete lines.
func (t *Tailer) readNewLines(path string) {
	t.mu.Lock()
	tl, ok := t.files[path]
	if !ok {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	scanner := bufio.NewScanner(tl.file)
	for scanner.Scan() {
		t.out <- model.RawLine{Text: scanner.Text(), Source: path}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("read error on %s: %v", path, err)
	}

	pos, err := tl.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return
	}
	tl.offset = pos
	t.ckpt.Set(path, pos)
}

// closeLog releases a tracked file.
func (t *Tailer) closeLog(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tl, ok := t.files[path]; ok {
		tl.file.Close()
		delete(t.files, path)
	}
}

// reconnect polls for a file to reappear after rotation (up to 5 retries).
// A rotated metrics log starts a fresh history, so its checkpoint is reset.
func (t *Tailer) reconnect(path string) {
	for i := 0; i < 5; i++ {
		time.Sleep(1 * time.Second)
		if _, err := os.Stat(path); err == nil {
			log.Printf("reconnected to rotated file: %s", path)
			t.ckpt.Set(path, 0)
			_ = t.watch.Add(path)
			t.openLog(path)
			t.readNewLines(path)
			return
		}
	}
	log.Printf("gave up reconnecting to %s after 5 retries", path)
}

// saveCheckpoint persists the current offsets to disk.
func (t *Tailer) saveCheckpoint() {
	if err := t.ckpt.Save(); err != nil {
		log.Printf("checkpoint save failed: %v", err)
	}
}

// closeAll closes all tracked file handles.
func (t *Tailer) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, tl := range t.files {
		tl.file.Close()
		delete(t.files, path)
	}
}
