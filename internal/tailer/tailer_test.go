package tailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atikulmunna/weft/internal/watcher"
)

func TestTailReplaysHistoryThenFollows(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "train.log")
	if err := os.WriteFile(logPath, []byte("step=0 loss=1.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := watcher.New([]string{logPath})
	if err != nil {
		t.Fatal(err)
	}

	ckpt, err := NewCheckpoint(filepath.Join(dir, ".weft-state.json"))
	if err != nil {
		t.Fatal(err)
	}

	tail := New(w, ckpt)

	ctx, cancel := context.WithCancel(context.Background())

	go w.Start(ctx)
	go tail.Start(ctx)

	// The pre-existing line is replayed from the start of the file.
	select {
	case raw := <-tail.Lines():
		if raw.Text != "step=0 loss=1.0" {
			t.Errorf("expected replayed history line, got %q", raw.Text)
		}
		if raw.Source != logPath {
			t.Errorf("expected source %q, got %q", logPath, raw.Source)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for replayed line")
	}

	// Appended lines are followed live.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("step=1 loss=0.5\n")
	f.Close()

	select {
	case raw := <-tail.Lines():
		if raw.Text != "step=1 loss=0.5" {
			t.Errorf("expected appended line, got %q", raw.Text)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for appended line")
	}

	// Cancel and allow goroutines to stop before TempDir cleanup.
	cancel()
	time.Sleep(200 * time.Millisecond)
}

func TestTailResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "train.log")
	content := []byte("step=0 loss=1.0\nstep=1 loss=0.5\n")
	if err := os.WriteFile(logPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	ckptPath := filepath.Join(dir, ".weft-state.json")
	ckpt, err := NewCheckpoint(ckptPath)
	if err != nil {
		t.Fatal(err)
	}
	// Pretend the first line was already consumed in a previous session.
	ckpt.Set(logPath, int64(len("step=0 loss=1.0\n")))

	w, err := watcher.New([]string{logPath})
	if err != nil {
		t.Fatal(err)
	}
	tail := New(w, ckpt)

	ctx, cancel := context.WithCancel(context.Background())

	go w.Start(ctx)
	go tail.Start(ctx)

	select {
	case raw := <-tail.Lines():
		if raw.Text != "step=1 loss=0.5" {
			t.Errorf("expected only the unconsumed line, got %q", raw.Text)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for resumed line")
	}

	cancel()
	time.Sleep(200 * time.Millisecond)
}

func TestCheckpointSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ckpt.json")

	// Create and save checkpoint.
	c1, err := NewCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}
	c1.Set("runs/train.log", 42)
	c1.Set("runs/eval.log", 1024)
	if err := c1.Save(); err != nil {
		t.Fatal(err)
	}

	// Load checkpoint in a new instance.
	c2, err := NewCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}

	v1, ok := c2.Get("runs/train.log")
	if !ok || v1 != 42 {
		t.Errorf("expected 42, got %d (found=%v)", v1, ok)
	}

	v2, ok := c2.Get("runs/eval.log")
	if !ok || v2 != 1024 {
		t.Errorf("expected 1024, got %d (found=%v)", v2, ok)
	}

	_, ok = c2.Get("runs/missing.log")
	if ok {
		t.Error("expected missing key to return false")
	}
}
