package hub

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/atikulmunna/weft/internal/model"
	"github.com/atikulmunna/weft/internal/parser"
)

const subscriberBuffer = 1024

// Hub receives raw lines, parses them into metric records, and broadcasts
// each record to all subscribers. Lines that carry no metrics are counted and
// skipped rather than broadcast.
type Hub struct {
	parser      parser.Parser
	input       <-chan model.RawLine
	mu          sync.RWMutex
	subscribers []chan model.Record
	dropped     atomic.Int64
	skipped     atomic.Int64
}

// New creates a Hub that reads from the input channel and parses with the
// given parser.
func New(input <-chan model.RawLine, p parser.Parser) *Hub {
	return &Hub{
		parser: p,
		input:  input,
	}
}

// Subscribe returns a buffered channel that will receive parsed records.
// Multiple consumers can subscribe; each gets a copy of every record.
func (h *Hub) Subscribe() <-chan model.Record {
	ch := make(chan model.Record, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// Dropped returns the total number of records dropped due to slow consumers.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Skipped returns the total number of lines that carried no metrics.
func (h *Hub) Skipped() int64 { return h.skipped.Load() }

// Start begins reading from the input channel, parsing, and broadcasting.
// Blocks until the context is cancelled or the input channel is closed.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-h.input:
			if !ok {
				return
			}
			rec, ok := h.parser.Parse(raw.Text, raw.Source)
			if !ok {
				h.skipped.Add(1)
				continue
			}
			h.broadcast(rec)
		}
	}
}

// broadcast sends a record to all subscribers. If a subscriber's channel is
// full, the record is dropped for that subscriber.
func (h *Hub) broadcast(rec model.Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- rec:
		default:
			n := h.dropped.Add(1)
			log.Printf("hub: dropped record for slow consumer (total dropped: %d)", n)
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}
