package ackset

import (
	"sync"
	"testing"

	"github.com/logship/logshipd/internal/token"
)

func TestTrackerContiguousPrefix(t *testing.T) {
	tr := New()
	a, b, c := token.None{Seq: 1}, token.None{Seq: 2}, token.None{Seq: 3}
	tr.Add(a)
	tr.Add(b)
	tr.Add(c)

	if _, advanced := tr.Ack(b); advanced {
		t.Fatal("acking the middle token should not advance the high-water mark")
	}
	if got := tr.Pending(); got != 3 {
		t.Fatalf("pending = %d, want 3", got)
	}

	hw, advanced := tr.Ack(a)
	if !advanced {
		t.Fatal("acking the oldest token should advance the high-water mark")
	}
	if hw != b {
		t.Fatalf("high-water = %v, want %v", hw, b)
	}
	if got := tr.Pending(); got != 1 {
		t.Fatalf("pending after advance = %d, want 1", got)
	}

	hw, advanced = tr.Ack(c)
	if !advanced {
		t.Fatal("acking the last remaining token should advance the high-water mark")
	}
	if hw != c {
		t.Fatalf("high-water = %v, want %v", hw, c)
	}
	if got := tr.Pending(); got != 0 {
		t.Fatalf("pending after final advance = %d, want 0", got)
	}
}

// TestTrackerConcurrentAddAndAck exercises Add and Ack from separate
// goroutines, the way a Source's reader loop and ack loop drive a shared
// Tracker; run with -race it catches an unguarded queue/map mutation.
func TestTrackerConcurrentAddAndAck(t *testing.T) {
	tr := New()
	const n = 500
	toks := make([]token.None, n)
	for i := range toks {
		toks[i] = token.None{Seq: int64(i)}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, tok := range toks {
			tr.Add(tok)
		}
	}()
	go func() {
		defer wg.Done()
		for _, tok := range toks {
			tr.Ack(tok)
		}
	}()
	wg.Wait()
}
