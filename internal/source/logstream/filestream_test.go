package logstream

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/logship/logshipd/internal/testutil"
	"github.com/logship/logshipd/internal/token"
	"github.com/logship/logshipd/internal/waker"
)

// collectSink is a Sink that records every emitted line and token in order.
type collectSink struct {
	mu     sync.Mutex
	lines  []string
	tokens []token.File
	warns  []string
}

func (c *collectSink) Emit(line string, tok token.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	c.tokens = append(c.tokens, tok)
}

func (c *collectSink) Warn(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warns = append(c.warns, format)
}

func (c *collectSink) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func TestFileStreamBasicTail(t *testing.T) {
	dir := testutil.TestTempDir(t)
	logfile := filepath.Join(dir, "in.log")
	f := testutil.TestOpenFile(t, logfile)
	defer f.Close()

	ctx := context.Background()
	wk, awaken := waker.NewTest(ctx, 1)
	var wg sync.WaitGroup
	sink := &collectSink{}

	ls, err := New(ctx, &wg, wk, logfile, sink, Options{FromBeginning: true})
	testutil.FatalIfErr(t, err)
	awaken(1)

	testutil.WriteString(t, f, "a\nb\n")
	awaken(1)

	ls.Stop()
	wg.Wait()

	got := sink.Lines()
	want := []string{"a", "b"}
	if diff := testutil.Diff(want, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	if !ls.IsComplete() {
		t.Error("expected stream to be complete after Stop")
	}
}

func TestFileStreamRotation(t *testing.T) {
	dir := testutil.TestTempDir(t)
	logfile := filepath.Join(dir, "in.log")
	f := testutil.TestOpenFile(t, logfile)

	ctx := context.Background()
	wk, awaken := waker.NewTest(ctx, 1)
	var wg sync.WaitGroup
	sink := &collectSink{}

	ls, err := New(ctx, &wg, wk, logfile, sink, Options{FromBeginning: true})
	testutil.FatalIfErr(t, err)
	awaken(1)

	testutil.WriteString(t, f, "a\nb\n")
	awaken(1)
	f.Close()

	testutil.FatalIfErr(t, os.Rename(logfile, filepath.Join(dir, "in.log.1")))
	f2 := testutil.TestOpenFile(t, logfile)
	defer f2.Close()
	testutil.WriteString(t, f2, "c\nd\n")
	awaken(1)

	ls.Stop()
	wg.Wait()

	got := sink.Lines()
	want := []string{"a", "b", "c", "d"}
	if diff := testutil.Diff(want, got); diff != "" {
		t.Errorf("lines mismatch across rotation (-want +got):\n%s", diff)
	}
}

func TestFileStreamTruncation(t *testing.T) {
	dir := testutil.TestTempDir(t)
	logfile := filepath.Join(dir, "in.log")
	f := testutil.TestOpenFile(t, logfile)
	defer f.Close()

	ctx := context.Background()
	wk, awaken := waker.NewTest(ctx, 1)
	var wg sync.WaitGroup
	sink := &collectSink{}

	ls, err := New(ctx, &wg, wk, logfile, sink, Options{FromBeginning: true})
	testutil.FatalIfErr(t, err)
	awaken(1)

	testutil.WriteString(t, f, "aaaaaaaaaa\n")
	awaken(1)

	testutil.FatalIfErr(t, f.Truncate(0))
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	testutil.WriteString(t, f, "b\n")
	awaken(1)

	ls.Stop()
	wg.Wait()

	got := sink.Lines()
	want := []string{"aaaaaaaaaa", "b"}
	if diff := testutil.Diff(want, got); diff != "" {
		t.Errorf("lines mismatch across truncation (-want +got):\n%s", diff)
	}
}

func TestFileStreamResumeFromOffset(t *testing.T) {
	dir := testutil.TestTempDir(t)
	logfile := filepath.Join(dir, "in.log")
	f := testutil.TestOpenFile(t, logfile)
	testutil.WriteString(t, f, "a\nb\n")
	f.Close()

	ctx := context.Background()
	wk, awaken := waker.NewTest(ctx, 1)
	var wg sync.WaitGroup
	sink := &collectSink{}

	ls, err := New(ctx, &wg, wk, logfile, sink, Options{StartOffset: 2})
	testutil.FatalIfErr(t, err)
	awaken(1)

	ls.Stop()
	wg.Wait()

	got := sink.Lines()
	want := []string{"b"}
	if diff := testutil.Diff(want, got); diff != "" {
		t.Errorf("resume from offset mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStreamStopFlushesPartialLine(t *testing.T) {
	dir := testutil.TestTempDir(t)
	logfile := filepath.Join(dir, "in.log")
	f := testutil.TestOpenFile(t, logfile)
	defer f.Close()

	ctx := context.Background()
	wk, awaken := waker.NewTest(ctx, 1)
	var wg sync.WaitGroup
	sink := &collectSink{}

	ls, err := New(ctx, &wg, wk, logfile, sink, Options{FromBeginning: true})
	testutil.FatalIfErr(t, err)
	awaken(1)

	testutil.WriteString(t, f, "no newline yet")
	awaken(1)

	ls.Stop()
	wg.Wait()

	got := sink.Lines()
	want := []string{"no newline yet"}
	if diff := testutil.Diff(want, got); diff != "" {
		t.Errorf("partial line flush mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStreamDeletedFileCompletes(t *testing.T) {
	dir := testutil.TestTempDir(t)
	logfile := filepath.Join(dir, "in.log")
	f := testutil.TestOpenFile(t, logfile)

	ctx := context.Background()
	wk, awaken := waker.NewTest(ctx, 1)
	var wg sync.WaitGroup
	sink := &collectSink{}

	ls, err := New(ctx, &wg, wk, logfile, sink, Options{FromBeginning: true})
	testutil.FatalIfErr(t, err)
	awaken(1)

	testutil.WriteString(t, f, "a\n")
	f.Close()
	testutil.FatalIfErr(t, os.Remove(logfile))
	awaken(1)

	select {
	case <-waitDone(&wg):
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not complete after file removal")
	}

	if !ls.IsComplete() {
		t.Error("expected stream to mark itself complete when the file disappears")
	}
}

func waitDone(wg *sync.WaitGroup) <-chan struct{} {
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	return done
}
