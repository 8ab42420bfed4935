package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/logship/logshipd/internal/ackset"
	"github.com/logship/logshipd/internal/cursor"
	"github.com/logship/logshipd/internal/logging"
	"github.com/logship/logshipd/internal/record"
	"github.com/logship/logshipd/internal/source/logstream"
	"github.com/logship/logshipd/internal/token"
	"github.com/logship/logshipd/internal/value"
	"github.com/logship/logshipd/internal/waker"
)

var fileLog = logging.With("source.file")

// FileConfig configures a file Source. Paths may contain glob metacharacters;
// they are expanded once at Run time (§9 open question: files matching a
// later addition to the glob are not picked up, matching the teacher's
// fixed-target tailer.LogPatterns behavior).
type FileConfig struct {
	Paths         []string
	FromBeginning bool
	JSONMode      bool
	StateDir      string
	PollInterval  time.Duration
	FlushCount    int
	FlushInterval time.Duration
}

// FileSource tails one or more files matching FileConfig.Paths, treating
// each matched path as an independent stream with its own persisted cursor,
// as the teacher's tailer treats every path named by its patterns. name
// doubles as the record.Record.RouteID stamped on every emitted record,
// since a source is associated with exactly one route (§3).
type FileSource struct {
	name string
	cfg  FileConfig

	mu      sync.Mutex
	paths   map[string]*filePathState
	cancel  context.CancelFunc
	closeWg sync.WaitGroup
}

type filePathState struct {
	path    string
	stream  logstream.LogStream
	store   *cursor.Store
	flush   *cursor.FlushPolicy
	tracker *ackset.Tracker
}

// NewFile constructs a file Source named name.
func NewFile(name string, cfg FileConfig) *FileSource {
	if cfg.PollInterval <= 0 || cfg.PollInterval > time.Second {
		cfg.PollInterval = time.Second
	}
	return &FileSource{name: name, cfg: cfg, paths: make(map[string]*filePathState)}
}

func (fs *FileSource) Name() string { return fs.name }

func (fs *FileSource) Close() error {
	fs.mu.Lock()
	cancel := fs.cancel
	fs.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	fs.closeWg.Wait()
	return nil
}

// Run expands cfg.Paths once, starts one logstream.LogStream per match, and
// returns; the streams run until ctx is cancelled.
func (fs *FileSource) Run(ctx context.Context, wg *sync.WaitGroup, out chan<- *record.Record, highWater <-chan record.Token) error {
	runCtx, cancel := context.WithCancel(ctx)
	fs.mu.Lock()
	fs.cancel = cancel
	fs.mu.Unlock()

	matches, err := expandGlobs(fs.cfg.Paths)
	if err != nil {
		cancel()
		return fmt.Errorf("source.file %s: %w", fs.name, err)
	}

	// A literal (non-glob) configured path that doesn't exist yet is not
	// dropped: spec §4.2 requires polling its parent directory for creation.
	// A glob that matches nothing at startup stays a one-shot non-goal (§9):
	// files added to the directory later are picked up only on restart,
	// matching the teacher's fixed-target tailer.LogPatterns behavior.
	matched := make(map[string]bool, len(matches))
	for _, m := range matches {
		matched[m] = true
	}
	var pending []string
	for _, p := range fs.cfg.Paths {
		if hasGlobMeta(p) || matched[p] {
			continue
		}
		pending = append(pending, p)
	}

	switch {
	case len(matches) == 0 && len(pending) == 0:
		fileLog.Warnf("source.file %s: no paths matched %v at startup; nothing will be tailed until restart", fs.name, fs.cfg.Paths)
	case len(pending) > 0:
		fileLog.Infof("source.file %s: waiting for %d path(s) to be created: %v", fs.name, len(pending), pending)
	}

	wk := waker.NewInterval(runCtx, fs.cfg.PollInterval)

	var innerWg sync.WaitGroup
	for _, path := range matches {
		st, err := fs.startPath(runCtx, &innerWg, wk, path, out)
		if err != nil {
			fileLog.WithError(err).Warnf("source.file %s: failed to start tailing %s", fs.name, path)
			continue
		}
		fs.mu.Lock()
		fs.paths[path] = st
		fs.mu.Unlock()
	}

	if len(pending) > 0 {
		fs.closeWg.Add(1)
		go func() {
			defer fs.closeWg.Done()
			fs.watchPending(runCtx, &innerWg, wk, pending, out)
		}()
	}

	fs.closeWg.Add(1)
	go func() {
		defer fs.closeWg.Done()
		fs.runAckLoop(runCtx, highWater)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-runCtx.Done()
		innerWg.Wait()
	}()

	return nil
}

func (fs *FileSource) runAckLoop(ctx context.Context, highWater <-chan record.Token) {
	for {
		select {
		case <-ctx.Done():
			return
		case tok, ok := <-highWater:
			if !ok {
				return
			}
			ft, ok := tok.(token.File)
			if !ok {
				continue
			}
			fs.mu.Lock()
			st := fs.paths[ft.Path]
			fs.mu.Unlock()
			if st == nil {
				continue
			}
			if _, advanced := st.tracker.Ack(ft); advanced {
				fs.maybeFlush(st)
			}
		}
	}
}

func (fs *FileSource) maybeFlush(st *filePathState) {
	if !st.flush.Advance() {
		return
	}
	hw := st.tracker.HighWater()
	ft, ok := hw.(token.File)
	if !ok {
		return
	}
	if err := st.store.Save(encodeFileToken(ft)); err != nil {
		fileLog.WithError(err).Warnf("source.file %s: failed to persist cursor for %s", fs.name, st.path)
		return
	}
	st.flush.MarkFlushed()
}

func (fs *FileSource) startPath(ctx context.Context, wg *sync.WaitGroup, wk waker.Waker, path string, out chan<- *record.Record) (*filePathState, error) {
	storePath := filepath.Join(fs.stateDir(), cursorFileName(path))
	store, err := cursor.Open(storePath)
	if err != nil {
		return nil, err
	}

	opts := logstream.Options{JSONMode: fs.cfg.JSONMode, FromBeginning: fs.cfg.FromBeginning}
	if data, found, err := store.Load(); err != nil {
		fileLog.WithError(err).Warnf("source.file %s: discarding unreadable cursor for %s", fs.name, path)
	} else if found {
		if ft, err := decodeFileToken(data); err == nil {
			opts.StartOffset = ft.Offset
			opts.StartGeneration = ft.Generation
		}
	}

	st := &filePathState{
		path:    path,
		store:   store,
		flush:   cursor.NewFlushPolicy(fs.cfg.FlushCount, fs.cfg.FlushInterval),
		tracker: ackset.New(),
	}

	sink := &fileSink{parent: fs, pathState: st, out: out, jsonMode: fs.cfg.JSONMode}
	stream, err := logstream.New(ctx, wg, wk, path, sink, opts)
	if err != nil {
		return nil, err
	}
	st.stream = stream
	return st, nil
}

// watchPending waits for literal (non-glob) configured paths that did not
// exist at startup to be created, then starts tailing each as soon as it
// appears (spec §4.2). fsnotify wakes the loop promptly when the parent
// directory is watchable; the interval Waker already used for rotation
// polling is the fallback, so a watch failure (e.g. a filesystem fsnotify
// can't watch) still converges, just on PollInterval instead of instantly.
func (fs *FileSource) watchPending(ctx context.Context, innerWg *sync.WaitGroup, wk waker.Waker, pending []string, out chan<- *record.Record) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fileLog.WithError(err).Warnf("source.file %s: fsnotify unavailable, falling back to polling for pending paths", fs.name)
		watcher = nil
	}
	if watcher != nil {
		defer watcher.Close()
		dirs := make(map[string]bool)
		for _, p := range pending {
			dir := filepath.Dir(p)
			if dirs[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				fileLog.WithError(err).Warnf("source.file %s: cannot watch %s for creation", fs.name, dir)
				continue
			}
			dirs[dir] = true
		}
		go func() {
			for range watcher.Errors {
			}
		}()
	}

	remaining := append([]string(nil), pending...)
	for {
		if ctx.Err() != nil {
			return
		}
		var stillPending []string
		for _, path := range remaining {
			if _, err := os.Stat(path); err != nil {
				stillPending = append(stillPending, path)
				continue
			}
			st, err := fs.startPath(ctx, innerWg, wk, path, out)
			if err != nil {
				fileLog.WithError(err).Warnf("source.file %s: failed to start tailing %s", fs.name, path)
				stillPending = append(stillPending, path)
				continue
			}
			fileLog.Infof("source.file %s: %s created, tailing started", fs.name, path)
			fs.mu.Lock()
			fs.paths[path] = st
			fs.mu.Unlock()
		}
		remaining = stillPending
		if len(remaining) == 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-notifyEvents(watcher):
		case <-wk.Wake():
		}
	}
}

// notifyEvents returns w.Events, or a nil channel if w is nil (a nil
// channel blocks forever in a select, so watchPending's select degrades to
// polling alone when fsnotify setup failed).
func notifyEvents(w *fsnotify.Watcher) <-chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.Events
}

// hasGlobMeta reports whether pattern contains glob metacharacters, mirroring
// the set filepath.Glob treats specially.
func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

func (fs *FileSource) stateDir() string {
	if fs.cfg.StateDir != "" {
		return fs.cfg.StateDir
	}
	return filepath.Join(os.TempDir(), "logshipd", "cursors", fs.name)
}

// fileSink adapts one path's logstream.Sink callbacks into record.Records
// and the path's local ackset.Tracker.
type fileSink struct {
	parent    *FileSource
	pathState *filePathState
	out       chan<- *record.Record
	jsonMode  bool
}

func (s *fileSink) Emit(line string, tok token.File) {
	s.pathState.tracker.Add(tok)

	if !s.jsonMode {
		rec := record.New(s.parent.name, tok, []byte(line))
		s.out <- rec
		return
	}

	v, err := value.Parse([]byte(line))
	if err != nil {
		s.Warn("source.file %s: dropping malformed JSON line from %s: %v", s.parent.name, s.pathState.path, err)
		// The line never reaches a sink; self-ack its token immediately so
		// the contiguous prefix does not stall behind a record nobody will
		// ever acknowledge.
		s.pathState.tracker.Ack(tok)
		s.parent.maybeFlush(s.pathState)
		return
	}
	s.out <- record.NewStructured(s.parent.name, tok, v)
}

func (s *fileSink) Warn(format string, args ...interface{}) {
	fileLog.Warnf(format, args...)
}

func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", p, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(p); err == nil {
				matches = []string{p}
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func cursorFileName(path string) string {
	enc := base64.RawURLEncoding.EncodeToString([]byte(path))
	return enc + ".cursor"
}

func encodeFileToken(ft token.File) []byte {
	return []byte(strings.Join([]string{
		ft.Path,
		ft.Identity,
		strconv.FormatInt(ft.Offset, 10),
		strconv.FormatInt(ft.Generation, 10),
	}, "\n"))
}

func decodeFileToken(data []byte) (token.File, error) {
	parts := strings.Split(string(data), "\n")
	if len(parts) != 4 {
		return token.File{}, fmt.Errorf("cursor: malformed file token: %q", data)
	}
	offset, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return token.File{}, err
	}
	generation, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return token.File{}, err
	}
	return token.File{Path: parts[0], Identity: parts[1], Offset: offset, Generation: generation}, nil
}
