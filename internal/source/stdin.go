package source

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/logship/logshipd/internal/logging"
	"github.com/logship/logshipd/internal/record"
	"github.com/logship/logshipd/internal/token"
	"github.com/logship/logshipd/internal/value"
)

var stdinLog = logging.With("source.stdin")

// StdinConfig configures a stdin Source.
type StdinConfig struct {
	JSONMode bool
}

// StdinSource reads newline-delimited records from an io.Reader (os.Stdin in
// production) until EOF. It never checkpoints: a restarted daemon simply
// waits for a new stream to be piped in (spec §4.4).
type StdinSource struct {
	name   string
	cfg    StdinConfig
	reader io.Reader
}

// NewStdin constructs a stdin Source named name, reading from r.
func NewStdin(name string, r io.Reader, cfg StdinConfig) *StdinSource {
	return &StdinSource{name: name, cfg: cfg, reader: r}
}

func (s *StdinSource) Name() string { return s.name }
func (s *StdinSource) Close() error { return nil }

func (s *StdinSource) Run(ctx context.Context, wg *sync.WaitGroup, out chan<- *record.Record, highWater <-chan record.Token) error {
	wg.Add(1)
	go func() {
		defer wg.Done()
		go drainAcks(ctx, highWater)

		scanner := bufio.NewScanner(s.reader)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		var seq int64
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}
			line := scanner.Text()
			tok := token.None{Seq: seq}
			seq++
			if !s.cfg.JSONMode {
				out <- record.New(s.name, tok, []byte(line))
				continue
			}
			v, err := value.Parse([]byte(line))
			if err != nil {
				stdinLog.Warnf("source.stdin %s: dropping malformed JSON line: %v", s.name, err)
				continue
			}
			out <- record.NewStructured(s.name, tok, v)
		}
		if err := scanner.Err(); err != nil {
			stdinLog.WithError(err).Warnf("source.stdin %s: read error", s.name)
		}
	}()
	return nil
}

// drainAcks discards a source's acknowledgement stream when there is
// nothing to do with it, so the route's ack forwarding never blocks.
func drainAcks(ctx context.Context, highWater <-chan record.Token) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-highWater:
			if !ok {
				return
			}
		}
	}
}
