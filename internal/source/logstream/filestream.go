package logstream

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"github.com/logship/logshipd/internal/logging"
	"github.com/logship/logshipd/internal/waker"
)

var fsLog = logging.With("logstream")

// fileStream streams records from a regular file that another process
// appends to, rotates, or truncates. Rotation implies a new inode with the
// same pathname; the old file descriptor is read to EOF and then closed.
// Truncation reuses the same inode but resets the file offset to 0.
// Adapted from the teacher's driver/log/tailer/logstream/filestream.go.
type fileStream struct {
	ctx      context.Context
	pathname string
	sink     Sink

	mu           sync.RWMutex
	lastReadTime time.Time
	completed    bool

	stopOnce sync.Once
	stopChan chan struct{}
}

// New starts tailing pathname from the position described by opts and
// returns the running LogStream. wg is notified (via wg.Done) when the
// underlying goroutine exits.
func New(ctx context.Context, wg *sync.WaitGroup, wk waker.Waker, pathname string, sink Sink, opts Options) (LogStream, error) {
	fi, err := os.Stat(pathname)
	if err != nil {
		return nil, err
	}
	fs := &fileStream{
		ctx:          ctx,
		pathname:     pathname,
		sink:         sink,
		lastReadTime: time.Now(),
		stopChan:     make(chan struct{}),
	}
	if err := fs.run(wg, wk, fi, opts); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *fileStream) LastReadTime() time.Time {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.lastReadTime
}

func (fs *fileStream) IsComplete() bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.completed
}

func (fs *fileStream) Stop() {
	fs.stopOnce.Do(func() { close(fs.stopChan) })
}

func (fs *fileStream) markComplete() {
	fs.mu.Lock()
	fs.completed = true
	fs.mu.Unlock()
}

func (fs *fileStream) touch() {
	fs.mu.Lock()
	fs.lastReadTime = time.Now()
	fs.mu.Unlock()
}

func (fs *fileStream) run(wg *sync.WaitGroup, wk waker.Waker, fi os.FileInfo, opts Options) error {
	fd, err := os.OpenFile(fs.pathname, os.O_RDONLY, 0o600)
	if err != nil {
		logErrors.Add(fs.pathname, 1)
		return err
	}
	logOpens.Add(fs.pathname, 1)

	switch {
	case opts.StartOffset > 0:
		if _, err := fd.Seek(opts.StartOffset, io.SeekStart); err != nil {
			fd.Close()
			return err
		}
	case !opts.FromBeginning:
		if _, err := fd.Seek(0, io.SeekEnd); err != nil {
			fd.Close()
			return err
		}
	}

	identity := fileIdentity(fi)
	generation := opts.StartGeneration
	started := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			fd.Close()
			logCloses.Add(fs.pathname, 1)
		}()
		close(started)

		b := make([]byte, defaultReadBufferSize)
		partial := bytes.NewBufferString("")
		var offsetBase int64
		readBackoff := &backoff.Backoff{Min: 50 * time.Millisecond, Max: 30 * time.Second, Factor: 2, Jitter: true}

		if opts.StartOffset > 0 {
			offsetBase = opts.StartOffset
		} else if !opts.FromBeginning {
			if cur, err := fd.Seek(0, io.SeekCurrent); err == nil {
				offsetBase = cur
			}
		}

		for {
			count, rerr := fd.Read(b)
			if count > 0 {
				offsetBase += decodeAndSend(fs.sink, fs.pathname, identity, generation, offsetBase, count, b[:count], partial)
				fs.touch()
				readBackoff.Reset()
			}

			if rerr != nil && rerr != io.EOF {
				logErrors.Add(fs.pathname, 1)
				fsLog.WithError(rerr).Warn("transient read error, retrying")
				time.Sleep(readBackoff.Duration())
				continue
			}

			if rerr == io.EOF && count == 0 {
				newfi, serr := os.Stat(fs.pathname)
				if serr != nil {
					if os.IsNotExist(serr) {
						if partial.Len() > 0 {
							sendLine(fs.sink, fs.pathname, identity, generation, offsetBase, partial)
						}
						fs.markComplete()
						return
					}
					logErrors.Add(fs.pathname, 1)
					goto sleep
				}

				if !os.SameFile(fi, newfi) {
					// Rotation: the old handle is already drained to EOF.
					// Any undecoded partial line is dropped, matching the
					// assumption (§8) that lines complete before rotation.
					fd.Close()
					logCloses.Add(fs.pathname, 1)
					nfd, operr := os.OpenFile(fs.pathname, os.O_RDONLY, 0o600)
					if operr != nil {
						logErrors.Add(fs.pathname, 1)
						fsLog.WithError(operr).Warn("reopen after rotation failed")
						goto sleep
					}
					logOpens.Add(fs.pathname, 1)
					fd = nfd
					fi = newfi
					identity = fileIdentity(newfi)
					generation++
					offsetBase = 0
					partial.Reset()
					continue
				}

				currentOffset, serr := fd.Seek(0, io.SeekCurrent)
				if serr != nil {
					logErrors.Add(fs.pathname, 1)
					goto sleep
				}
				if newfi.Size() < currentOffset {
					if partial.Len() > 0 {
						sendLine(fs.sink, fs.pathname, identity, generation, currentOffset, partial)
					}
					if _, serr := fd.Seek(0, io.SeekStart); serr != nil {
						logErrors.Add(fs.pathname, 1)
					}
					fileTruncates.Add(fs.pathname, 1)
					offsetBase = 0
					continue
				}
			}

			if rerr == nil {
				continue
			}

		sleep:
			select {
			case <-fs.stopChan:
				if partial.Len() > 0 {
					sendLine(fs.sink, fs.pathname, identity, generation, offsetBase, partial)
				}
				fs.markComplete()
				return
			case <-fs.ctx.Done():
				if partial.Len() > 0 {
					sendLine(fs.sink, fs.pathname, identity, generation, offsetBase, partial)
				}
				fs.markComplete()
				return
			case <-wk.Wake():
			}
		}
	}()

	<-started
	return nil
}
