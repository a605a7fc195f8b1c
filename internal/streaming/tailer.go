package streaming

import (
	"bytes"
	"context"
	"io"
	"os"
	"regexp"
	"time"

	"haulmon/internal/log"
)

const (
	// How far back into an existing log the tailer seeks on startup.
	DefaultBacklogBytes = 5 * 1024 * 1024
	// Backlog lines older than this are skipped during catch-up.
	DefaultCatchupWindow = 12 * time.Hour
	// Idle wait between reads once the tail is live.
	DefaultPollInterval = 500 * time.Millisecond
)

var lineTimestampRe = regexp.MustCompile(`^<(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})`)

// LineHandler receives each complete log line, catch-up and live alike.
type LineHandler func(line string)

// Tailer follows a game log file: it seeks near the end, replays the recent
// backlog to rebuild state, then polls for appended lines. The game holds
// the file open for the whole session, so no rotation handling is needed.
type Tailer struct {
	path          string
	backlogBytes  int64
	catchupWindow time.Duration
	pollInterval  time.Duration
	handler       LineHandler
}

// NewTailer creates a tailer for path delivering lines to handler.
func NewTailer(path string, handler LineHandler) *Tailer {
	return &Tailer{
		path:          path,
		backlogBytes:  DefaultBacklogBytes,
		catchupWindow: DefaultCatchupWindow,
		pollInterval:  DefaultPollInterval,
		handler:       handler,
	}
}

// SetBacklog adjusts how much history is replayed and the age cutoff.
func (t *Tailer) SetBacklog(maxBytes int64, window time.Duration) {
	t.backlogBytes = maxBytes
	t.catchupWindow = window
}

// SetPollInterval adjusts the idle wait at end of file.
func (t *Tailer) SetPollInterval(d time.Duration) {
	t.pollInterval = d
}

// Run tails the file until ctx is cancelled. A missing file is not an
// error: the monitor is often started before the game, so it logs a
// warning and returns nil.
func (t *Tailer) Run(ctx context.Context) error {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("log file not found", "path", t.path)
			return nil
		}
		return err
	}
	defer f.Close()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	start := size - t.backlogBytes
	if start < 0 {
		start = 0
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return err
	}
	log.Info("monitoring log", "path", t.path, "backlog_bytes", size-start)

	cutoff := time.Now().UTC().Add(-t.catchupWindow)
	catchingUp := true
	var pending []byte
	buf := make([]byte, 64*1024)

	for {
		n, err := f.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for {
				i := bytes.IndexByte(pending, '\n')
				if i < 0 {
					break
				}
				line := string(pending[:i])
				pending = pending[i+1:]
				if catchingUp && t.tooOld(line, cutoff) {
					continue
				}
				t.handler(line)
			}
			continue
		}
		if err != nil && err != io.EOF {
			return err
		}
		if catchingUp {
			catchingUp = false
			log.Info("caught up, tailing live")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.pollInterval):
		}
	}
}

// tooOld reports whether a backlog line carries a timestamp older than the
// cutoff. Lines without a parseable timestamp are kept.
func (t *Tailer) tooOld(line string, cutoff time.Time) bool {
	m := lineTimestampRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	ts, err := time.Parse("2006-01-02T15:04:05", m[1])
	if err != nil {
		return false
	}
	return ts.Before(cutoff)
}
