package download

import (
	"io"
	"log/slog"
	"time"
)

const (
	// progressSteps is how many milestones a sized download logs.
	progressSteps = 4
	// unsizedStep is the logging interval, in bytes, when the length is unknown.
	unsizedStep = 4 << 20
)

// progressWriter logs each time the copy crosses the next milestone:
// every quarter of the body when its length is known, every
// unsizedStep bytes otherwise.
type progressWriter struct {
	w       io.Writer
	logger  *slog.Logger
	total   int64
	written int64
	next    int64
	started time.Time
}

func newProgressWriter(w io.Writer, logger *slog.Logger, total int64) *progressWriter {
	pw := &progressWriter{w: w, logger: logger, total: total, started: time.Now()}
	pw.next = pw.step()

	return pw
}

func (pw *progressWriter) step() int64 {
	if pw.total > 0 {
		return max(pw.total/progressSteps, 1)
	}

	return unsizedStep
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.written += int64(n)

	if pw.written >= pw.next {
		pw.report()
		for pw.next <= pw.written {
			pw.next += pw.step()
		}
	}

	return n, err
}

func (pw *progressWriter) report() {
	elapsed := time.Since(pw.started)
	attrs := []any{
		"bytes", pw.written,
		"elapsed", elapsed.Round(time.Millisecond),
	}
	if secs := elapsed.Seconds(); secs > 0 {
		attrs = append(attrs, "bytes_per_sec", int64(float64(pw.written)/secs))
	}
	if pw.total > 0 {
		attrs = append(attrs, "total", pw.total, "percent", min(pw.written*100/pw.total, 100))
	}

	pw.logger.Info("download progress", attrs...)
}
