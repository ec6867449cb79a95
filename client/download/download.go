package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Handle streams body to a temp file beside destPath, then renames it
// over destPath, replacing any existing file. Missing parent
// directories are created. On any error the temp file is removed and
// destPath is left untouched.
//
// Filesystem failures wrap [ErrSaveFailed]; a cancelled ctx wraps
// [ErrDownloadCancelled].
func Handle(ctx context.Context, body io.Reader, contentLength int64, destPath string, logger *slog.Logger, optFns ...Option) error {
	opts, err := applyOptions(optFns)
	if err != nil {
		return fmt.Errorf("applying option: %w", err)
	}

	if opts.skipExisting && exists(destPath) {
		logger.Info("skipping existing file", "path", destPath)
		return nil
	}

	staged, err := stage(destPath, logger)
	if err != nil {
		return err
	}
	defer staged.discard()

	var sink io.Writer = saveWriter{w: staged.f}
	if opts.checksum != nil {
		sink = io.MultiWriter(sink, opts.checksum)
	}
	if opts.progress {
		sink = newProgressWriter(sink, logger.With("path", destPath), contentLength)
	}

	if err := copyBody(ctx, sink, body, contentLength); err != nil {
		return err
	}
	if err := opts.checksum.verify(); err != nil {
		return err
	}

	return staged.commit(destPath)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// copyBody copies body into w and checks the byte count against
// contentLength when it is known.
func copyBody(ctx context.Context, w io.Writer, body io.Reader, contentLength int64) error {
	n, err := io.Copy(w, &contextReader{ctx: ctx, r: body})
	switch {
	case err == nil:
	case errors.Is(err, ErrSaveFailed):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrDownloadCancelled, err)
	default:
		return fmt.Errorf("copying file body: %w", err)
	}

	if contentLength >= 0 && n != contentLength {
		return &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", contentLength, n),
		}
	}

	return nil
}

// stagedFile is a temp file that either replaces its destination on
// commit or is removed by discard.
type stagedFile struct {
	f         *os.File
	logger    *slog.Logger
	committed bool
}

func stage(destPath string, logger *slog.Logger) (*stagedFile, error) {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating directory: %w", ErrSaveFailed, err)
	}

	f, err := os.CreateTemp(dir, ".apiclient-dl-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp file: %w", ErrSaveFailed, err)
	}

	return &stagedFile{f: f, logger: logger}, nil
}

func (s *stagedFile) commit(destPath string) error {
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("%w: syncing temp file: %w", ErrSaveFailed, err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("%w: closing temp file: %w", ErrSaveFailed, err)
	}
	if err := os.Rename(s.f.Name(), destPath); err != nil {
		return fmt.Errorf("%w: replacing destination: %w", ErrSaveFailed, err)
	}
	s.committed = true

	return nil
}

// discard is a no-op after a successful commit.
func (s *stagedFile) discard() {
	if s.committed {
		return
	}
	if err := s.f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		s.logger.Error("closing temp file", "path", s.f.Name(), "error", err)
	}
	if err := os.Remove(s.f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("removing temp file", "path", s.f.Name(), "error", err)
	}
}
