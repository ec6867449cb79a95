package client

import (
	"hash"

	"github.com/adamwoolhether/apiclient/client/download"
)

// Download types re-exported from [download].

type (
	// DownloadOption configures [Client.Download] and [Client.DownloadAsync].
	DownloadOption = download.Option

	// DownloadResult represents an in-flight or completed async download.
	DownloadResult = download.Result
)

// Download options.

// WithChecksum checks the body against expected, the hex digest h
// should yield. A malformed digest fails with [ErrInvalidRequest]; a
// mismatch fails with [ErrInvalidResponse].
func WithChecksum(h hash.Hash, expected string) DownloadOption {
	return download.WithChecksum(h, expected)
}

// WithProgress logs how far a download has got.
func WithProgress() DownloadOption { return download.WithProgress() }

// WithSkipExisting leaves an existing destination file untouched.
func WithSkipExisting() DownloadOption { return download.WithSkipExisting() }

// WithBatch starts a batch from [Client.DownloadAsync]; further
// downloads join it through [DownloadResult.Add]. At most maxConcurrent
// run at once, or any number when maxConcurrent <= 0.
func WithBatch(maxConcurrent int) DownloadOption { return download.WithBatch(maxConcurrent) }
