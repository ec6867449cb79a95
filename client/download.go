package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/adamwoolhether/apiclient/client/download"
)

// Download GETs rawURL and streams the body to destPath, atomically
// replacing any existing file, and returns destPath.
//
// Failures writing or moving the file are [ErrFileSaveFailed]; a body
// that does not match its Content-Length or checksum is
// [ErrInvalidResponse].
func (c *Client) Download(ctx context.Context, rawURL, destPath string, opts ...DownloadOption) (_ string, err error) {
	if destPath == "" {
		return "", newError(ErrInvalidRequest, errors.New("destination path must not be empty"))
	}

	if _, err := download.QueueFor(opts...); err != nil {
		return "", newError(ErrInvalidRequest, err)
	}

	u, err := parseURL(rawURL)
	if err != nil {
		return "", err
	}

	skip, err := download.Skip(destPath, opts...)
	if err != nil {
		return "", newError(ErrInvalidRequest, err)
	}
	if skip {
		c.logger.Info("skipping existing file", "path", destPath)
		return destPath, nil
	}

	ctx, span := c.startSpan(ctx, "download", http.MethodGet, u)
	defer func() { endSpan(span, err) }()

	req, err := c.newRequest(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return "", err
	}
	c.logRequest(req, nil)

	err = c.exec(req, func(resp *http.Response) error {
		if err := download.Handle(req.Context(), resp.Body, resp.ContentLength, destPath, c.logger, opts...); err != nil {
			return downloadError(err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return destPath, nil
}

// DownloadAsync runs [Client.Download] on a new goroutine. Use
// [WithBatch] to bound concurrency and [download.Result.Add] to queue
// more files in the same batch.
func (c *Client) DownloadAsync(ctx context.Context, rawURL, destPath string, opts ...DownloadOption) (*DownloadResult, error) {
	if destPath == "" {
		return nil, newError(ErrInvalidRequest, errors.New("destination path must not be empty"))
	}

	if _, err := parseURL(rawURL); err != nil {
		return nil, err
	}

	q, err := download.QueueFor(opts...)
	if err != nil {
		return nil, newError(ErrInvalidRequest, err)
	}

	work := func(ctx context.Context) error {
		_, err := c.Download(ctx, rawURL, destPath, opts...)
		return err
	}

	return q.Start(ctx, work, c.DownloadAsync), nil
}

func downloadError(err error) error {
	switch {
	case errors.Is(err, download.ErrSaveFailed):
		return newError(ErrFileSaveFailed, err)
	case errors.Is(err, download.ErrContentLengthMismatch), errors.Is(err, download.ErrChecksumMismatch):
		return newError(ErrInvalidResponse, err)
	default:
		return newError(ErrRequestFailed, err)
	}
}
