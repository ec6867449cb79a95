// Package download saves response bodies to disk without ever leaving
// a partial file at the destination.
//
// [Handle] stages the body in a hidden temp file in the destination's
// directory, creating the directory if needed, and renames it into
// place only after the length and any checksum check out:
//
//	err := download.Handle(ctx, resp.Body, resp.ContentLength, "out/file.tar.gz", logger,
//		download.WithChecksum(sha256.New(), wantHex),
//		download.WithProgress(),
//	)
//
// Write failures wrap [ErrSaveFailed] so callers can tell a full disk
// from a dropped connection.
//
// [Queue] runs downloads in the background with an optional limit on
// how many run at once; each one reports through its own [Result].
//
// Most callers want
// [github.com/adamwoolhether/apiclient/client.Client.Download] instead.
package download
