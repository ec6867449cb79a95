// Package client is a generic JSON API client: it classifies HTTP
// statuses into typed errors, decodes responses that may or may not be
// wrapped in a {status, message, data} envelope, pins TLS certificates
// or public keys, and handles raw, multipart and streaming transfers.
//
// # Building a Client
//
// Use [Build] with functional options:
//
//	c, err := client.Build(
//		client.WithBaseURL("https://api.example.com"),
//		client.WithTimeout(10 * time.Second),
//		client.WithPublicKeyPins("R3vE2…base64…="),
//	)
//
// Pinning material is loaded by Build; a bad pin file or hash fails
// Build rather than silently disabling pinning.
//
// # Making Requests
//
// Describe the call with an [Endpoint] and execute it with [Request]:
//
//	env, err := client.Request[[]User](ctx, c, client.Endpoint{
//		Path:   "/users",
//		Method: client.MethodGet,
//		Query:  []client.QueryParam{{Name: "name", Value: "ada"}},
//	})
//	if errors.Is(err, client.ErrNotFound) { ... }
//	users, err := env.Value()
//
// # Uploads
//
// [Upload] sends a raw body, [UploadMultipart] a multipart/form-data
// [Form]. [UploadMultipartWithProgress] reports progress through the
// dispatcher set with [WithProgressDispatcher]; [StartUploadMultipart]
// exposes it as a channel instead.
//
// # Downloading Files
//
// [Client.Download] streams a body to disk and atomically replaces the
// destination:
//
//	path, err := c.Download(ctx, "https://example.com/file.bin", "/tmp/file.bin",
//		client.WithChecksum(sha256.New(), expectedHex),
//	)
//
// [Client.DownloadAsync] runs downloads in the background; with
// [WithBatch] further files can be queued via [download.Result.Add]:
//
//	r, err := c.DownloadAsync(ctx, urlA, "/tmp/a.bin", client.WithBatch(4))
//	r.Add(ctx, urlB, "/tmp/b.bin")
//	err = r.Wait()
//
// # Backends
//
// Requests run on [net/http] by default. [WithBackend] with
// [BackendResty] runs them through resty on the same transport chain,
// so pinning, throttling and the User-Agent apply to both.
package client
