// Package apiclient exposes the client builder.
package apiclient

import (
	"github.com/adamwoolhether/apiclient/client"
)

// NewClient instantiates a new *client.Client with the provided options.
// If not specified, the default http.Client and http.Transport are used.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}
