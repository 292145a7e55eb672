// Package client contains the CLI's building blocks for talking to the
// taskboard server and for keeping a local mirror of its data.
//
// The Client interface is the API contract; HTTPClient implements it over
// the server's JSON endpoints, carrying the session in a cookie jar. Non-2xx
// answers come back as *APIError, which unwraps to the sentinels in package
// common, so callers match with errors.Is. Transport failures wrap
// ErrUnavailable.
//
// InitDatabase opens the SQLite mirror and applies the embedded goose
// migrations.
package client
