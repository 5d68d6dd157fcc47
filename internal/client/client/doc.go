// Package client talks to the agenda REST API on behalf of the CLI.
//
// RESTClient keeps the session token returned by Login and sends it as a
// bearer credential on protected calls. Transport failures surface as
// ErrUnavailable, 401/403 answers as ErrUnauthorized, and every other
// non-2xx answer as an *APIError carrying the server's message.
package client
