// Package client is the remote API client of medialog.
//
// # Overview
//
// Client is the transport-agnostic contract the data service depends on.
// HTTPClient implements it over the medialog REST API: public listing,
// statistics and dates, plus the admin surface (login/logout/verify and
// entry writes, import/export, clear-all, settings).
//
// # Session
//
// The admin session token lives in a TokenStore (the client database in
// the CLI). On construction the stored token is verified against the
// server; a rejected token is cleared and the client starts as a
// non-admin. Admin operations fail fast with ErrAdminRequired, before any
// network traffic, while the client is not authenticated.
//
// # Error Handling
//
// Transport failures, and requests rejected while the circuit breaker is
// open, are reported as ErrUnavailable. HTTP error responses are returned
// as *APIError, which matches ErrUnauthorized, ErrNotFound, ErrValidation
// or ErrServer through errors.Is.
package client
