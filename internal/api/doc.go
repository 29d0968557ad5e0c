// Package api is the typed client for the storefront REST backend.
//
// Every call is JSON over HTTP with a cookie jar carrying the session. State
// changing cart and order calls send an Idempotency-Key header, taken from
// idgen.KeyFrom(ctx) when the caller attached one and generated otherwise;
// the key is reused across retries of the same call.
//
// # Retries
//
// Requests that are safe to repeat (GET, DELETE, read-only POSTs and keyed
// requests) are retried on network errors, 429 and 5xx with exponential
// backoff. 4xx responses are never retried.
//
// # Errors
//
// Failures are returned as *Error with a Kind. A response whose body carries
// the INVALID_TOKEN code also fires the handler registered with
// OnInvalidToken before the error is returned.
package api
