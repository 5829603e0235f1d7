// Package transport is a small JSON API client for the gallery backend.
//
// Client resolves request paths against a base URL, encodes bodies as JSON,
// injects the bearer token from a TokenSource and returns *StatusError for
// non-2xx responses. Idempotent requests are retried with exponential
// backoff on network errors, 5xx and 429. The HTTP client comes from
// go-cleanhttp, so no global transport state is shared.
//
//	api, err := transport.NewFromConfig(cfg, transport.WithTokenSource(store))
//	if err != nil {
//		return err
//	}
//	contest, err := transport.Get[Contest](ctx, api, "contests/42", transport.RequestOptions{})
//
// Timeouts are applied per attempt; callers that share a request (the query
// cache) therefore never need to cancel it themselves.
package transport
