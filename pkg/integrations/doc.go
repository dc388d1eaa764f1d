// Package integrations provides the HTTP layer for package index clients.
//
// # Client Pattern
//
// Index clients embed [Client] and wrap each request in [Client.Cached]:
//
//	c := simple.NewClient(backend, "https://pypi.org/simple", true, time.Hour)
//	project, err := c.FetchProject(ctx, "numpy", false) // false = use cache
//
// [Client] handles:
//   - default headers and per-request overrides
//   - classification of responses into [ErrNotFound] and [ErrNetwork]
//   - retries of transient failures (5xx, 429, connection errors) with
//     exponential backoff, honouring Retry-After
//   - response caching through any [cache.Cache] backend
//
// Sources declared with verify_ssl = false get a client built with
// [WithInsecureTLS].
//
// [cache.Cache]: github.com/matzehuels/pipspec/pkg/cache.Cache
package integrations
