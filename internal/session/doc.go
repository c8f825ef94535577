// Package session implements a mutable HTTP session bound to one network identity:
// default headers, a cookie jar, an optional proxy and a per-attempt timeout.
// A session client is a single-owner value; it is not safe for concurrent use
// without external locking.
package session
