// Package fetcher orchestrates resilient fetches on top of session clients:
// it retries transport failures with randomized pauses, optionally rotates
// the network identity between attempts, caches fetched bodies and keeps
// aggregate statistics for the final summary.
package fetcher
