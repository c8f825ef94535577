// Package app provides the main application logic for fetching URLs.
// It initializes the necessary components, such as the identity store,
// debug recorder and fetcher, and orchestrates the fetch process with
// cookie persistence around the run.
package app
