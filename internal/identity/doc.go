// Package identity loads candidate user agents and proxy URLs from
// line-oriented sources and hands out (user agent, proxy URL) pairs
// used to vary the network identity of outbound requests.
package identity
