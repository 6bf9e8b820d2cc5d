// Package clientip resolves the client IP address of an HTTP request and
// carries it through the request context, so rate limiting and request logs
// can use it.
package clientip
