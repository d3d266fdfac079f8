// Package httpserver provides the HTTP API for Tokenward.
//
// The router wires stdlib net/http method patterns with a middleware
// chain (request ID, panic recovery, rate limiting, bearer
// authentication). Authentication failures are collapsed into one
// generic 401 so responses never reveal whether the token ID, the
// secret, or the expiry was at fault; missing abilities yield 403.
package httpserver
