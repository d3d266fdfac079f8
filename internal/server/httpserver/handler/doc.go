// Package handler implements the HTTP endpoints of the token API.
//
// Handlers parse the request, call the token service, and translate
// domain errors into HTTP status codes. Authentication is done before
// the handlers run; each handler reads the caller from the request
// context.
package handler
