// Package shutdown coordinates graceful process termination.
//
// Components register cleanup hooks; on SIGINT or SIGTERM the hooks
// run in reverse registration order under a shared timeout, so the
// outermost surface (HTTP) drains before the layers beneath it close.
package shutdown
