// Package httpserver runs the gallery shell server with graceful shutdown
// bound to a context, plus a liveness/readiness handler for storage backends.
package httpserver
