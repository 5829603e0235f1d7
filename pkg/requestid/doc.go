// Package requestid tags shell requests with an id that follows them into
// logs and into the API calls their loaders make.
package requestid
