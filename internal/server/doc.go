// Package server implements the HTTP server and handlers for the file
// service: health probes, the request gate in front of them, file upload,
// fetch and delete, and the request-id, logging and metrics middleware.
package server
