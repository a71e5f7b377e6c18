// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware keeps a client supplied X-Request-ID when it is well formed and
// generates one otherwise. The id is available through FromContext/Lookup,
// is echoed in the response header, and LoggerExtractor plugs it into
// pkg/logger so every record carries request_id. Audit records pick it up
// through the same Lookup function.
package requestid
