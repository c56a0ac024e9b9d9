// Package logsink records processed commands as text lines for a human
// watching the server, either on a dedicated TCP log viewer or on stderr.
package logsink
