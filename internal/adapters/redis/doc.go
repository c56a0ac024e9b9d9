// Package redis records processed commands in a capped Redis list, so other
// tools can follow navigation activity without connecting to the server.
package redis
