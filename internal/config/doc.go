// Package config loads the server configuration from a file and the
// environment. Files may be YAML, JSON or TOML; every format is decoded into
// a generic map first so one mapstructure pass applies the same weak typing
// and duration parsing to all of them, and to TIPTOE_* variables.
package config
