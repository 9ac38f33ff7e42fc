// Package config assembles the explicit configuration object for a decision
// run.
//
// A Config is built exactly once at process start from two sources: the
// process environment (optionally seeded from a .env file through godotenv)
// and a YAML parameters file describing the trigger. It is then passed by
// value into the builder, morpher and target filters, none of which read the
// environment themselves.
package config
