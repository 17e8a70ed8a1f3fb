// Package config loads and validates the seqmart configuration.
//
// Settings resolve with the precedence call-site flag > SEQMART_* environment
// variable > config file > built-in default, and the resulting Config is
// immutable for the life of the process.
package config
