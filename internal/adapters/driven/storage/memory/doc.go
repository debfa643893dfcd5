// Package memory provides in-memory implementations of the native store
// and the config store. They back tests and the CLI when no --db
// directory is given.
package memory
