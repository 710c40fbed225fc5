// Package history saves finished translations per user in a SQLite
// database and exports them as YAML.
package history
