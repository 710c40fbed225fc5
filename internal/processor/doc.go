// Package processor contains the core logic behind the jembatan command.
// It resolves the provider and API key, runs translations through the
// handler, prints results, and backs the settings, history, providers and
// serve subcommands. It is the coordinator between all other components.
package processor
