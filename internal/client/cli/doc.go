// Package cli provides the medialog command-line client.
//
// Every command runs against a services.DataService, so the same command
// works online, offline (falling back to the local cache and queueing the
// write) and in local-only mode. The `shell` command keeps one App open,
// watches connectivity in the background, drains the sync queue
// periodically and reads further commands from stdin.
package cli
