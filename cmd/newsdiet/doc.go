// Command newsdiet runs the news ingestion daemon and manages its feeds,
// articles, and preferences.
//
// Commands that change data talk to a running daemon over its Unix socket.
// When no daemon answers they open the database directly, so the CLI works
// the same before the first `newsdiet run`.
package main
