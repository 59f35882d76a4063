// Package daemon coordinates the long-running newsdiet process.
//
// It wires configuration, the article store, the ingestion orchestrator, the
// job scheduler, and the admin HTTP API into a single lifecycle with
// flock-based locking to prevent multiple instances. At start it makes sure
// the configured model is available, records preflight results for status
// output, and optionally runs a first refresh.
//
// Keep orchestration logic here: ingestion, scoring, and storage live in
// their own packages while the daemon focuses on startup, shutdown, and the
// operations exposed over HTTP and IPC.
package daemon
