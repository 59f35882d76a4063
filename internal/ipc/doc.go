// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships
// the matching client used by the CLI.
//
// Request and response types wrap the api DTOs so the HTTP API and the CLI
// read the same shapes. Errors cross the socket as strings; callers that
// need to tell "not found" from other failures match on the message.
package ipc
