// Package preflight provides readiness checks for the paths and services
// newsdiet depends on.
//
// These checks run in two contexts:
//   - The CLI "newsdiet check" command runs RunAll and prints every result.
//   - The daemon runs RunAll at startup and logs failures as warnings; a
//     missing model server degrades scoring but does not stop ingestion.
//
// Optional services are only checked when they are enabled.
package preflight
