// Package config loads, normalizes, and validates newsdiet configuration.
//
// Configuration lives in a TOML file (default ~/.config/newsdiet/config.toml,
// falling back to ./newsdiet.toml). Missing keys take the values from
// Default; a handful of keys can be overridden through environment variables
// so container deployments can run without a file at all. Load expands
// tilde paths, trims strings, and rejects inconsistent settings such as an
// inference limit above the fetch limit.
//
// Use CreateSample to scaffold a commented configuration file.
package config
