// Package logs reads daemon log files for the CLI.
//
// Last returns the trailing lines of a file with bounded memory and Follow
// polls for appended lines, reopening the path on every poll so it keeps
// working when a restarted daemon repoints the newsdietd.log link at a new
// file.
package logs
