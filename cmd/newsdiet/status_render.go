package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-isatty"

	"newsdiet/internal/daemonctl"
	"newsdiet/internal/ingest"
	"newsdiet/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 18
	statusIndent     = "  "
)

func renderStatus(out io.Writer, snapshot daemonctl.Snapshot, colorize bool) {
	section(out, "Daemon", colorize)
	if snapshot.Running {
		fmt.Fprintln(out, renderStatusLine("newsdiet", statusOK, fmt.Sprintf("Running (pid %d)", snapshot.PID), colorize))
		if snapshot.APIBind != "" {
			fmt.Fprintln(out, renderStatusLine("Admin API", statusInfo, "http://"+snapshot.APIBind, colorize))
		}
	} else {
		fmt.Fprintln(out, renderStatusLine("newsdiet", statusWarn, "Not running (start with `newsdiet run`)", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Model", statusInfo, snapshot.Model, colorize))
	fmt.Fprintln(out, renderStatusLine("Database", statusInfo, snapshot.DatabasePath, colorize))
	fmt.Fprintln(out)

	if snapshot.Reachable {
		section(out, "Ingestion", colorize)
		for _, line := range ingestLines(snapshot.Ingest, colorize) {
			fmt.Fprintln(out, line)
		}
		for _, entry := range snapshot.Schedule {
			detail := entry.Spec
			if !entry.Next.IsZero() {
				detail += ", next " + entry.Next.Local().Format(time.DateTime)
			}
			fmt.Fprintln(out, renderStatusLine("Job "+entry.Name, statusInfo, detail, colorize))
		}
		fmt.Fprintln(out)
	}

	section(out, "Library", colorize)
	stats := snapshot.Stats
	rows := [][]string{
		{"Feeds", strconv.Itoa(stats.Feeds)},
		{"Enabled feeds", strconv.Itoa(stats.EnabledFeeds)},
		{"Failing feeds", strconv.Itoa(stats.FailingFeeds)},
		{"Articles", strconv.Itoa(stats.Articles)},
		{"Unread", strconv.Itoa(stats.Unread)},
		{"Starred", strconv.Itoa(stats.Starred)},
		{"Hidden", strconv.Itoa(stats.Hidden)},
		{"Degraded", strconv.Itoa(stats.Degraded)},
	}
	fmt.Fprint(out, renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintln(out)

	if len(snapshot.Checks) > 0 {
		fmt.Fprintln(out)
		section(out, "Checks", colorize)
		for _, line := range checkLines(snapshot.Checks, colorize) {
			fmt.Fprintln(out, line)
		}
	}
}

func ingestLines(status ingest.Status, colorize bool) []string {
	lines := make([]string, 0, 3)
	switch status.State {
	case ingest.StateIdle:
		lines = append(lines, renderStatusLine("State", statusOK, "Idle", colorize))
	default:
		detail := capitalize(string(status.State))
		if !status.StartedAt.IsZero() {
			detail += " since " + status.StartedAt.Local().Format(time.TimeOnly)
		}
		lines = append(lines, renderStatusLine("State", statusInfo, detail, colorize))
	}
	if report := status.LastReport; report != nil {
		totals := report.Totals()
		kind := statusOK
		if totals.FailedFeeds > 0 || report.Error != "" {
			kind = statusWarn
		}
		detail := fmt.Sprintf("%s: %d new, %d failed feeds", report.Finished.Local().Format(time.DateTime), totals.NewArticles, totals.FailedFeeds)
		lines = append(lines, renderStatusLine("Last cycle", kind, detail, colorize))
	}
	if status.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, status.LastError, colorize))
	}
	return lines
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, result := range results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	return lines
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func section(out io.Writer, title string, colorize bool) {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	fmt.Fprintln(out, line)
	fmt.Fprintln(out, rule)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// truncate shortens s to at most limit runes, marking the cut with "...".
func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}
