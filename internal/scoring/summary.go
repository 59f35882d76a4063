package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const ellipsis = "…"

var preambles = []string{
	"here is a summary",
	"here's a summary",
	"summary:",
	"this article",
	"the article",
}

// preambleColonWindow bounds where the colon ending a preamble may appear.
const preambleColonWindow = 50

// CleanSummary strips a leading preamble such as "Here is a summary:" and
// keeps at most maxSentences sentences.
func CleanSummary(summary string, maxSentences int) string {
	summary = strings.TrimSpace(summary)
	lower := strings.ToLower(summary)
	for _, prefix := range preambles {
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		window := summary
		if len(window) > preambleColonWindow {
			window = window[:preambleColonWindow]
		}
		if idx := strings.IndexByte(window, ':'); idx >= 0 {
			summary = strings.TrimSpace(summary[idx+1:])
		}
		break
	}
	return limitSentences(summary, maxSentences)
}

func limitSentences(text string, maxSentences int) string {
	if maxSentences <= 0 {
		return text
	}
	count := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' && r != '。' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next < len(text) {
			following, _ := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsSpace(following) {
				continue
			}
		}
		count++
		if count == maxSentences {
			return strings.TrimSpace(text[:next])
		}
	}
	return text
}

// Excerpt truncates text to at most limit runes on a word boundary and
// appends an ellipsis when anything was cut.
func Excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:limit])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:-") + ellipsis
}
