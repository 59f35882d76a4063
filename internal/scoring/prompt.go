package scoring

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const systemPrompt = `You tag news articles for one reader and summarize them.
Respond with a single JSON object and nothing else:
{"matched_tags": ["..."], "quality": "low|medium|high", "summary": "...", "excluded": false}
Rules:
- matched_tags may only contain topics from the reader's interest list, copied exactly.
- Tag a topic only when it is a primary focus of the article, not a passing mention. Most articles match zero or one topic.
- quality rates depth and substance: low, medium, or high.
- summary has 3 to 4 informative sentences in the same language as the article, with no preamble.
- excluded is true when the article is mainly about one of the topics to avoid.`

// Request is the input for one model assessment.
type Request struct {
	Title     string
	Text      string
	Interests []string
	Excludes  []string
}

func buildUserPrompt(req Request, maxChars int) string {
	interests := "general tech news"
	if len(req.Interests) > 0 {
		interests = strings.Join(req.Interests, ", ")
	}
	excludes := "none"
	if len(req.Excludes) > 0 {
		excludes = strings.Join(req.Excludes, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Reader interests: %s\n", interests)
	fmt.Fprintf(&b, "Topics to avoid: %s\n\n", excludes)
	fmt.Fprintf(&b, "Title: %s\n", strings.TrimSpace(req.Title))
	fmt.Fprintf(&b, "Content: %s\n", truncateRunes(strings.TrimSpace(req.Text), maxChars))
	return b.String()
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
