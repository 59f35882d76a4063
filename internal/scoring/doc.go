// Package scoring assigns relevance scores and summaries to articles.
//
// Scoring is hybrid. The language model only names which of the reader's
// interest topics an article is about, judges its quality, and writes a short
// summary. The numeric score is then computed here from the number of matched
// tags and the quality label:
//
//	0 tags  -> 1..3
//	1 tag   -> 4..6
//	2 tags  -> 6..8
//	3+ tags -> 8..10
//
// Low quality takes the floor of the band, medium the midpoint, high the
// ceiling. Articles the model flags as dominated by an excluded topic take the
// 0-tag band with no tags. A score of 0 is reserved for degraded results,
// produced when the model times out or keeps returning unusable output.
package scoring
