package scoring

import "newsdiet/internal/store"

// DegradedScore is assigned when the model could not produce an assessment.
const DegradedScore = 0

type band struct {
	floor, ceiling int
}

var bands = [...]band{
	{1, 3},
	{4, 6},
	{6, 8},
	{8, 10},
}

func bandFor(tagCount int) band {
	return bands[min(max(tagCount, 0), len(bands)-1)]
}

// Compute maps a tag count and quality label to a score. Excluded articles
// use the 0-tag band regardless of tagCount.
func Compute(tagCount int, quality string, excluded bool) int {
	if excluded {
		tagCount = 0
	}
	b := bandFor(tagCount)
	switch quality {
	case store.QualityHigh:
		return b.ceiling
	case store.QualityMedium:
		return b.floor + (b.ceiling-b.floor)/2
	default:
		return b.floor
	}
}
