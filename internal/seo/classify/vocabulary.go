package classify

import "github.com/educationmalaysia/seo-server/pkg/types"

// Known values of the course listing filters. A "{slug}-courses" path is tested
// against these in order; anything unknown is treated as a specialization.
var (
	knownLevels = newVocabulary(
		"pre-university",
		"diploma",
		"under-graduate",
		"post-graduate",
		"post-graduate-diploma",
		"phd",
	)
	knownIntakes = newVocabulary(
		"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december",
	)
	knownStudyModes = newVocabulary(
		"full-time",
		"part-time",
		"online",
		"by-course-work",
	)
)

type vocabulary map[string]struct{}

func newVocabulary(words ...string) vocabulary {
	v := make(vocabulary, len(words))
	for _, w := range words {
		v[w] = struct{}{}
	}
	return v
}

func (v vocabulary) has(word string) bool {
	_, ok := v[word]
	return ok
}

// filterBucket pairs a vocabulary with the filter key it populates
type filterBucket struct {
	key   string
	vocab vocabulary
}

// inferenceOrder is the tie-break order: level, then intake, then study mode.
// Specialization is the open-ended fallback and is never looked up.
var inferenceOrder = []filterBucket{
	{key: types.FilterLevel, vocab: knownLevels},
	{key: types.FilterIntake, vocab: knownIntakes},
	{key: types.FilterStudyMode, vocab: knownStudyModes},
}

// InferCourseFilter maps the slug of a "{slug}-courses" path to a single course filter
func InferCourseFilter(slug string) (key, value string) {
	for _, bucket := range inferenceOrder {
		if bucket.vocab.has(slug) {
			return bucket.key, slug
		}
	}
	return types.FilterSpecialization, slug
}
