package memory

import (
	"regexp"
	"sort"
	"strings"
)

const phraseBoost = 5

var stopwords = map[string]struct{}{
	"the": {}, "be": {}, "to": {}, "of": {}, "and": {}, "a": {}, "in": {},
	"that": {}, "have": {}, "i": {}, "it": {}, "for": {}, "not": {}, "on": {},
	"with": {}, "he": {}, "as": {}, "you": {}, "do": {}, "at": {}, "this": {},
	"but": {}, "his": {}, "by": {}, "from": {}, "they": {}, "we": {}, "say": {},
	"her": {}, "she": {}, "or": {}, "an": {}, "will": {}, "my": {}, "one": {},
	"all": {}, "would": {}, "there": {}, "their": {}, "what": {},
}

var quickStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "by": {},
}

var (
	punctuationRe = regexp.MustCompile(`[^\w\s]`)
	phraseRe      = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\b`)
)

// ExtractTopics extracts up to maxTopics keyword/phrase topics with purely
// local processing. Word frequency and capitalized-phrase detection are
// merged; phrases get a synthetic frequency boost so named entities
// dominate the ranking when present. Ties rank by first occurrence.
func ExtractTopics(text string, maxTopics int) []string {
	if len([]rune(text)) < 20 {
		return nil
	}

	cleaned := punctuationRe.ReplaceAllString(strings.ToLower(text), "")

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	seq := 0

	for _, word := range strings.Fields(cleaned) {
		if _, stop := stopwords[word]; stop || len(word) <= 2 {
			continue
		}
		if _, ok := counts[word]; !ok {
			firstSeen[word] = seq
			seq++
		}
		counts[word]++
	}

	// Capitalized multi-word sequences from the original-case text.
	for _, match := range phraseRe.FindAllString(text, -1) {
		phrase := strings.ToLower(match)
		if _, ok := counts[phrase]; !ok {
			firstSeen[phrase] = seq
			seq++
		}
		counts[phrase] += phraseBoost
	}

	ranked := make([]string, 0, len(counts))
	for topic := range counts {
		ranked = append(ranked, topic)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return firstSeen[ranked[i]] < firstSeen[ranked[j]]
	})

	if len(ranked) > maxTopics {
		ranked = ranked[:maxTopics]
	}
	return ranked
}

// QuickTopics is the cheap candidate-topic pass used by the scorer and
// context-driven retrieval: distinct non-stopword tokens longer than three
// characters, first-occurrence order, capped at five.
func QuickTopics(text string) []string {
	var topics []string
	seen := make(map[string]struct{})

	for _, word := range strings.Fields(strings.ToLower(text)) {
		if _, stop := quickStopwords[word]; stop || len(word) <= 3 {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		topics = append(topics, word)
		if len(topics) == 5 {
			break
		}
	}
	return topics
}
