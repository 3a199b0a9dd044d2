package memory

import (
	"hash/fnv"
	"strings"
	"sync"
)

const fingerprintPrefix = 100

var fillerPhrases = []string{
	"i don't have enough information",
	"i don't know enough",
	"i cannot determine",
	"it's unclear from the information",
	"based on the image provided",
	"without more context",
}

var lowValueApps = map[string]struct{}{
	"system preferences": {},
	"settings":           {},
	"file explorer":      {},
	"finder":             {},
}

var actionableIndicators = []string{
	"should", "could", "might want to", "try", "consider",
	"important", "deadline", "remember", "key", "critical",
}

// ContentFilter is the fast local gate applied before any scoring or store
// work. It keeps a bounded FIFO of recent content fingerprints for
// approximate duplicate suppression; the cache has its own lock because it
// is consulted before any store transaction begins.
type ContentFilter struct {
	mu       sync.Mutex
	capacity int
	order    []uint64
	seen     map[uint64]struct{}
}

func NewContentFilter(capacity int) *ContentFilter {
	if capacity <= 0 {
		capacity = 100
	}
	return &ContentFilter{
		capacity: capacity,
		seen:     make(map[uint64]struct{}, capacity),
	}
}

// ShouldAccept applies the intake rules in order; the first match decides.
// The fingerprint is recorded as soon as the duplicate check passes, so a
// later phrase or length rejection still counts as "seen".
func (f *ContentFilter) ShouldAccept(content, appName string) bool {
	if f.isDuplicate(content) {
		return false
	}
	return quickRelevanceCheck(content, appName)
}

func (f *ContentFilter) isDuplicate(content string) bool {
	fp := fingerprint(content)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[fp]; ok {
		return true
	}

	f.seen[fp] = struct{}{}
	f.order = append(f.order, fp)
	if len(f.order) > f.capacity {
		oldest := f.order[0]
		f.order = f.order[1:]
		delete(f.seen, oldest)
	}
	return false
}

// quickRelevanceCheck runs locally, without store access or API calls.
func quickRelevanceCheck(content, appName string) bool {
	length := len([]rune(content))

	// Very short insights rarely carry value.
	if length < 15 {
		return false
	}

	lower := strings.ToLower(content)
	for _, phrase := range fillerPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}

	// Known low-value app contexts get a higher bar.
	if appName != "" {
		if _, ok := lowValueApps[strings.ToLower(appName)]; ok {
			return length > 50
		}
	}

	for _, indicator := range actionableIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return length > 30
}

// fingerprint hashes the first 100 characters for approximate matching.
func fingerprint(content string) uint64 {
	runes := []rune(content)
	if len(runes) > fingerprintPrefix {
		runes = runes[:fingerprintPrefix]
	}
	h := fnv.New64a()
	h.Write([]byte(string(runes)))
	return h.Sum64()
}
