package lyrics

import (
	"regexp"
	"strings"
)

// Thresholds for AnalyzeSyncQuality. Blocks outside this range are
// treated as timing problems in the source data.
const (
	longBlockMs    int64 = 10000
	shortBlockMs   int64 = 1000
	problemRatioHi       = 0.2
)

// AnalyzeSyncQuality grades a parsed block sequence. A sequence where
// fewer than 20% of blocks are suspiciously long or short is considered
// trustworthy enough to sync against directly.
func AnalyzeSyncQuality(blocks []Block) Quality {
	if len(blocks) == 0 {
		return QualityNotFound
	}
	problems := 0
	for _, b := range blocks {
		if d := b.DurationMs(); d > longBlockMs || d < shortBlockMs {
			problems++
		}
	}
	if float64(problems)/float64(len(blocks)) < problemRatioHi {
		return QualitySyncedHigh
	}
	return QualitySyncedLow
}

// metadataWords mark provider noise lines stripped from plain-text lyrics.
var metadataWords = []string{"contributor", "lyrics", "embed"}

// CleanPlainText strips provider metadata lines (contributor counts,
// "... Lyrics" headers, trailing embed markers) from a plain-text result.
func CleanPlainText(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		drop := false
		for _, w := range metadataWords {
			if strings.Contains(lower, w) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// instrumentalPhrases are explicit provider messages for tracks without vocals.
var instrumentalPhrases = []string{
	"this song is an instrumental",
	"this track is an instrumental",
	"instrumental track",
	"no lyrics available",
	"purely instrumental",
	"instrumental version",
	"instrumental piece",
}

// vocalizations are non-lexical syllables. A result that is mostly these
// is scat or backing vocals, not a lyric sheet.
var vocalizations = map[string]struct{}{
	"la": {}, "da": {}, "dee": {}, "doo": {}, "oh": {}, "ah": {},
	"na": {}, "hey": {}, "mm": {}, "hmm": {}, "yeah": {}, "yo": {},
}

var instrumentalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[a-z\s]{1,20}$`),
	regexp.MustCompile(`^(la\s+){3,}`),
	regexp.MustCompile(`^(da\s+){3,}`),
	regexp.MustCompile(`^(dee\s+){2,}`),
	regexp.MustCompile(`^(doo\s+){2,}`),
	regexp.MustCompile(`^(oh\s+){3,}`),
	regexp.MustCompile(`^(ah\s+){3,}`),
	regexp.MustCompile(`^(na\s+){3,}`),
	regexp.MustCompile(`^(hey\s+){3,}`),
}

// IsInstrumentalContent decides whether fetched lyric text is a false
// positive for an instrumental track: near-empty results, explicit
// provider phrases, text dominated by vocalization syllables, or very
// short highly repetitive text.
func IsInstrumentalContent(text string) bool {
	if len(strings.TrimSpace(text)) < 5 {
		return true
	}
	clean := strings.ToLower(strings.TrimSpace(text))

	for _, phrase := range instrumentalPhrases {
		if strings.Contains(clean, phrase) {
			return true
		}
	}

	words := strings.Fields(clean)
	if len(words) > 0 {
		hits := 0
		for _, w := range words {
			if _, ok := vocalizations[w]; ok {
				hits++
			}
		}
		ratio := float64(hits) / float64(len(words))
		if (len(words) < 15 && ratio >= 0.7) || ratio > 0.8 {
			return true
		}
	}

	for _, re := range instrumentalPatterns {
		if re.MatchString(clean) {
			return true
		}
	}

	if len(clean) < 50 && len(words) > 6 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		if len(unique) <= 3 {
			return true
		}
	}

	return false
}

// titleKeywords identify tracks that are instrumental by name alone.
// Used only when no lyric content exists at all.
var titleKeywords = []string{
	"instrumental", "interlude", "outro", "intro", "reprise",
	"theme", "overture", "suite", "movement", "concerto",
}

// IsInstrumentalTitle reports whether the track title names an
// instrumental piece.
func IsInstrumentalTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range titleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
