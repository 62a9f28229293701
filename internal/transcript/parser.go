// Package transcript parses podcast transcript files into speaker turns
// and splits turns into retrieval chunks.
package transcript

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Turn is a single guest turn from a transcript, with the host question
// that preceded it attached for context.
type Turn struct {
	Speaker           string
	Timestamp         string
	Text              string
	PrecedingQuestion string
	SourceFile        string
}

// Transcript line formats seen in the wild:
//
//	"Shreyas Doshi (00:03:48):"  speaker with timestamp
//	"Adriel Frederick:"          speaker without timestamp
//	"(00:00:48):"                timestamp-only continuation
var (
	speakerWithTimestampRe = regexp.MustCompile(`(?m)^([A-Z][A-Za-z .&\-']{1,49})\s*\((\d{1,2}:\d{2}(?::\d{2})?)\):\s*$`)
	speakerNoTimestampRe   = regexp.MustCompile(`(?m)^([A-Z][A-Za-z .&\-']{1,49}):\s*$`)
	timestampOnlyRe        = regexp.MustCompile(`(?m)^\((\d{1,2}:\d{2}(?::\d{2})?)\):\s*$`)
)

// Words that indicate a captured "name" is actually a sentence.
var sentenceIndicators = toSet(
	"the", "and", "that", "this", "what", "which", "about", "with",
	"for", "from", "into", "just", "yeah", "yes", "well", "okay",
	"really", "very", "good", "great", "nice", "last", "next",
	"piece", "part", "idea", "point", "thing", "question", "answer",
	"so", "but", "or", "if", "when", "how", "why", "where", "who",
	"it", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would",
	"could", "should", "may", "might", "must", "shall", "can",
	"not", "no", "all", "any", "some", "every", "each", "both",
	"more", "most", "other", "another", "such", "only", "own",
	"same", "than", "too", "also", "now", "then", "here", "there",
)

// Single-word interjections that can start a line but are never names.
var singleWordNonNames = toSet(
	"yeah", "yes", "no", "okay", "ok", "sure", "right", "exactly",
	"absolutely", "totally", "definitely", "certainly", "probably",
	"maybe", "perhaps", "honestly", "actually", "basically", "literally",
	"interesting", "amazing", "awesome", "great", "good", "nice", "cool",
	"wow", "oh", "ah", "um", "uh", "hmm", "well", "so", "like", "true",
	"advertisement", "eventually", "finally", "unfortunately", "fortunately",
	"obviously", "clearly", "apparently", "essentially", "ultimately",
	"minds", "all",
)

var sponsorSpeakers = toSet("advertisement", "ad", "sponsor")

var sponsorKeywords = []string{
	"brought to you by",
	"this episode is brought",
	"sponsor",
	"promo code",
	"discount code",
	"coupon code",
	"sign up and get",
	"head over to",
	"check out",
	"special offer",
}

var hostNames = toSet("lenny", "lenny rachitsky")

var nameTitles = []string{"Jr.", "Sr.", "Dr.", "Mr.", "Ms.", "Mrs."}

// minTurnChars filters out short fragments that carry no signal.
const minTurnChars = 100

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// NormalizeSpeakerName converts ALL CAPS names to title case and trims
// whitespace. Mixed-case names pass through unchanged.
func NormalizeSpeakerName(name string) string {
	name = strings.TrimSpace(name)
	if name != "" && name == strings.ToUpper(name) && name != strings.ToLower(name) {
		return titleCase(name)
	}
	return name
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// IsValidSpeakerName reports whether the captured text looks like an
// actual speaker name rather than a short sentence that happened to end
// with a colon.
func IsValidSpeakerName(name string) bool {
	clean := strings.TrimSpace(name)
	if clean == "" || len(clean) < 3 {
		return false
	}

	words := strings.Fields(strings.ToLower(clean))
	if len(words) > 5 {
		return false
	}

	if len(words) == 1 {
		word := strings.TrimRight(words[0], ".")
		for _, part := range strings.Split(word, "-") {
			if singleWordNonNames[part] {
				return false
			}
		}
		if strings.HasSuffix(clean, ".") && !endsWithTitle(clean) {
			return false
		}
	}

	for _, w := range words {
		if sentenceIndicators[strings.TrimRight(w, ".,!?")] {
			return false
		}
	}

	if len(words) > 1 && strings.HasSuffix(clean, ".") && !endsWithTitle(clean) {
		return false
	}

	return true
}

func endsWithTitle(name string) bool {
	for _, t := range nameTitles {
		if strings.HasSuffix(name, t) {
			return true
		}
	}
	return false
}

// IsHost reports whether the speaker is the show's host.
func IsHost(speaker string) bool {
	return hostNames[strings.ToLower(strings.TrimSpace(speaker))]
}

// IsSponsorContent reports whether text looks like an ad segment.
func IsSponsorContent(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range sponsorKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// marker is one speaker or continuation header found in the raw text.
type marker struct {
	start, end int
	speaker    string
	timestamp  string
	isSpeaker  bool
}

type rawTurn struct {
	speaker   string
	timestamp string
	text      string
	isHost    bool
}

// ParseFile reads and parses a transcript file.
func ParseFile(path string) ([]Turn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), filepath.Base(path)), nil
}

// Parse splits transcript text into guest turns. Host turns become the
// preceding question for the guest turns that follow them; sponsor
// segments and short fragments are dropped.
func Parse(text, sourceFile string) []Turn {
	markers := findMarkers(text)
	if len(markers) == 0 {
		return nil
	}

	raw := extractRawTurns(text, markers)
	merged := mergeConsecutive(raw)

	var turns []Turn
	lastQuestion := ""
	for _, t := range merged {
		if t.isHost {
			if !IsSponsorContent(t.text) {
				lastQuestion = t.text
			}
			continue
		}
		if sponsorSpeakers[strings.ToLower(t.speaker)] || IsSponsorContent(t.text) {
			continue
		}
		if len(t.text) < minTurnChars {
			continue
		}
		turns = append(turns, Turn{
			Speaker:           t.speaker,
			Timestamp:         t.timestamp,
			Text:              t.text,
			PrecedingQuestion: lastQuestion,
			SourceFile:        sourceFile,
		})
	}
	return turns
}

// findMarkers locates all speaker and continuation headers, preferring
// the timestamped format when present.
func findMarkers(text string) []marker {
	var markers []marker

	speakerMatches := speakerWithTimestampRe.FindAllStringSubmatchIndex(text, -1)
	timestampMatches := timestampOnlyRe.FindAllStringSubmatchIndex(text, -1)

	if len(speakerMatches) == 0 {
		speakerMatches = speakerNoTimestampRe.FindAllStringSubmatchIndex(text, -1)
		timestampMatches = nil
		for _, m := range speakerMatches {
			name := text[m[2]:m[3]]
			markers = append(markers, marker{
				start:     m[0],
				end:       m[1],
				speaker:   NormalizeSpeakerName(name),
				isSpeaker: IsValidSpeakerName(name),
			})
		}
	} else {
		for _, m := range speakerMatches {
			name := text[m[2]:m[3]]
			ts := text[m[4]:m[5]]
			markers = append(markers, marker{
				start:     m[0],
				end:       m[1],
				speaker:   NormalizeSpeakerName(name),
				timestamp: ts,
				isSpeaker: IsValidSpeakerName(name),
			})
		}
	}

	for _, m := range timestampMatches {
		markers = append(markers, marker{
			start:     m[0],
			end:       m[1],
			timestamp: text[m[2]:m[3]],
		})
	}

	sort.Slice(markers, func(i, j int) bool { return markers[i].start < markers[j].start })
	return markers
}

// extractRawTurns slices the text between markers and resolves
// continuation markers to the previous speaker.
func extractRawTurns(text string, markers []marker) []rawTurn {
	var turns []rawTurn
	currentSpeaker := ""

	for i, m := range markers {
		speaker := m.speaker
		if m.isSpeaker {
			currentSpeaker = speaker
		} else {
			speaker = currentSpeaker
			if speaker == "" {
				speaker = "Lenny"
			}
		}

		start := m.end
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1].start
		}

		turns = append(turns, rawTurn{
			speaker:   speaker,
			timestamp: m.timestamp,
			text:      strings.TrimSpace(text[start:end]),
			isHost:    IsHost(speaker),
		})
	}
	return turns
}

// mergeConsecutive joins adjacent turns from the same speaker.
func mergeConsecutive(turns []rawTurn) []rawTurn {
	var merged []rawTurn
	for _, t := range turns {
		if len(merged) > 0 && merged[len(merged)-1].speaker == t.speaker {
			merged[len(merged)-1].text += "\n\n" + t.text
			continue
		}
		merged = append(merged, t)
	}
	return merged
}
