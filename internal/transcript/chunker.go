package transcript

import (
	"strings"
	"unicode/utf8"
)

// Chunk is one slice of a turn, sized for embedding or for generation
// context depending on the limits it was cut with.
type Chunk struct {
	Text              string
	Speaker           string
	Timestamp         string
	PrecedingQuestion string
	SourceFile        string
	Index             int
}

// ChunkTurn splits a turn at paragraph boundaries into chunks of at
// most maxChars, carrying overlap characters from the end of each chunk
// into the next. Turns that fit in one chunk come back unsplit.
func ChunkTurn(turn Turn, maxChars, overlap int) []Chunk {
	meta := func(text string, index int) Chunk {
		return Chunk{
			Text:              text,
			Speaker:           turn.Speaker,
			Timestamp:         turn.Timestamp,
			PrecedingQuestion: turn.PrecedingQuestion,
			SourceFile:        turn.SourceFile,
			Index:             index,
		}
	}

	if len(turn.Text) <= maxChars {
		return []Chunk{meta(turn.Text, 0)}
	}

	var chunks []Chunk
	current := ""
	index := 0

	for _, para := range strings.Split(turn.Text, "\n\n") {
		if len(current)+len(para)+2 <= maxChars {
			if current != "" {
				current += "\n\n" + para
			} else {
				current = para
			}
			continue
		}
		if current != "" {
			chunks = append(chunks, meta(current, index))
			index++
			carry := current
			if len(carry) > overlap {
				carry = carry[runeStart(carry, len(carry)-overlap):]
			}
			current = carry + "\n\n" + para
		} else {
			current = para
		}
	}

	if current != "" && len(current) >= minTurnChars {
		chunks = append(chunks, meta(current, index))
	}

	return chunks
}

// SplitSentences cuts text at sentence terminators and newlines.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// SplitText packs sentences into chunks of at most maxChars with
// overlap characters carried between consecutive chunks. Single
// sentences longer than maxChars are hard-cut.
func SplitText(text string, maxChars, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	current := ""

	// flush emits the current chunk and seeds the next one with its
	// trailing overlap characters.
	flush := func() {
		if current == "" {
			return
		}
		chunks = append(chunks, current)
		if overlap > 0 && overlap < len(current) {
			current = current[runeStart(current, len(current)-overlap):]
		} else {
			current = ""
		}
	}

	push := func(sentence string) {
		switch {
		case current == "":
			current = sentence
		case len(current)+len(sentence)+1 <= maxChars:
			current += " " + sentence
		default:
			flush()
			if current == "" || len(current)+len(sentence)+1 > maxChars {
				current = sentence
			} else {
				current += " " + sentence
			}
		}
	}

	for _, sentence := range SplitSentences(text) {
		for len(sentence) > maxChars {
			if current != "" {
				chunks = append(chunks, current)
				current = ""
			}
			cut := runeStart(sentence, maxChars)
			if cut == 0 {
				_, size := utf8.DecodeRuneInString(sentence)
				cut = size
			}
			chunks = append(chunks, sentence[:cut])
			sentence = sentence[cut:]
		}
		if sentence != "" {
			push(sentence)
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// runeStart backs the byte offset off up to the start of the rune it
// lands in, so slicing at the result never splits a character.
func runeStart(s string, off int) int {
	for off > 0 && off < len(s) && !utf8.RuneStart(s[off]) {
		off--
	}
	return off
}
