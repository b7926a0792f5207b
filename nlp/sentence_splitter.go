package nlp

import (
	"strings"
	"unicode"

	"varspot.io/vsp/utils"
)

// Sentence boundaries in biomedical abstracts: a terminal [.!?] counts only
// when followed by whitespace and an uppercase (or digit) sentence opener.
// Dotted nomenclature like "c.123A>T" never has whitespace after the dot,
// so it survives intact. Common citation abbreviations are suppressed too.
var abbreviations = map[string]bool{
	"al":   true, // et al.
	"fig":  true,
	"figs": true,
	"e":    true, // e.g.
	"i":    true, // i.e.
	"vs":   true,
	"ca":   true,
	"cf":   true,
	"dr":   true,
	"no":   true,
}

// SplitSentences cuts text into sentence substrings. The substrings are
// verbatim slices of the input in order, so token words found inside them
// remain locatable in the original text by a forward search.
func SplitSentences(text string) []string {
	runes, byteOffsets := utils.MakeRuneByteSlices(text)

	var sentences []string
	start := 0 // rune index of current sentence start
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		isBoundary := false
		switch ch {
		case '.', '!', '?':
			isBoundary = endsSentence(runes, i)
		case '\n':
			isBoundary = true
		}
		if !isBoundary {
			continue
		}
		if sentence := sliceTrimmed(text, runes, byteOffsets, start, i+1); sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}
	if sentence := sliceTrimmed(text, runes, byteOffsets, start, len(runes)); sentence != "" {
		sentences = append(sentences, sentence)
	}
	return sentences
}

func endsSentence(runes []rune, dot int) bool {
	if runes[dot] == '.' && isAbbreviation(runes, dot) {
		return false
	}
	// require whitespace after the terminal
	next := dot + 1
	if next >= len(runes) {
		return true
	}
	if !unicode.IsSpace(runes[next]) {
		return false
	}
	// and an uppercase or numeric opener after the whitespace
	for next < len(runes) && unicode.IsSpace(runes[next]) {
		next++
	}
	if next >= len(runes) {
		return true
	}
	opener := runes[next]
	return unicode.IsUpper(opener) || unicode.IsDigit(opener)
}

func isAbbreviation(runes []rune, dot int) bool {
	end := dot
	start := dot
	for start > 0 && unicode.IsLetter(runes[start-1]) {
		start--
	}
	if start == end {
		return false
	}
	word := strings.ToLower(string(runes[start:end]))
	return abbreviations[word]
}

func sliceTrimmed(text string, runes []rune, byteOffsets []int, startRune, endRune int) string {
	for startRune < endRune && unicode.IsSpace(runes[startRune]) {
		startRune++
	}
	for endRune > startRune && unicode.IsSpace(runes[endRune-1]) {
		endRune--
	}
	if startRune >= endRune {
		return ""
	}
	startByte := byteOffsets[startRune]
	var endByte int
	if endRune < len(runes) {
		endByte = byteOffsets[endRune]
	} else {
		endByte = len(text)
	}
	return text[startByte:endByte]
}
