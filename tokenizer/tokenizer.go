package tokenizer

import (
	"unicode"

	"varspot.io/vsp/types"
	"varspot.io/vsp/utils"
)

// Tokenize splits a sentence into tokens: maximal alphanumeric runs stay
// together, every other printable character becomes its own token, and
// whitespace only separates. Mutation notation like "c.123A>T" therefore
// yields ["c", ".", "123A", ">", "T"], which keeps every character of the
// source text reachable by the forward alignment search.
func Tokenize(sentence string) []*types.Token {
	runes, _ := utils.MakeRuneByteSlices(sentence)

	var tokens []*types.Token
	pos := 0
	for pos < len(runes) {
		ch := runes[pos]
		if unicode.IsSpace(ch) {
			pos++
			continue
		}
		if isWordChar(ch) {
			start := pos
			for pos < len(runes) && isWordChar(runes[pos]) {
				pos++
			}
			tokens = append(tokens, types.NewToken(string(runes[start:pos])))
			continue
		}
		tokens = append(tokens, types.NewToken(string(ch)))
		pos++
	}
	return tokens
}

func isWordChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch)
}
