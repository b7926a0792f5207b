package utils

import (
	"unicode/utf8"
)

// MakeRuneByteSlices decodes txt into its runes plus, for each rune, the
// byte offset where it starts. Offsets are needed to map rune positions
// back into the original string.
func MakeRuneByteSlices(txt string) ([]rune, []int) {
	runesCount := utf8.RuneCountInString(txt)
	runes := make([]rune, runesCount)
	bytes := make([]int, runesCount)

	bytesOffset := 0
	l := len(txt)
	for i := 0; i < runesCount && bytesOffset < l; i++ {
		ch, chSize := utf8.DecodeRuneInString(txt[bytesOffset:])
		runes[i] = ch
		bytes[i] = bytesOffset
		bytesOffset += chSize
	}
	return runes, bytes
}
