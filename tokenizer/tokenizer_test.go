package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tokenWords(sentence string) []string {
	tokens := Tokenize(sentence)
	result := make([]string, len(tokens))
	for i, token := range tokens {
		result[i] = token.Word
	}
	return result
}

func TestTokenizeMutationNotation(t *testing.T) {
	require.Equal(t, []string{"c", ".", "123A", ">", "T"}, tokenWords("c.123A>T"))
	require.Equal(t, []string{"p", ".", "Arg123fs"}, tokenWords("p.Arg123fs"))
	require.Equal(t, []string{"rs123", "and", "IVS2", "+", "1G"}, tokenWords("rs123 and IVS2+1G"))
}

func TestTokenizePlainText(t *testing.T) {
	require.Equal(t, []string{"A", "simple", "sentence", "."}, tokenWords("A simple sentence."))
	require.Empty(t, tokenWords("   \t  "))
	require.Empty(t, tokenWords(""))
}

func TestTokenizeUnicode(t *testing.T) {
	require.Equal(t, []string{"α1", "-", "antitrypsin"}, tokenWords("α1-antitrypsin"))
}
