package nlp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "two plain sentences",
			text:     "First sentence here. Second sentence follows.",
			expected: []string{"First sentence here.", "Second sentence follows."},
		},
		{
			name:     "mutation notation is not a boundary",
			text:     "The c.123A>T variant was found. It segregates with disease.",
			expected: []string{"The c.123A>T variant was found.", "It segregates with disease."},
		},
		{
			name:     "et al abbreviation",
			text:     "Reported by Smith et al. Nothing was replicated.",
			expected: []string{"Reported by Smith et al. Nothing was replicated."},
		},
		{
			name:     "newline splits",
			text:     "Title line\nbody text continues here",
			expected: []string{"Title line", "body text continues here"},
		},
		{
			name:     "lowercase continuation is not a boundary",
			text:     "Approx. half of the samples were affected.",
			expected: []string{"Approx. half of the samples were affected."},
		},
		{
			name:     "empty input",
			text:     "",
			expected: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, SplitSentences(tc.text))
		})
	}
}
