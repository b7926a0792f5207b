package features

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"varspot.io/vsp/types"
)

func datasetFromPart(text string, words ...string) *types.Dataset {
	sent := &types.Sentence{}
	for _, word := range words {
		sent.Tokens = append(sent.Tokens, types.NewToken(word))
	}
	return &types.Dataset{
		Documents: []*types.Document{
			{
				ID: "doc-1",
				Parts: []*types.Part{
					{ID: "p1", Text: text, Sentences: []*types.Sentence{sent}},
				},
			},
		},
	}
}

func patternTags(t *testing.T, dataset *types.Dataset, patternIdx int) []string {
	t.Helper()
	var tags []string
	for _, token := range dataset.Tokens() {
		tags = append(tags, token.Features.Get(types.PatternKey(patternIdx)).Label)
	}
	return tags
}

func TestBIOERoundTrip(t *testing.T) {
	// pattern 4 matches "c.A123T": the starting token gets B, the interior
	// dot gets I, the token closing the match gets E, the rest O.
	dataset := datasetFromPart("c.A123T mutation", "c", ".", "A123T", "mutation")
	require.NoError(t, NewDictionarySpanTagger().Generate(dataset))

	require.Equal(t, []string{"B", "I", "E", "O"}, patternTags(t, dataset, 4))
}

func TestGenomicPatternWithSubstitution(t *testing.T) {
	// pattern 2 matches the full "c.123A>T" span.
	dataset := datasetFromPart("the c.123A>T, variant", "the", "c", ".", "123A", ">", "T", ",", "variant")
	require.NoError(t, NewDictionarySpanTagger().Generate(dataset))

	require.Equal(t, []string{"O", "B", "I", "I", "I", "E", "O", "O"}, patternTags(t, dataset, 2))
}

func TestProteinFrameshiftPattern(t *testing.T) {
	dataset := datasetFromPart("p.Arg123fs found", "p", ".", "Arg123fs", "found")
	require.NoError(t, NewDictionarySpanTagger().Generate(dataset))

	require.Equal(t, []string{"B", "I", "E", "O"}, patternTags(t, dataset, 10))
}

func TestEveryTokenGetsAllElevenKeys(t *testing.T) {
	dataset := datasetFromPart("no mutations here", "no", "mutations", "here")
	require.NoError(t, NewDictionarySpanTagger().Generate(dataset))

	for _, token := range dataset.Tokens() {
		for i := 0; i < types.DictionaryPatternCount; i++ {
			require.Equal(t, types.LabelFeature("O"), token.Features.Get(types.PatternKey(i)),
				"token %q pattern %d", token.Word, i)
		}
	}
}

func TestForwardCursorAlignment(t *testing.T) {
	part := &types.Part{
		ID:   "p1",
		Text: "AB AB",
		Sentences: []*types.Sentence{
			{Tokens: []*types.Token{types.NewToken("AB"), types.NewToken("AB")}},
		},
	}
	spans, err := AlignTokens(part)
	require.NoError(t, err)
	require.Len(t, spans, 2)
	require.Equal(t, 0, spans[0].Start)
	require.Equal(t, 2, spans[0].End)
	// the second occurrence must not re-match the first
	require.GreaterOrEqual(t, spans[1].Start, spans[0].End)
	require.Equal(t, 3, spans[1].Start)
	require.Equal(t, 5, spans[1].End)
}

func TestAlignmentFailureIsFatal(t *testing.T) {
	dataset := datasetFromPart("some text", "some", "missing")
	err := NewDictionarySpanTagger().Generate(dataset)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "missing"), "error should name the token: %v", err)
	require.True(t, strings.Contains(err.Error(), "p1"), "error should name the part: %v", err)
}

func TestAlignmentCursorNeverRewinds(t *testing.T) {
	// "a" occurs before the cursor after "abc" was consumed; searching
	// backwards would find it, the forward cursor must fail instead.
	dataset := datasetFromPart("abc", "abc", "a")
	err := NewDictionarySpanTagger().Generate(dataset)
	require.Error(t, err)
}

func TestSpanTagFirstFoundWins(t *testing.T) {
	// A token that both ends one span and lies inside a later overlapping
	// span takes the tag of the first span in list order.
	spans := []matchSpan{{start: 0, end: 4}, {start: 2, end: 8}}
	require.Equal(t, "E", spanTag(2, 4, spans))

	// swapped order: the containing span is found first
	spans = []matchSpan{{start: 2, end: 8}, {start: 0, end: 4}}
	require.Equal(t, "I", spanTag(3, 4, spans))
}

func TestSpanTagPriorityWithinOneMatch(t *testing.T) {
	spans := []matchSpan{{start: 5, end: 10}}
	require.Equal(t, "B", spanTag(5, 10, spans))  // start coincides, B beats E
	require.Equal(t, "I", spanTag(6, 9, spans))   // strictly inside
	require.Equal(t, "E", spanTag(7, 10, spans))  // exact end
	require.Equal(t, "O", spanTag(10, 12, spans)) // touching is not inside
	require.Equal(t, "O", spanTag(0, 5, spans))
}

func TestDictionaryGenerateIsIdempotent(t *testing.T) {
	tagger := NewDictionarySpanTagger()
	dataset := datasetFromPart("c.A123T mutation", "c", ".", "A123T", "mutation")
	require.NoError(t, tagger.Generate(dataset))
	first := patternTags(t, dataset, 4)
	require.NoError(t, tagger.Generate(dataset))
	require.Equal(t, first, patternTags(t, dataset, 4))
}
