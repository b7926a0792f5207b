package features

import (
	"fmt"
	"strings"

	"varspot.io/vsp/types"
)

// TokenSpan is a half-open byte-offset span of one token inside its part's
// text, in flattened sentence/token order.
type TokenSpan struct {
	Token *types.Token
	Start int
	End   int
}

// AlignTokens locates every token of the part inside part.Text with a
// strictly forward-moving cursor: the search for each token begins at the
// end offset of the previously located token and never rewinds. This is what
// disambiguates repeated substrings. A token that cannot be found at or
// after the cursor means the tokenization does not belong to this text; that
// is a fatal precondition violation, not something to recover from.
func AlignTokens(part *types.Part) ([]TokenSpan, error) {
	var spans []TokenSpan
	cursor := 0
	for sentIdx, sent := range part.Sentences {
		for _, token := range sent.Tokens {
			idx := strings.Index(part.Text[cursor:], token.Word)
			if idx < 0 {
				return nil, fmt.Errorf(
					"token %q (sentence %d of part %q) not found in part text at or after offset %d",
					token.Word, sentIdx, part.ID, cursor,
				)
			}
			start := cursor + idx
			end := start + len(token.Word)
			spans = append(spans, TokenSpan{Token: token, Start: start, End: end})
			cursor = end
		}
	}
	return spans, nil
}
