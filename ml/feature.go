package ml

import (
	"strings"

	"varspot.io/vsp/types"
)

// Feature is one observation the CRF sees for a token position.
type Feature interface {
	String() string
}

// TokenFeature renders a token's typed feature as the flat string the model
// was trained on, e.g. "num_nr[0]_2" or "pattern4[0]_B".
type TokenFeature struct {
	Key   types.FeatureKey
	Value types.FeatureValue
}

func (f *TokenFeature) String() string {
	parts := []string{f.Key.String(), f.Value.String()}
	return strings.Join(parts, "_")
}

// WordFeature is the identity observation w[0], the token's surface string.
type WordFeature struct {
	Word string
}

func (f *WordFeature) String() string {
	return "w[0]_" + f.Word
}

// TokenObservations collects a token's features in enumeration order,
// skipping absent values, prefixed by the word identity feature.
func TokenObservations(token *types.Token) []Feature {
	observations := []Feature{&WordFeature{Word: token.Word}}
	for _, key := range types.AllFeatureKeys() {
		value := token.Features.Get(key)
		if value.IsAbsent() {
			continue
		}
		observations = append(observations, &TokenFeature{Key: key, Value: value})
	}
	return observations
}

// SentenceObservations builds the CRF input matrix for one sentence.
func SentenceObservations(sent *types.Sentence) [][]Feature {
	observations := make([][]Feature, len(sent.Tokens))
	for i, token := range sent.Tokens {
		observations[i] = TokenObservations(token)
	}
	return observations
}
