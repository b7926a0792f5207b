package ml

import (
	"encoding/json"
	"io/ioutil"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
	"varspot.io/vsp/types"
)

// tinyModel prefers state "A" whenever feature "w[0]_x" is observed and
// state "B" otherwise.
func tinyModel() *CRF {
	toA := &TransitionData{Weights: []float64{5.0}, DefaultWeight: 0}
	toB := &TransitionData{Weights: []float64{0.0}, DefaultWeight: 1}
	return &CRF{
		Features:       map[string]int{"w[0]_x": 0},
		States:         []string{"A", "B"},
		InitialWeights: []float64{0, 0},
		FinalWeights:   []float64{0, 0},
		Transitions: [][]*TransitionData{
			{toA, toB},
			{toA, toB},
		},
	}
}

func observationsFor(words ...string) [][]Feature {
	sent := &types.Sentence{}
	for _, word := range words {
		sent.Tokens = append(sent.Tokens, types.NewToken(word))
	}
	return SentenceObservations(sent)
}

func TestPredictFollowsFeatureWeights(t *testing.T) {
	crf := tinyModel()

	require.Equal(t, []string{"A", "B"}, crf.Predict(observationsFor("x", "y")))
	require.Equal(t, []string{"B", "B"}, crf.Predict(observationsFor("y", "y")))
	require.Equal(t, []string{"A", "A"}, crf.Predict(observationsFor("x", "x")))
}

func TestPredictEmptyInput(t *testing.T) {
	crf := tinyModel()
	require.Empty(t, crf.Predict(nil))
}

func TestTokenObservationStrings(t *testing.T) {
	token := types.NewToken("c")
	token.Features.Set(types.FeatNumDigits, types.IntFeature(0))
	token.Features.Set(types.FeatType1, types.LabelFeature("Type1"))
	token.Features.Set(types.PatternKey(4), types.LabelFeature("B"))

	observations := TokenObservations(token)
	var rendered []string
	for _, obs := range observations {
		rendered = append(rendered, obs.String())
	}
	require.Equal(t, []string{"w[0]_c", "num_nr[0]_0", "type1[0]_Type1", "pattern4[0]_B"}, rendered)
}

func TestLoadCRFFromFile(t *testing.T) {
	model := tinyModel()
	model.InitialWeights = []float64{0} // short on purpose

	buf, err := json.Marshal(model)
	require.NoError(t, err)

	modelPath := path.Join(t.TempDir(), "model.json")
	require.NoError(t, ioutil.WriteFile(modelPath, buf, 0o644))

	loaded, err := LoadCRFFromFile(modelPath)
	require.NoError(t, err)
	require.Equal(t, model.States, loaded.States)
	// absent initial weights are padded with -Inf
	require.Len(t, loaded.InitialWeights, len(model.States))
}
