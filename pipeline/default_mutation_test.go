package pipeline

import (
	"encoding/json"
	"io/ioutil"
	"path"
	"testing"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"varspot.io/vsp/features"
	"varspot.io/vsp/ml"
	"varspot.io/vsp/types"
	"varspot.io/vsp/utils"
)

// testModel answers the dictionary pattern features directly: a token tagged
// B/I/E by the c.X#X substitution pattern gets the matching state, anything
// else falls through to O.
func testModel() *ml.CRF {
	toState := func(fIdx int) *ml.TransitionData {
		weights := make([]float64, 3)
		weights[fIdx] = 5
		return &ml.TransitionData{Weights: weights}
	}
	toO := &ml.TransitionData{Weights: []float64{0, 0, 0}, DefaultWeight: 1}

	row := []*ml.TransitionData{toState(0), toState(1), toState(2), toO}
	return &ml.CRF{
		Features: map[string]int{
			"pattern4[0]_B": 0,
			"pattern4[0]_I": 1,
			"pattern4[0]_E": 2,
		},
		States:         []string{"B", "I", "E", "O"},
		InitialWeights: []float64{0, 0, 0, 0},
		FinalWeights:   []float64{0, 0, 0, 0},
		Transitions:    [][]*ml.TransitionData{row, row, row, row},
	}
}

func writeTestModel(t *testing.T) string {
	t.Helper()
	buf, err := json.Marshal(testModel())
	require.NoError(t, err)
	modelPath := path.Join(t.TempDir(), "mutation_mention.json")
	require.NoError(t, ioutil.WriteFile(modelPath, buf, 0644))
	return modelPath
}

func TestDefaultMutationPipeline(t *testing.T) {
	modelPath := writeTestModel(t)

	configNames := []string{"mutation_mention", "mutation_mention_alt"}
	var cfgs []types.Configuration
	for _, name := range configNames {
		cfgs = append(cfgs, types.Configuration{
			Name:      name,
			Pipeline:  types.MutationMentionPipeline,
			ModelFile: modelPath,
			ClassID:   types.MutationClassID,
		})
	}

	ppln, err := DefaultMutation(DefaultMutationParams{Configurations: cfgs})
	require.NoError(t, err)

	text := "We found the c.A123T mutation."
	res := <-ppln(Request{Text: text, Tid: "doc-1"})

	// Every configuration contributes one top-level key; build the expected
	// document the same way, one merge patch per configuration.
	singleResponse := MutationResponse{
		DocID:    "doc-1",
		TextHash: utils.HashString(text),
		Parts: []PartResult{
			{
				PartID: "abstract",
				Annotations: []types.Annotation{
					{
						ClassID: types.MutationClassID,
						Start:   13,
						End:     20,
						Text:    "c.A123T",
					},
				},
			},
		},
	}

	expected := []byte(`{}`)
	for _, name := range configNames {
		fragment, err := json.Marshal(map[string]MutationResponse{name: singleResponse})
		require.NoError(t, err)
		expected, err = jsonpatch.MergePatch(expected, fragment)
		require.NoError(t, err)
	}

	require.JSONEq(t, string(expected), res)
}

func TestDefaultMutationNoMentions(t *testing.T) {
	modelPath := writeTestModel(t)
	cfgs := []types.Configuration{{
		Name:      "mutation_mention",
		Pipeline:  types.MutationMentionPipeline,
		ModelFile: modelPath,
		ClassID:   types.MutationClassID,
	}}

	ppln, err := DefaultMutation(DefaultMutationParams{Configurations: cfgs})
	require.NoError(t, err)

	res := <-ppln(Request{Text: "No variants were observed.", Tid: "doc-2"})

	var response map[string]MutationResponse
	require.NoError(t, json.Unmarshal([]byte(res), &response))
	require.Len(t, response, 1)
	require.Empty(t, response["mutation_mention"].Parts[0].Annotations)
	require.Empty(t, response["mutation_mention"].Error)
}

func TestDefaultMutationMissingModel(t *testing.T) {
	cfgs := []types.Configuration{{
		Name:      "mutation_mention",
		Pipeline:  types.MutationMentionPipeline,
		ModelFile: path.Join(t.TempDir(), "absent.json"),
		ClassID:   types.MutationClassID,
	}}

	_, err := DefaultMutation(DefaultMutationParams{Configurations: cfgs})
	require.Error(t, err)
}

func TestEncodeResponseUnserializable(t *testing.T) {
	errLogger := zerolog.Nop()

	res := encodeResponse(map[string]interface{}{"mutation_mention": make(chan int)}, &errLogger)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(res), &payload))
	require.Contains(t, payload["error"], "unsupported type")
}

func TestAssembleMentionsTruncatedRun(t *testing.T) {
	spans := []features.TokenSpan{
		{Start: 0, End: 1},
		{Start: 1, End: 2},
		{Start: 3, End: 5},
		{Start: 6, End: 8},
	}

	// Run cut off by O keeps its labelled extent, a new B restarts.
	mentions := assembleMentions([]string{"B", "I", "O", "B"}, spans)
	require.Equal(t, []mentionSpan{
		{start: 0, end: 2},
		{start: 6, end: 8},
	}, mentions)

	// I and E without an opening B are ignored.
	mentions = assembleMentions([]string{"O", "I", "E", "O"}, spans)
	require.Empty(t, mentions)
}

func TestPrepareDatasetIsIdempotent(t *testing.T) {
	preparer := NewPreparer()
	dataset := &types.Dataset{Documents: []*types.Document{{
		ID:    "doc",
		Parts: []*types.Part{{ID: "abstract", Text: "A c.A123T variant. It recurred."}},
	}}}

	require.NoError(t, preparer.PrepareDataset(dataset))
	firstSentences := len(dataset.Documents[0].Parts[0].Sentences)
	firstTokens := dataset.TokenCount()

	require.NoError(t, preparer.PrepareDataset(dataset))
	require.Equal(t, firstSentences, len(dataset.Documents[0].Parts[0].Sentences))
	require.Equal(t, firstTokens, dataset.TokenCount())
}
