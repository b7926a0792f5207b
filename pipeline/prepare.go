package pipeline

import (
	"varspot.io/vsp/features"
	"varspot.io/vsp/nlp"
	"varspot.io/vsp/tokenizer"
	"varspot.io/vsp/types"
)

// Preparer turns raw part text into sentences of feature-annotated tokens.
type Preparer struct {
	tokenFeatures *features.TokenFeatureGenerator
	dictionary    *features.DictionarySpanTagger
}

func NewPreparer() *Preparer {
	return &Preparer{
		tokenFeatures: features.NewTokenFeatureGenerator(),
		dictionary:    features.NewDictionarySpanTagger(),
	}
}

// PrepareDataset splits and tokenizes every part, then runs both feature
// generators over the whole dataset. Token features come first so the
// dictionary tags land on tokens that already carry their feature maps.
func (preparer *Preparer) PrepareDataset(dataset *types.Dataset) error {
	for _, part := range dataset.Parts() {
		part.Sentences = nil
		for _, sentText := range nlp.SplitSentences(part.Text) {
			part.Sentences = append(part.Sentences, &types.Sentence{
				Tokens: tokenizer.Tokenize(sentText),
			})
		}
	}

	preparer.tokenFeatures.Generate(dataset)
	return preparer.dictionary.Generate(dataset)
}

// Stage wires PrepareDataset into the channel pipeline. A document that
// fails preparation is forwarded with the error attached so the response
// builder can surface it.
func (preparer *Preparer) Stage(in <-chan docItem) <-chan docItem {
	out := make(chan docItem)
	go func() {
		defer close(out)
		for item := range in {
			if item.err == nil {
				item.err = preparer.PrepareDataset(item.dataset)
			}
			out <- item
		}
	}()
	return out
}
