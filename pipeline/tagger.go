package pipeline

import (
	"varspot.io/vsp/features"
	"varspot.io/vsp/ml"
	"varspot.io/vsp/types"
)

// MentionTagger runs the CRF over each sentence and assembles contiguous
// B..E state runs into mutation mention annotations.
type MentionTagger struct {
	crf     *ml.CRF
	classID string
}

func NewMentionTagger(crf *ml.CRF, classID string) *MentionTagger {
	return &MentionTagger{crf: crf, classID: classID}
}

type mentionSpan struct {
	start int
	end   int
}

func (tagger *MentionTagger) Annotate(dataset *types.Dataset) error {
	for _, part := range dataset.Parts() {
		spans, err := features.AlignTokens(part)
		if err != nil {
			return err
		}

		var annotations []types.Annotation
		seen := make(map[uint64]bool)
		spanIdx := 0
		for _, sent := range part.Sentences {
			states := tagger.crf.Predict(ml.SentenceObservations(sent))
			sentSpans := spans[spanIdx : spanIdx+len(sent.Tokens)]
			spanIdx += len(sent.Tokens)

			for _, mention := range assembleMentions(states, sentSpans) {
				ann := types.Annotation{
					ClassID: tagger.classID,
					Start:   mention.start,
					End:     mention.end,
					Text:    part.Text[mention.start:mention.end],
				}
				hash := ann.GetHashCode()
				if seen[hash] {
					continue
				}
				seen[hash] = true
				annotations = append(annotations, ann)
			}
		}
		part.Annotations = annotations
	}
	return nil
}

// assembleMentions collects maximal token runs that open with a B state and
// continue through I states to an E. A run cut short by an O or a new B is
// still emitted up to its last labelled token.
func assembleMentions(states []string, spans []features.TokenSpan) []mentionSpan {
	var mentions []mentionSpan
	open := false
	var current mentionSpan

	flush := func() {
		if open {
			mentions = append(mentions, current)
			open = false
		}
	}

	for i, state := range states {
		switch state {
		case features.TagBegin:
			flush()
			open = true
			current = mentionSpan{start: spans[i].Start, end: spans[i].End}
		case features.TagInside:
			if open {
				current.end = spans[i].End
			}
		case features.TagEnd:
			if open {
				current.end = spans[i].End
				flush()
			}
		default:
			flush()
		}
	}
	flush()
	return mentions
}

func (tagger *MentionTagger) Stage(in <-chan docItem) <-chan docItem {
	out := make(chan docItem)
	go func() {
		defer close(out)
		for item := range in {
			if item.err == nil {
				item.err = tagger.Annotate(item.dataset)
			}
			out <- item
		}
	}()
	return out
}
