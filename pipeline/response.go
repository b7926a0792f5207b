package pipeline

import (
	"encoding/json"

	"varspot.io/vsp/types"
	"varspot.io/vsp/utils"
)

// docItem is the unit flowing between pipeline stages. Once err is set the
// remaining stages pass the item through untouched and the error surfaces in
// the response.
type docItem struct {
	dataset *types.Dataset
	err     error
}

type Result struct {
	ConfigName string
	Data       interface{}
}

type PartResult struct {
	PartID      string             `json:"part_id"`
	Annotations []types.Annotation `json:"annotations"`
}

type MutationResponse struct {
	DocID    string       `json:"doc_id"`
	TextHash uint64       `json:"text_hash"`
	Parts    []PartResult `json:"parts"`
	Error    string       `json:"error,omitempty"`
}

// MentionCount sums the tagged mentions over all parts.
func (r MutationResponse) MentionCount() int {
	count := 0
	for _, part := range r.Parts {
		count += len(part.Annotations)
	}
	return count
}

// DecodeResponse parses the serialized payload a Pipeline sends back, keyed
// by configuration name.
func DecodeResponse(payload string) (map[string]MutationResponse, error) {
	var response map[string]MutationResponse
	if err := json.Unmarshal([]byte(payload), &response); err != nil {
		return nil, err
	}
	return response, nil
}

func NewMutationResult() func(in <-chan docItem, cfgName string, request Request) <-chan Result {
	return func(in <-chan docItem, cfgName string, request Request) <-chan Result {
		out := make(chan Result)
		go func() {
			defer close(out)

			response := MutationResponse{
				DocID:    request.Tid,
				TextHash: utils.HashString(request.Text),
				Parts:    []PartResult{},
			}

			for item := range in {
				if item.err != nil {
					response.Error = item.err.Error()
					continue
				}
				for _, part := range item.dataset.Parts() {
					annotations := part.Annotations
					if annotations == nil {
						annotations = []types.Annotation{}
					}
					response.Parts = append(response.Parts, PartResult{
						PartID:      part.ID,
						Annotations: annotations,
					})
				}
			}

			out <- Result{ConfigName: cfgName, Data: response}
		}()
		return out
	}
}
