package types

import (
	"fmt"
	"varspot.io/vsp/utils"
)

// Annotation is a predicted entity mention: a half-open byte-offset span
// into the owning part's text.
type Annotation struct {
	ClassID string `json:"class_id"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Text    string `json:"text"`
}

func (ann Annotation) GetHashCode() uint64 {
	key := fmt.Sprintf("%s_%d_%d", ann.ClassID, ann.Start, ann.End)
	return utils.HashString(key)
}
