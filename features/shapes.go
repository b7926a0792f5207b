package features

import (
	"strings"

	"varspot.io/vsp/types"
)

type shapeMode int

const (
	shapePerChar shapeMode = iota
	shapeCollapsed
)

// classifyUpperLowerDigit maps ASCII character classes to the three-symbol
// alphabet of shape 1/3: uppercase -> 'A', lowercase -> 'a', digit -> '0'.
func classifyUpperLowerDigit(r rune) (rune, bool) {
	switch {
	case r >= 'A' && r <= 'Z':
		return 'A', true
	case r >= 'a' && r <= 'z':
		return 'a', true
	case r >= '0' && r <= '9':
		return '0', true
	}
	return r, false
}

// classifyLetterDigit maps to the two-symbol alphabet of shape 2/4: any
// ASCII letter -> 'a', digit -> '0'.
func classifyLetterDigit(r rune) (rune, bool) {
	switch {
	case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
		return 'a', true
	case r >= '0' && r <= '9':
		return '0', true
	}
	return r, false
}

// wordShape normalizes the token through the given character classifier.
// Tokens starting with a special character have no shape. In collapsed mode
// a maximal run of same-class characters emits one representative;
// unclassified characters always pass through one by one.
func wordShape(word string, mode shapeMode, classify func(rune) (rune, bool)) types.FeatureValue {
	if startsWithSpecialChar(word) {
		return types.FeatureValue{}
	}

	var sb strings.Builder
	var prevRep rune
	prevClassified := false
	for _, r := range word {
		rep, ok := classify(r)
		if !ok {
			sb.WriteRune(r)
			prevClassified = false
			continue
		}
		if mode == shapeCollapsed && prevClassified && rep == prevRep {
			continue
		}
		sb.WriteRune(rep)
		prevRep, prevClassified = rep, true
	}
	return types.LabelFeature(sb.String())
}

const specialChars = "-;:,.>+_"

func startsWithSpecialChar(word string) bool {
	for _, r := range word {
		return strings.ContainsRune(specialChars, r)
	}
	return false
}
