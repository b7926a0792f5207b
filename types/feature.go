package types

import (
	"fmt"
	"strconv"
)

// FeatureKey identifies one feature kind attached to a token. The set is
// closed: every key the generators may write is enumerated here.
type FeatureKey uint8

const (
	FeatNumDigits FeatureKey = iota
	FeatNumUpper
	FeatNumLower
	FeatNumAlpha
	FeatSpecChars
	FeatChrKey
	FeatMutatType
	FeatMutatWord
	FeatMutatArticleBP
	FeatType1
	FeatType2
	FeatDNASymbols
	FeatProteinSymbols
	FeatRSCode
	FeatShape1
	FeatShape2
	FeatShape3
	FeatShape4
	FeatPrefix1
	FeatPrefix2
	FeatPrefix3
	FeatPrefix4
	FeatPrefix5
	FeatSuffix1
	FeatSuffix2
	FeatSuffix3
	FeatSuffix4
	FeatSuffix5
	FeatPattern0
	FeatPattern1
	FeatPattern2
	FeatPattern3
	FeatPattern4
	FeatPattern5
	FeatPattern6
	FeatPattern7
	FeatPattern8
	FeatPattern9
	FeatPattern10

	featureKeyCount
)

const DictionaryPatternCount = 11

var featureKeyNames = [featureKeyCount]string{
	FeatNumDigits:      "num_nr[0]",
	FeatNumUpper:       "num_up[0]",
	FeatNumLower:       "num_lo[0]",
	FeatNumAlpha:       "num_alpha[0]",
	FeatSpecChars:      "num_spec_chars[0]",
	FeatChrKey:         "num_has_chr_key[0]",
	FeatMutatType:      "mutat_type[0]",
	FeatMutatWord:      "mutat_word[0]",
	FeatMutatArticleBP: "mutat_article_bp[0]",
	FeatType1:          "type1[0]",
	FeatType2:          "type2[0]",
	FeatDNASymbols:     "dna_symbols[0]",
	FeatProteinSymbols: "protein_symbols[0]",
	FeatRSCode:         "rs_code[0]",
	FeatShape1:         "shape1[0]",
	FeatShape2:         "shape2[0]",
	FeatShape3:         "shape3[0]",
	FeatShape4:         "shape4[0]",
	FeatPrefix1:        "prefix1[0]",
	FeatPrefix2:        "prefix2[0]",
	FeatPrefix3:        "prefix3[0]",
	FeatPrefix4:        "prefix4[0]",
	FeatPrefix5:        "prefix5[0]",
	FeatSuffix1:        "suffix1[0]",
	FeatSuffix2:        "suffix2[0]",
	FeatSuffix3:        "suffix3[0]",
	FeatSuffix4:        "suffix4[0]",
	FeatSuffix5:        "suffix5[0]",
	FeatPattern0:       "pattern0[0]",
	FeatPattern1:       "pattern1[0]",
	FeatPattern2:       "pattern2[0]",
	FeatPattern3:       "pattern3[0]",
	FeatPattern4:       "pattern4[0]",
	FeatPattern5:       "pattern5[0]",
	FeatPattern6:       "pattern6[0]",
	FeatPattern7:       "pattern7[0]",
	FeatPattern8:       "pattern8[0]",
	FeatPattern9:       "pattern9[0]",
	FeatPattern10:      "pattern10[0]",
}

// String returns the wire name of the key. The names match the feature set
// the CRF models were trained on, so they must stay stable.
func (key FeatureKey) String() string {
	if key >= featureKeyCount {
		return fmt.Sprintf("unknown[%d]", uint8(key))
	}
	return featureKeyNames[key]
}

// AllFeatureKeys returns every key in enumeration order, for callers that
// need a deterministic iteration over a token's features.
func AllFeatureKeys() []FeatureKey {
	keys := make([]FeatureKey, featureKeyCount)
	for i := range keys {
		keys[i] = FeatureKey(i)
	}
	return keys
}

// PatternKey returns the feature key for dictionary pattern index 0..10.
func PatternKey(index int) FeatureKey {
	if index < 0 || index >= DictionaryPatternCount {
		panic(fmt.Sprintf("pattern index out of range: %d", index))
	}
	return FeatPattern0 + FeatureKey(index)
}

type FeatureValueKind uint8

const (
	FeatureAbsent FeatureValueKind = iota
	FeatureInt
	FeatureLabel
)

// FeatureValue is a tagged value: a small bounded integer, a fixed string
// label, or absent. Absent values are not stored in the map at all; the
// zero FeatureValue stands for them when read back.
type FeatureValue struct {
	Kind  FeatureValueKind
	Int   int
	Label string
}

func IntFeature(n int) FeatureValue {
	return FeatureValue{Kind: FeatureInt, Int: n}
}

func LabelFeature(label string) FeatureValue {
	return FeatureValue{Kind: FeatureLabel, Label: label}
}

func (v FeatureValue) IsAbsent() bool {
	return v.Kind == FeatureAbsent
}

// String renders the value for CRF feature strings.
func (v FeatureValue) String() string {
	switch v.Kind {
	case FeatureInt:
		return strconv.Itoa(v.Int)
	case FeatureLabel:
		return v.Label
	}
	return ""
}

// FeatureMap holds the features attached to one token. Keys are overwritten,
// never appended; setting an absent value removes the key so re-generation
// stays idempotent.
type FeatureMap map[FeatureKey]FeatureValue

func (features FeatureMap) Set(key FeatureKey, value FeatureValue) {
	if value.IsAbsent() {
		delete(features, key)
		return
	}
	features[key] = value
}

func (features FeatureMap) Get(key FeatureKey) FeatureValue {
	return features[key]
}
