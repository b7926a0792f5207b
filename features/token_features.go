package features

import (
	"regexp"
	"strings"
	"unicode"

	"varspot.io/vsp/types"
)

// labelRule pairs a compiled pattern with the label it yields. Cascades are
// ordered slices of rules evaluated in sequence, first match wins.
type labelRule struct {
	re    *regexp.Regexp
	label string
}

func firstLabel(word string, rules []labelRule) types.FeatureValue {
	for _, rule := range rules {
		if rule.re.MatchString(word) {
			return types.LabelFeature(rule.label)
		}
	}
	return types.FeatureValue{}
}

// TokenFeatureGenerator attaches the tmVar token-intrinsic features: character
// class counts saturated at four, biomedical nomenclature cues (chromosome
// keys, mutation operations and nouns, DNA and protein residue symbols,
// dbSNP rs codes) and the shape/prefix/suffix patterns. Everything is derived
// from the token's own surface string, except the protein-symbol cascade
// which also looks at the previous token in dataset order.
type TokenFeatureGenerator struct {
	specCharRules  []labelRule
	mutTypeRules   []labelRule
	magnitudeRules []labelRule
	type1Rules     []labelRule
	rsCodeRules    []labelRule

	chrKeys      *regexp.Regexp
	mutWord      *regexp.Regexp
	dnaSymbol    *regexp.Regexp
	protFullName *regexp.Regexp
	protTriCode  *regexp.Regexp
	protTriSub   *regexp.Regexp
	protOneChar  *regexp.Regexp
}

func NewTokenFeatureGenerator() *TokenFeatureGenerator {
	return &TokenFeatureGenerator{
		specCharRules: []labelRule{
			{regexp.MustCompile(`[-;:,.>+_]`), "SpecC1"},
			{regexp.MustCompile(`[()]`), "SpecC2"},
			{regexp.MustCompile(`[{}]`), "SpecC3"},
			{regexp.MustCompile(`[\[\]]`), "SpecC4"},
			{regexp.MustCompile(`[/\\]`), "SpecC5"},
		},
		mutTypeRules: []labelRule{
			{regexp.MustCompile(`(fs|fsX|fsx)`), "FrameShiftType"},
			{regexp.MustCompile(`(del|ins|dup|tri|qua|con|delins|indel)`), "MutatType"},
		},
		magnitudeRules: []labelRule{
			{regexp.MustCompile(`^(single|a|one|two|three|four|five|six|seven|eight|nine|ten|[0-9]+|[0-9]+\.[0-9]+)`), "Base"},
			{regexp.MustCompile(`(kb|mb)`), "Byte"},
			{regexp.MustCompile(`(base|bases|pair|amino|acid|acids|codon|postion|postions|bp|nucleotide|nucleotides)`), "bp"},
		},
		type1Rules: []labelRule{
			{regexp.MustCompile(`^[cgrm]$`), "Type1"},
			{regexp.MustCompile(`^(ivs|ex|orf)$`), "Type1_2"},
		},
		rsCodeRules: []labelRule{
			{regexp.MustCompile(`^(rs|RS|Rs)[0-9]`), "RSCode"},
			{regexp.MustCompile(`^(rs|RS|Rs)$`), "RSCode"},
		},
		chrKeys:      regexp.MustCompile(`(q|p|q[0-9]+|p[0-9]+|qter|pter|XY|t)`),
		mutWord:      regexp.MustCompile(`^(deletion|delta|elta|insertion|repeat|inversion|deletions|insertions|repeats|inversions)`),
		dnaSymbol:    regexp.MustCompile(`^[ATCGUatcgu]$`),
		protFullName: regexp.MustCompile(`(glutamine|glutamic|leucine|valine|isoleucine|lysine|alanine|glycine|aspartate|methionine|threonine|histidine|aspartic|asparticacid|arginine|asparagine|tryptophan|proline|phenylalanine|cysteine|serine|glutamate|tyrosine|stop|frameshift)`),
		protTriCode:  regexp.MustCompile(`^(cys|ile|ser|gln|met|asn|pro|lys|asp|thr|phe|ala|gly|his|leu|arg|trp|val|glu|tyr|fs|fsx)$`),
		protTriSub:   regexp.MustCompile(`^(ys|le|er|ln|et|sn|ro|sp|hr|he|la|ly|is|eu|rg|rp|al|lu|yr)$`),
		protOneChar:  regexp.MustCompile(`^[CISQMNPKDTFAGHLRWVEYX]$`),
	}
}

// Generate walks every token of the dataset in document order and writes the
// full token-intrinsic feature set. The previous-token state is carried
// across sentence and part boundaries: it is exactly the last token visited,
// reset only at the start of each call.
func (gen *TokenFeatureGenerator) Generate(dataset *types.Dataset) {
	prevWord := ""
	for _, token := range dataset.Tokens() {
		gen.apply(token, prevWord)
		prevWord = token.Word
	}
}

func (gen *TokenFeatureGenerator) apply(token *types.Token, prevWord string) {
	word := token.Word
	lower := strings.ToLower(word)
	f := token.Features

	f.Set(types.FeatNumDigits, saturatingCount(word, unicode.IsNumber, "N4+"))
	f.Set(types.FeatNumUpper, saturatingCount(word, unicode.IsUpper, "U4+"))
	f.Set(types.FeatNumLower, saturatingCount(word, unicode.IsLower, "L4+"))
	f.Set(types.FeatNumAlpha, saturatingCount(word, unicode.IsLetter, "A4+"))

	f.Set(types.FeatSpecChars, firstLabel(word, gen.specCharRules))
	f.Set(types.FeatChrKey, matchLabel(gen.chrKeys, word, "ChroKey"))
	f.Set(types.FeatMutatType, firstLabel(lower, gen.mutTypeRules))
	f.Set(types.FeatMutatWord, matchLabel(gen.mutWord, lower, "MutatWord"))
	f.Set(types.FeatMutatArticleBP, firstLabel(lower, gen.magnitudeRules))
	f.Set(types.FeatType1, firstLabel(word, gen.type1Rules))
	f.Set(types.FeatType2, exactLabel(word, "p", "Type2"))
	f.Set(types.FeatDNASymbols, matchLabel(gen.dnaSymbol, word, "DNASym"))
	f.Set(types.FeatProteinSymbols, gen.proteinSymbol(word, lower, prevWord))
	f.Set(types.FeatRSCode, firstLabel(word, gen.rsCodeRules))

	f.Set(types.FeatShape1, wordShape(word, shapePerChar, classifyUpperLowerDigit))
	f.Set(types.FeatShape2, wordShape(word, shapePerChar, classifyLetterDigit))
	f.Set(types.FeatShape3, wordShape(word, shapeCollapsed, classifyUpperLowerDigit))
	f.Set(types.FeatShape4, wordShape(word, shapeCollapsed, classifyLetterDigit))

	runes := []rune(word)
	for n := 1; n <= 5; n++ {
		prefixKey := types.FeatPrefix1 + types.FeatureKey(n-1)
		suffixKey := types.FeatSuffix1 + types.FeatureKey(n-1)
		if len(runes) >= n {
			f.Set(prefixKey, types.LabelFeature(string(runes[:n])))
			f.Set(suffixKey, types.LabelFeature(string(runes[len(runes)-n:])))
		} else {
			f.Set(prefixKey, types.FeatureValue{})
			f.Set(suffixKey, types.FeatureValue{})
		}
	}
}

// proteinSymbol applies the four-way cascade: full amino-acid name anywhere
// in the lowercased token, exact three-letter code, two-letter tail of a
// three-letter code with the previous token ending the one-letter code, and
// finally an exact one-letter code (case-sensitive).
func (gen *TokenFeatureGenerator) proteinSymbol(word, lower, prevWord string) types.FeatureValue {
	switch {
	case gen.protFullName.MatchString(lower):
		return types.LabelFeature("ProteinSymFull")
	case gen.protTriCode.MatchString(lower):
		return types.LabelFeature("ProteinSymTri")
	case gen.protTriSub.MatchString(lower) && gen.protOneChar.MatchString(prevWord):
		return types.LabelFeature("ProteinSymTriSub")
	case gen.protOneChar.MatchString(word):
		return types.LabelFeature("ProteinSymChar")
	}
	return types.FeatureValue{}
}

func matchLabel(re *regexp.Regexp, word string, label string) types.FeatureValue {
	if re.MatchString(word) {
		return types.LabelFeature(label)
	}
	return types.FeatureValue{}
}

func exactLabel(word, expected, label string) types.FeatureValue {
	if word == expected {
		return types.LabelFeature(label)
	}
	return types.FeatureValue{}
}

// saturatingCount counts runes satisfying check, collapsing anything above
// four into the sentinel label.
func saturatingCount(word string, check func(rune) bool, sentinel string) types.FeatureValue {
	count := 0
	for _, r := range word {
		if check(r) {
			count++
			if count > 4 {
				return types.LabelFeature(sentinel)
			}
		}
	}
	return types.IntFeature(count)
}
