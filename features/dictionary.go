package features

import (
	"regexp"

	"varspot.io/vsp/types"
)

// hgvsPatterns are the tmVar dictionary patterns: HGVS-style mutation
// nomenclature, seven genomic forms followed by four protein forms. Their
// order is fixed; pattern index i feeds the feature key pattern{i}[0].
var hgvsPatterns = [types.DictionaryPatternCount]string{
	`([cgrm]\.[ATCGatcgu /><?()\[\];:*_\-+0-9]+(inv|del|ins|dup|tri|qua|con|delins|indel)[ATCGatcgu0-9_.:]*)`,
	`(IVS[ATCGatcgu /><?()\[\];:*_\-+0-9]+(del|ins|dup|tri|qua|con|delins|indel)[ATCGatcgu0-9_.:]*)`,
	`([cgrm]\.[ATCGatcgu />?()\[\];:*_\-+0-9]+)`,
	`(IVS[ATCGatcgu />?()\[\];:*_\-+0-9]+)`,
	`([cgrm]\.[ATCGatcgu][0-9]+[ATCGatcgu])`,
	`([ATCGatcgu][0-9]+[ATCGatcgu])`,
	`([0-9]+(del|ins|dup|tri|qua|con|delins|indel)[ATCGatcgu]*)`,
	`(p\.[CISQMNPKDTFAGHLRWVEYX /><?()\[\];:*_\-+0-9]+(inv|del|ins|dup|tri|qua|con|delins|indel|fsX|fsx|fs)[CISQMNPKDTFAGHLRWVEYX /><?()\[\];:*_\-+0-9]*)`,
	`(p\.[CISQMNPKDTFAGHLRWVEYX />?()\[\];:*_\-+0-9]+)`,
	`(p\.[A-Z][a-z]{0,2}[\W\-]?[0-9]+[\W\-]?[A-Z][a-z]{0,2})`,
	`(p\.[A-Z][a-z]{0,2}[\W\-]?[0-9]+[\W\-]?(fs|fsx|fsX))`,
}

const (
	TagBegin  = "B"
	TagInside = "I"
	TagEnd    = "E"
	TagOther  = "O"
)

type matchSpan struct {
	start int
	end   int
}

// DictionarySpanTagger marks, for every token and every HGVS pattern,
// whether the token begins, lies strictly inside, ends, or is unrelated to a
// match of that pattern in the part's text.
type DictionarySpanTagger struct {
	patterns [types.DictionaryPatternCount]*regexp.Regexp
}

func NewDictionarySpanTagger() *DictionarySpanTagger {
	tagger := &DictionarySpanTagger{}
	for i, pattern := range hgvsPatterns {
		tagger.patterns[i] = regexp.MustCompile(pattern)
	}
	return tagger
}

// Generate writes pattern0[0]..pattern10[0] for every token of the dataset.
// Absence of matches is not an error; every token still receives all eleven
// keys (value O). The only error is a broken alignment invariant, which
// aborts tagging because it signals a tokenization/text mismatch upstream.
func (tagger *DictionarySpanTagger) Generate(dataset *types.Dataset) error {
	for _, part := range dataset.Parts() {
		if err := tagger.tagPart(part); err != nil {
			return err
		}
	}
	return nil
}

func (tagger *DictionarySpanTagger) tagPart(part *types.Part) error {
	// All matches per pattern are collected over the whole text before any
	// token is visited.
	var matches [types.DictionaryPatternCount][]matchSpan
	for i, pattern := range tagger.patterns {
		for _, loc := range pattern.FindAllStringIndex(part.Text, -1) {
			matches[i] = append(matches[i], matchSpan{start: loc[0], end: loc[1]})
		}
	}

	spans, err := AlignTokens(part)
	if err != nil {
		return err
	}

	for _, tokenSpan := range spans {
		for patternIdx := range matches {
			tag := spanTag(tokenSpan.Start, tokenSpan.End, matches[patternIdx])
			tokenSpan.Token.Features.Set(types.PatternKey(patternIdx), types.LabelFeature(tag))
		}
	}
	return nil
}

// spanTag decides B/I/E/O for one token against one pattern's match list.
// Matches are scanned in list order and the first one qualifying for any tag
// wins; within a single match the checks run B, then strict containment I,
// then E.
func spanTag(tokenStart, tokenEnd int, spans []matchSpan) string {
	for _, span := range spans {
		switch {
		case span.start == tokenStart:
			return TagBegin
		case span.start < tokenStart && tokenStart < tokenEnd && tokenEnd < span.end:
			return TagInside
		case span.end == tokenEnd:
			return TagEnd
		}
	}
	return TagOther
}
