package types

// Token is the smallest unit of text carrying features. The surface word is
// immutable once the tokenizer creates it; the feature map is mutated in
// place by the feature generators.
type Token struct {
	Word     string
	Features FeatureMap
}

func NewToken(word string) *Token {
	return &Token{
		Word:     word,
		Features: make(FeatureMap),
	}
}

// Sentence is an ordered run of tokens within a part.
type Sentence struct {
	Tokens []*Token
}

// Part is a contiguous section of a document (title, abstract, body
// paragraph). Its Text is the coordinate space for span matching: token
// words are locatable in Text by a strictly forward substring search.
type Part struct {
	ID          string
	Text        string
	Sentences   []*Sentence
	Annotations []Annotation
}

type Document struct {
	ID    string
	Parts []*Part
}

type Dataset struct {
	Documents []*Document
}

// Parts yields every part in document order.
func (dataset *Dataset) Parts() []*Part {
	var parts []*Part
	for _, doc := range dataset.Documents {
		parts = append(parts, doc.Parts...)
	}
	return parts
}

// Tokens yields every token of the dataset flattened in document order:
// document, part, sentence, token. Generators that carry state from one
// token to the next rely on this exact order.
func (dataset *Dataset) Tokens() []*Token {
	var tokens []*Token
	for _, doc := range dataset.Documents {
		for _, part := range doc.Parts {
			for _, sent := range part.Sentences {
				tokens = append(tokens, sent.Tokens...)
			}
		}
	}
	return tokens
}

func (dataset *Dataset) TokenCount() int {
	count := 0
	for _, doc := range dataset.Documents {
		for _, part := range doc.Parts {
			for _, sent := range part.Sentences {
				count += len(sent.Tokens)
			}
		}
	}
	return count
}
