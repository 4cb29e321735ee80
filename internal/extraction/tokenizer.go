package extraction

import "unicode"

// ---------------------------------------------------------------------------
// Tokenizer — external contract plus the default implementation
// ---------------------------------------------------------------------------

// Tokenizer splits a document into tokens with exact byte offsets. Tokens
// must be non-overlapping and in text order; whether whitespace is emitted
// as tokens is up to the implementation — the tagger handles both.
type Tokenizer interface {
	Tokenize(text string) []Token
}

// WordTokenizer is the default tokenizer: words are maximal runs of
// non-space, non-punctuation runes; punctuation marks are single-rune
// tokens; whitespace is not emitted. Offsets are byte offsets into the
// original string, so text[tok.Start:tok.End] == tok.Text always holds.
type WordTokenizer struct{}

// NewWordTokenizer constructs the default tokenizer.
func NewWordTokenizer() *WordTokenizer { return &WordTokenizer{} }

// Tokenize implements Tokenizer.
func (*WordTokenizer) Tokenize(text string) []Token {
	var tokens []Token
	wordStart := -1

	flush := func(end int) {
		if wordStart >= 0 {
			tokens = append(tokens, Token{Text: text[wordStart:end], Start: wordStart, End: end})
			wordStart = -1
		}
	}

	for i, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush(i)
		case isTokenPunct(r):
			flush(i)
			end := i + len(string(r))
			tokens = append(tokens, Token{Text: text[i:end], Start: i, End: end})
		default:
			if wordStart < 0 {
				wordStart = i
			}
		}
	}
	flush(len(text))
	return tokens
}

// isTokenPunct reports whether r is punctuation that forms its own token.
// Hyphens and apostrophes stay inside words so surface forms like
// "Jean-Claude" and "O'Brien" remain single tokens.
func isTokenPunct(r rune) bool {
	if r == '-' || r == '\'' {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
