package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTexts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

func TestWordTokenizer_SplitsWordsAndPunctuation(t *testing.T) {
	tok := NewWordTokenizer()

	tokens := tok.Tokenize("Dr. Alice Smith works in Paris.")
	assert.Equal(t,
		[]string{"Dr", ".", "Alice", "Smith", "works", "in", "Paris", "."},
		tokenTexts(tokens))
}

func TestWordTokenizer_OffsetsAreExact(t *testing.T) {
	tok := NewWordTokenizer()
	text := "Hello, world! Visit New York."

	for _, tk := range tok.Tokenize(text) {
		assert.Equal(t, tk.Text, text[tk.Start:tk.End])
	}
}

func TestWordTokenizer_HyphenAndApostropheStayInWord(t *testing.T) {
	tok := NewWordTokenizer()

	tokens := tok.Tokenize("Jean-Claude met O'Brien.")
	assert.Equal(t, []string{"Jean-Claude", "met", "O'Brien", "."}, tokenTexts(tokens))
}

func TestWordTokenizer_EmptyAndWhitespace(t *testing.T) {
	tok := NewWordTokenizer()

	assert.Empty(t, tok.Tokenize(""))
	assert.Empty(t, tok.Tokenize("   \n\t "))
}

func TestWordTokenizer_MultiByteRunes(t *testing.T) {
	tok := NewWordTokenizer()
	text := "Die Universität München, gegründet 1472."

	tokens := tok.Tokenize(text)
	require.NotEmpty(t, tokens)
	assert.Equal(t,
		[]string{"Die", "Universität", "München", ",", "gegründet", "1472", "."},
		tokenTexts(tokens))
	for _, tk := range tokens {
		assert.Equal(t, tk.Text, text[tk.Start:tk.End])
	}
}

func TestWordTokenizer_NoWhitespaceTokens(t *testing.T) {
	tok := NewWordTokenizer()

	for _, tk := range tok.Tokenize("a  b\n\nc") {
		assert.NotContains(t, []string{" ", "\n"}, tk.Text)
	}
}
