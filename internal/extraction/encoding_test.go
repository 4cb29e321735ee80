package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/EntiTag-Intelligence/pkg/errors"
)

func TestValidateEncoding(t *testing.T) {
	assert.NoError(t, ValidateEncoding(EncodingCoNLL))
	assert.NoError(t, ValidateEncoding(EncodingEntities))

	err := ValidateEncoding("xml")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedInput))
}

func TestEntitiesFromTags_SingleAndMultiToken(t *testing.T) {
	tagged := []TaggedToken{
		{Token: "Alice", Tag: "S-Person"},
		{Token: "joined", Tag: "O"},
		{Token: "New", Tag: "B-Org"},
		{Token: "York", Tag: "I-Org"},
		{Token: "University", Tag: "E-Org"},
		{Token: ".", Tag: "O"},
	}

	assert.Equal(t, []Span{
		{Type: "Person", Text: "Alice"},
		{Type: "Org", Text: "New York University"},
	}, EntitiesFromTags(tagged))
}

func TestEntitiesFromTags_MalformedRunsAreDiscarded(t *testing.T) {
	cases := []struct {
		name   string
		tagged []TaggedToken
		want   []Span
	}{
		{
			name: "dangling I without B",
			tagged: []TaggedToken{
				{Token: "x", Tag: "I-Org"},
				{Token: "y", Tag: "O"},
			},
			want: nil,
		},
		{
			name: "B that never closes",
			tagged: []TaggedToken{
				{Token: "New", Tag: "B-Org"},
				{Token: "York", Tag: "I-Org"},
			},
			want: nil,
		},
		{
			name: "type mismatch inside run",
			tagged: []TaggedToken{
				{Token: "New", Tag: "B-Org"},
				{Token: "York", Tag: "I-Gpe"},
				{Token: "University", Tag: "E-Org"},
			},
			want: nil,
		},
		{
			name: "E without open run",
			tagged: []TaggedToken{
				{Token: "x", Tag: "E-Org"},
			},
			want: nil,
		},
		{
			name: "valid run after malformed one",
			tagged: []TaggedToken{
				{Token: "x", Tag: "I-Org"},
				{Token: "Paris", Tag: "S-Gpe"},
			},
			want: []Span{{Type: "Gpe", Text: "Paris"}},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EntitiesFromTags(tc.tagged))
		})
	}
}

func TestEntitiesFromTags_RoundTripWithTagger(t *testing.T) {
	tg := NewTagger(nil, nil)
	text := "Dr. Alice Smith works at New York University in Paris."
	ents := []ResolvedEntity{
		{Type: "Person", Text: "Dr. Alice Smith", Confidence: 1.0},
		{Type: "Org", Text: "New York University", Confidence: 0.9},
		{Type: "Gpe", Text: "Paris", Confidence: 0.8},
	}

	spans := EntitiesFromTags(tg.Tag(text, ents))

	// Every entity survives the round trip; token joining normalises the
	// punctuation spacing inside "Dr. Alice Smith".
	assert.Equal(t, []Span{
		{Type: "Person", Text: "Dr . Alice Smith"},
		{Type: "Org", Text: "New York University"},
		{Type: "Gpe", Text: "Paris"},
	}, spans)
}

func TestSplitTag(t *testing.T) {
	prefix, typ := splitTag("B-Person")
	assert.Equal(t, "B", prefix)
	assert.Equal(t, "Person", typ)

	prefix, _ = splitTag("O")
	assert.Empty(t, prefix)

	prefix, _ = splitTag("garbage")
	assert.Empty(t, prefix)

	prefix, _ = splitTag("B-")
	assert.Empty(t, prefix)
}
