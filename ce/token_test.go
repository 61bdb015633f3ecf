package ce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []token
	}{
		{
			name:  "plain words",
			input: "there is a dog",
			expected: []token{
				{text: "there"}, {text: "is"}, {text: "a"}, {text: "dog"},
			},
		},
		{
			name:  "quoted literal is one token",
			input: "named 'Tom and Jerry'",
			expected: []token{
				{text: "named"}, {text: "Tom and Jerry", quoted: true},
			},
		},
		{
			name:  "escaped quote inside literal",
			input: `named 'O\'Malley'`,
			expected: []token{
				{text: "named"}, {text: "O'Malley", quoted: true},
			},
		},
		{
			name:  "tilde splits without whitespace",
			input: "~name~",
			expected: []token{
				{text: "~"}, {text: "name"}, {text: "~"},
			},
		},
		{
			name:  "unterminated quote swallows the rest",
			input: "named 'broken input",
			expected: []token{
				{text: "named"}, {text: "broken input", quoted: true},
			},
		},
		{
			name:     "empty literal",
			input:    "has '' as age",
			expected: []token{{text: "has"}, {text: "", quoted: true}, {text: "as"}, {text: "age"}},
		},
		{
			name:  "mixed whitespace",
			input: "a\tb\n c",
			expected: []token{
				{text: "a"}, {text: "b"}, {text: "c"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tokenize(tt.input))
		})
	}
}

func TestSplitFacts(t *testing.T) {
	tokens := tokenize("has '4' as age and chases the cat 'Tom and Jerry' and is expressed by 'Rex'")
	facts := splitFacts(tokens)
	assert.Len(t, facts, 3)
	assert.Equal(t, "has", facts[0][0].text)
	assert.Equal(t, "chases", facts[1][0].text)
	assert.Equal(t, "Tom and Jerry", facts[1][len(facts[1])-1].text)
	assert.Equal(t, "is", facts[2][0].text)
}

func TestSplitFactsEmptySegments(t *testing.T) {
	assert.Len(t, splitFacts(tokenize("and and has '1' as age and")), 1)
	assert.Empty(t, splitFacts(nil))
}

func TestEscapeLiteralRoundTrip(t *testing.T) {
	for _, s := range []string{"plain", "O'Malley", `already \' escaped`, ""} {
		assert.Equal(t, s, unescapeLiteral(escapeLiteral(s)))
	}
}

func TestFoldLabel(t *testing.T) {
	assert.Equal(t, "wheel count", foldLabel("  Wheel   COUNT "))
	assert.Equal(t, "", foldLabel("   "))
}
