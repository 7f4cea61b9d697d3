package model

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_Classes(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "plain words uppercased",
			input:  "hello world",
			expect: []string{"HELLO", "WORLD"},
		},
		{
			name:   "digit run stays verbatim",
			input:  "123 456",
			expect: []string{"123", "456"},
		},
		{
			name:   "letter-led run swallows digits",
			input:  "abc123",
			expect: []string{"ABC123"},
		},
		{
			name:   "digit-led run stops at letters",
			input:  "123abc",
			expect: []string{"123", "ABC"},
		},
		{
			name:   "punctuation is individually significant",
			input:  "foo.bar()",
			expect: []string{"FOO", ".", "BAR", "(", ")"},
		},
		{
			name:   "mixed whitespace elided",
			input:  "  a\t\nb  ",
			expect: []string{"A", "B"},
		},
		{
			name:   "unicode letters fold",
			input:  "über café",
			expect: []string{"ÜBER", "CAFÉ"},
		},
		{
			name:   "empty input",
			input:  "",
			expect: nil,
		},
		{
			name:   "whitespace only",
			input:  "   \n\t ",
			expect: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Tokenize(tt.input))
		})
	}
}

func TestTokenize_AlphabeticTermsFullyUppercase(t *testing.T) {
	terms := Tokenize("The Quick brown FoX jumps over 99 lazy dogs!")

	for _, term := range terms {
		for _, r := range term {
			if unicode.IsLetter(r) {
				assert.True(t, unicode.IsUpper(r), "term %q contains lowercase letter", term)
			}
		}
	}
}

func TestTokenize_DigitRunsNeverMergeWithLetters(t *testing.T) {
	terms := Tokenize("42nd 7seas")

	// A digit-led run ends at the first non-digit; the letters start a new
	// term of their own.
	assert.Equal(t, []string{"42", "ND", "7", "SEAS"}, terms)
}

func TestLexer_DeterministicAndRestartable(t *testing.T) {
	input := "Repeat, repeat: 123 times!"

	first := Tokenize(input)
	second := Tokenize(input)

	assert.Equal(t, first, second)
}

func TestLexer_NextExhausts(t *testing.T) {
	lexer := NewLexer("one 2")

	term, ok := lexer.Next()
	require.True(t, ok)
	assert.Equal(t, "ONE", term)

	term, ok = lexer.Next()
	require.True(t, ok)
	assert.Equal(t, "2", term)

	_, ok = lexer.Next()
	assert.False(t, ok)

	// Exhausted lexers keep reporting end of input.
	_, ok = lexer.Next()
	assert.False(t, ok)
}

func TestAnalyzer_WithoutStemmingMatchesTokenize(t *testing.T) {
	input := "Searching searched searches"
	assert.Equal(t, Tokenize(input), NewAnalyzer(false).Terms(input))
}

func TestAnalyzer_StemmingCollapsesInflections(t *testing.T) {
	analyzer := NewAnalyzer(true)

	running := analyzer.Terms("running")
	runs := analyzer.Terms("runs")
	require.Len(t, running, 1)
	require.Len(t, runs, 1)
	assert.Equal(t, running[0], runs[0])

	// Numeric and symbol terms pass through untouched.
	assert.Equal(t, []string{"123", ";"}, analyzer.Terms("123 ;"))
}
