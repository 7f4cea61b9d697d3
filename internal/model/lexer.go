// Package model implements the document statistics model behind docdex:
// the tokenizer, the tf-idf scoring functions, and the two storage
// backends (in-memory snapshot and SQLite) that answer ranked queries.
package model

import (
	"unicode"
)

// Lexer segments text into normalized terms. It holds no state beyond its
// cursor, so indexing and querying can each build a fresh one and get
// byte-for-byte identical output for equal input.
//
// Rules, longest match first:
//  1. whitespace runs are skipped
//  2. a decimal digit starts a maximal digit run, emitted verbatim
//  3. a letter starts a maximal alphanumeric run, emitted uppercased
//  4. anything else is a single-character term
type Lexer struct {
	content []rune
	pos     int
}

// NewLexer creates a Lexer over the given text.
func NewLexer(text string) *Lexer {
	return &Lexer{content: []rune(text)}
}

// Next returns the next term, or false when the input is exhausted.
func (l *Lexer) Next() (string, bool) {
	for l.pos < len(l.content) && unicode.IsSpace(l.content[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.content) {
		return "", false
	}

	r := l.content[l.pos]

	if unicode.IsDigit(r) {
		return string(l.chopWhile(unicode.IsDigit)), true
	}

	if unicode.IsLetter(r) {
		run := l.chopWhile(func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		})
		for i, r := range run {
			run[i] = unicode.ToUpper(r)
		}
		return string(run), true
	}

	l.pos++
	return string(r), true
}

// chopWhile consumes the maximal run satisfying pred starting at the cursor.
func (l *Lexer) chopWhile(pred func(rune) bool) []rune {
	start := l.pos
	for l.pos < len(l.content) && pred(l.content[l.pos]) {
		l.pos++
	}
	run := make([]rune, l.pos-start)
	copy(run, l.content[start:l.pos])
	return run
}

// Tokenize runs a fresh Lexer over text and collects every term.
func Tokenize(text string) []string {
	lexer := NewLexer(text)
	var terms []string
	for {
		term, ok := lexer.Next()
		if !ok {
			return terms
		}
		terms = append(terms, term)
	}
}

// Analyzer is the shared tokenization pipeline. Indexing and querying must
// use the same Analyzer so that equal input yields equal terms.
type Analyzer struct {
	stemming bool
}

// NewAnalyzer creates an Analyzer. When stemming is enabled, alphabetic
// terms pass through the Snowball English stemmer after tokenization.
func NewAnalyzer(stemming bool) *Analyzer {
	return &Analyzer{stemming: stemming}
}

// Terms tokenizes text and applies the optional normalization stage.
func (a *Analyzer) Terms(text string) []string {
	terms := Tokenize(text)
	if !a.stemming {
		return terms
	}
	for i, term := range terms {
		terms[i] = stemTerm(term)
	}
	return terms
}

// isAlphabetic reports whether the term starts with a letter, i.e. was
// produced by the alphanumeric-run rule.
func isAlphabetic(term string) bool {
	for _, r := range term {
		return unicode.IsLetter(r)
	}
	return false
}
