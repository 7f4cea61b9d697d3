package model

import (
	"strings"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/english"
)

// stemTerm reduces an alphabetic term to its Snowball English stem.
// The stemmer works on lowercase input, so the term is folded down,
// stemmed, and folded back to the uppercase form the corpus stores.
// Numeric and symbol terms pass through untouched.
func stemTerm(term string) string {
	if !isAlphabetic(term) {
		return term
	}
	env := snowballstem.NewEnv(strings.ToLower(term))
	english.Stem(env)
	return strings.ToUpper(env.Current())
}
