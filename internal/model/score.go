package model

import (
	"math"
	"sort"
)

// TermFrequency returns the occurrence count of term in doc normalized by
// the document's total token count. A document with no tokens contributes
// no score for any term.
func TermFrequency(term string, doc *Document) float64 {
	if doc.TermCount == 0 {
		return 0
	}
	return float64(doc.TermFreq[term]) / float64(doc.TermCount)
}

// InverseDocumentFrequency returns log10(n / df(term)) where n is the total
// document count. A term absent from docFreq is treated as if it occurred in
// exactly one document. This smoothing keeps scores finite for query terms
// never seen during indexing, at the cost of a small positive bias toward
// unseen terms; it is an intentional approximation and lives here, not in a
// generic get-or-default helper, so the numeric policy stays in one place.
func InverseDocumentFrequency(term string, n int, docFreq map[string]int) float64 {
	if n == 0 {
		return 0
	}
	df := docFreq[term]
	if df < 1 {
		df = 1
	}
	return math.Log10(float64(n) / float64(df))
}

// Rank sums tf*idf over the query terms. Duplicate query terms count once
// per occurrence; an empty query ranks every document at 0.
func Rank(queryTerms []string, doc *Document, n int, docFreq map[string]int) float64 {
	var rank float64
	for _, term := range queryTerms {
		rank += TermFrequency(term, doc) * InverseDocumentFrequency(term, n, docFreq)
	}
	return rank
}

// SortResults orders results by descending score, ties broken by ascending
// path. Both backends use this rule so their orderings are identical.
func SortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Path < results[j].Path
	})
}
