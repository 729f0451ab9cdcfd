// Package tfidf implements the lexical retrieval engine behind the knowledge
// index: a term-frequency/inverse-document-frequency vector space fitted
// fresh over a document set, scored against a query by dot product.
//
// The weighting mirrors scikit-learn's TfidfVectorizer defaults, which the
// retrieval quality was tuned against: lowercase word tokens of two or more
// characters, English stop words removed, unigrams plus bigrams, vocabulary
// capped at 10 000 terms by corpus frequency, smoothed IDF and L2-normalized
// vectors.
package tfidf

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// MaxFeatures caps the fitted vocabulary size.
const MaxFeatures = 10000

// Hit pairs a document index with its similarity score.
type Hit struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_]+`)

// Score fits a vector space over documents and ranks them against query,
// returning at most topK hits sorted by score descending, ties broken by
// original document order. An empty document set, a non-positive topK, or a
// vocabulary that ends up empty all yield an empty result rather than an
// error: retrieval failures degrade to "no hits".
func Score(query string, documents []string, topK int) []Hit {
	if len(documents) == 0 || topK <= 0 {
		return nil
	}

	docTerms := make([][]string, len(documents))
	for i, d := range documents {
		docTerms[i] = extractTerms(d)
	}

	vocab, idf := fit(docTerms, len(documents))
	if len(vocab) == 0 {
		return nil
	}

	queryVec := vectorize(extractTerms(query), vocab, idf)
	if len(queryVec) == 0 {
		return zeroHits(len(documents), topK)
	}

	hits := make([]Hit, len(documents))
	for i, terms := range docTerms {
		docVec := vectorize(terms, vocab, idf)
		hits[i] = Hit{Index: i, Score: dot(queryVec, docVec)}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits
}

// extractTerms tokenizes text and expands it into the unigram+bigram term
// sequence, dropping stop words before bigram formation.
func extractTerms(text string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)

	kept := tokens[:0]
	for _, tok := range tokens {
		if _, stop := englishStopWords[tok]; !stop {
			kept = append(kept, tok)
		}
	}

	terms := make([]string, 0, 2*len(kept))
	terms = append(terms, kept...)
	for i := 0; i+1 < len(kept); i++ {
		terms = append(terms, kept[i]+" "+kept[i+1])
	}
	return terms
}

// fit builds the capped vocabulary and per-term IDF weights from the corpus.
func fit(docTerms [][]string, numDocs int) (map[string]int, []float64) {
	corpusCount := map[string]int{}
	docFreq := map[string]int{}
	for _, terms := range docTerms {
		seen := map[string]struct{}{}
		for _, t := range terms {
			corpusCount[t]++
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				docFreq[t]++
			}
		}
	}
	if len(corpusCount) == 0 {
		return nil, nil
	}

	terms := make([]string, 0, len(corpusCount))
	for t := range corpusCount {
		terms = append(terms, t)
	}
	if len(terms) > MaxFeatures {
		// Most frequent terms win; ties resolve alphabetically so the cut
		// is deterministic.
		sort.Slice(terms, func(a, b int) bool {
			if corpusCount[terms[a]] != corpusCount[terms[b]] {
				return corpusCount[terms[a]] > corpusCount[terms[b]]
			}
			return terms[a] < terms[b]
		})
		terms = terms[:MaxFeatures]
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		vocab[t] = i
		idf[i] = math.Log(float64(1+numDocs)/float64(1+docFreq[t])) + 1
	}
	return vocab, idf
}

// vectorize projects a term sequence into the fitted space as a sparse,
// L2-normalized TF-IDF vector. Out-of-vocabulary terms contribute nothing.
func vectorize(terms []string, vocab map[string]int, idf []float64) map[int]float64 {
	counts := map[int]int{}
	for _, t := range terms {
		if idx, ok := vocab[t]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	vec := make(map[int]float64, len(counts))
	var norm float64
	for idx, c := range counts {
		w := float64(c) * idf[idx]
		vec[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil
	}
	for idx := range vec {
		vec[idx] /= norm
	}
	return vec
}

func dot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for idx, w := range a {
		if v, ok := b[idx]; ok {
			sum += w * v
		}
	}
	return sum
}

// zeroHits preserves the all-zero-score shape the caller expects when the
// query shares no vocabulary with the corpus.
func zeroHits(numDocs, topK int) []Hit {
	n := numDocs
	if topK < n {
		n = topK
	}
	hits := make([]Hit, n)
	for i := range hits {
		hits[i] = Hit{Index: i}
	}
	return hits
}
