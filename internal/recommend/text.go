// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package recommend

import (
	"math"
	"sort"
	"strings"
)

// SparseVector is a sparse term-weight vector keyed by vocabulary index.
// Vectors produced by the vectorizer are L2-normalized, so the cosine
// similarity of two vectors is their dot product.
type SparseVector map[int]float64

// Dot returns the dot product of two sparse vectors.
func (a SparseVector) Dot(b SparseVector) float64 {
	// Iterate the smaller vector
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for i, av := range a {
		if bv, ok := b[i]; ok {
			dot += av * bv
		}
	}
	return dot
}

// Vectorizer is a fitted TF-IDF vectorizer over the course corpus. The
// fitted state (vocabulary and IDF weights) is reused to vectorize ad-hoc
// student interest queries into the same space.
//
// Fields are exported for gob serialization in the artifact store.
type Vectorizer struct {
	Config     VectorizerConfig
	Vocabulary map[string]int
	IDF        []float64
}

// CourseDocument builds the text document representing a course for the
// content index: name, department, description, keywords, difficulty tier,
// and the literal qualifier "level course".
func CourseDocument(c *Course) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte(' ')
	b.WriteString(c.Department)
	b.WriteByte(' ')
	b.WriteString(c.Description)
	b.WriteByte(' ')
	b.WriteString(strings.Join(c.Keywords, " "))
	b.WriteByte(' ')
	b.WriteString(string(c.Difficulty))
	b.WriteString(" level course")
	return b.String()
}

// tokenize lowercases the text and splits it into alphanumeric tokens of at
// least two characters.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	out := tokens[:0]
	for _, tok := range tokens {
		if len(tok) >= 2 {
			out = append(out, tok)
		}
	}
	return out
}

// terms extracts the n-gram terms of a document: tokenized, stop words
// removed, then n-grams of each configured size over the remaining tokens.
func (v *Vectorizer) terms(text string) []string {
	tokens := tokenize(text)
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, stop := englishStopWords[tok]; !stop {
			kept = append(kept, tok)
		}
	}

	var terms []string
	for n := v.Config.NgramMin; n <= v.Config.NgramMax; n++ {
		for i := 0; i+n <= len(kept); i++ {
			terms = append(terms, strings.Join(kept[i:i+n], " "))
		}
	}
	return terms
}

// FitVectorizer fits a TF-IDF vectorizer over the document corpus.
//
// The vocabulary is capped at Config.MaxFeatures terms, kept by descending
// total corpus frequency with alphabetical tie-breaking, then indexed in
// alphabetical order so that fitting is fully deterministic. IDF uses
// smoothed inverse document frequency: ln((1+N)/(1+df)) + 1.
func FitVectorizer(cfg VectorizerConfig, docs []string) *Vectorizer {
	v := &Vectorizer{Config: cfg}

	corpusCount := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range v.terms(doc) {
			corpusCount[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
	}

	selected := make([]string, 0, len(corpusCount))
	for term := range corpusCount {
		selected = append(selected, term)
	}
	if len(selected) > cfg.MaxFeatures {
		sort.Slice(selected, func(i, j int) bool {
			ci, cj := corpusCount[selected[i]], corpusCount[selected[j]]
			if ci != cj {
				return ci > cj
			}
			return selected[i] < selected[j]
		})
		selected = selected[:cfg.MaxFeatures]
	}
	sort.Strings(selected)

	v.Vocabulary = make(map[string]int, len(selected))
	v.IDF = make([]float64, len(selected))
	n := float64(len(docs))
	for i, term := range selected {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	return v
}

// Transform vectorizes a document into the fitted TF-IDF space. Terms
// outside the fitted vocabulary are dropped, so a query sharing no
// vocabulary with the corpus yields an empty vector and zero similarity to
// every course.
func (v *Vectorizer) Transform(text string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range v.terms(text) {
		if i, ok := v.Vocabulary[term]; ok {
			counts[i]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	vec := make(SparseVector, len(counts))
	var norm float64
	for i, tf := range counts {
		w := tf * v.IDF[i]
		vec[i] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// VocabularySize returns the fitted term count.
func (v *Vectorizer) VocabularySize() int {
	return len(v.Vocabulary)
}

// buildSimilarityMatrix computes the full pairwise cosine similarity matrix
// over the L2-normalized content rows. The matrix is square, symmetric, and
// has an exact 1.0 diagonal for every non-empty row. O(n²) in course count,
// acceptable at catalog scale.
func buildSimilarityMatrix(rows []SparseVector) [][]float64 {
	n := len(rows)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		if len(rows[i]) > 0 {
			sim[i][i] = 1.0
		}
		for j := i + 1; j < n; j++ {
			s := rows[i].Dot(rows[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}
