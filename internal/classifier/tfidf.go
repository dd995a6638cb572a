package classifier

import (
	"errors"
	"math"
	"sort"

	"github.com/jonesrussell/north-cloud/complaint-priority/internal/textproc"
)

var (
	// ErrEmptyVocabulary is returned when no document yields a single term.
	ErrEmptyVocabulary = errors.New("empty vocabulary; perhaps the documents only contain stop words")
	// ErrNoTermsAfterPruning is returned when min_df removes every term.
	ErrNoTermsAfterPruning = errors.New("after pruning, no terms remain; try a lower min_df")
)

// VectorizerConfig controls vocabulary construction.
type VectorizerConfig struct {
	MaxFeatures int
	MinDF       int
	NGramMin    int
	NGramMax    int
}

// Entry is one non-zero feature of a document vector.
type Entry struct {
	Index int
	Value float64
}

// Vector is a sparse document vector with entries sorted by Index.
type Vector []Entry

// Vectorizer maps text to L2-normalized TF-IDF vectors over a fixed vocabulary.
type Vectorizer struct {
	// Terms is the vocabulary in index order (alphabetical).
	Terms    []string
	IDF      []float64
	NGramMin int
	NGramMax int

	index map[string]int
}

// NewVectorizer rebuilds a fitted vectorizer from its parts.
func NewVectorizer(terms []string, idf []float64, ngramMin, ngramMax int) (*Vectorizer, error) {
	if len(terms) != len(idf) {
		return nil, errors.New("vocabulary and idf lengths differ")
	}
	v := &Vectorizer{Terms: terms, IDF: idf, NGramMin: ngramMin, NGramMax: ngramMax}
	v.buildIndex()
	return v, nil
}

func (v *Vectorizer) buildIndex() {
	v.index = make(map[string]int, len(v.Terms))
	for i, t := range v.Terms {
		v.index[t] = i
	}
}

// NumFeatures returns the vocabulary size.
func (v *Vectorizer) NumFeatures() int {
	return len(v.Terms)
}

// FitVectorizer learns the vocabulary and idf weights from docs and returns
// the transformed training matrix alongside the vectorizer.
func FitVectorizer(docs []string, cfg VectorizerConfig) (*Vectorizer, []Vector, error) {
	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	tf := make(map[string]int)

	for i, doc := range docs {
		c := make(map[string]int)
		for _, term := range textproc.Analyze(doc, cfg.NGramMin, cfg.NGramMax) {
			c[term]++
		}
		for term, n := range c {
			df[term]++
			tf[term] += n
		}
		counts[i] = c
	}
	if len(df) == 0 {
		return nil, nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(df))
	for term, d := range df {
		if d >= cfg.MinDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil, nil, ErrNoTermsAfterPruning
	}
	sort.Strings(terms)

	if cfg.MaxFeatures > 0 && len(terms) > cfg.MaxFeatures {
		// Highest corpus frequency wins; the stable sort keeps alphabetical order on ties.
		sort.SliceStable(terms, func(a, b int) bool { return tf[terms[a]] > tf[terms[b]] })
		terms = terms[:cfg.MaxFeatures]
		sort.Strings(terms)
	}

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	v := &Vectorizer{Terms: terms, IDF: idf, NGramMin: cfg.NGramMin, NGramMax: cfg.NGramMax}
	v.buildIndex()

	matrix := make([]Vector, len(docs))
	for i, c := range counts {
		matrix[i] = v.weigh(c)
	}
	return v, matrix, nil
}

// Transform vectorizes a single document. Unknown terms are ignored.
func (v *Vectorizer) Transform(doc string) Vector {
	c := make(map[string]int)
	for _, term := range textproc.Analyze(doc, v.NGramMin, v.NGramMax) {
		if _, ok := v.index[term]; ok {
			c[term]++
		}
	}
	return v.weigh(c)
}

func (v *Vectorizer) weigh(counts map[string]int) Vector {
	vec := make(Vector, 0, len(counts))
	var norm float64
	for term, n := range counts {
		idx, ok := v.index[term]
		if !ok {
			continue
		}
		w := float64(n) * v.IDF[idx]
		norm += w * w
		vec = append(vec, Entry{Index: idx, Value: w})
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i].Value /= norm
		}
	}
	sort.Slice(vec, func(a, b int) bool { return vec[a].Index < vec[b].Index })
	return vec
}
