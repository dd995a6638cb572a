package classifier

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// NaiveBayes is a fitted multinomial Naive Bayes classifier.
type NaiveBayes struct {
	// Classes is sorted; every per-class slice is indexed the same way.
	Classes        []string
	ClassCount     []float64
	ClassLogPrior  []float64
	FeatureLogProb [][]float64
	Alpha          float64
}

// FitNaiveBayes fits the classifier on the rows of x labeled by y.
func FitNaiveBayes(x []Vector, y []string, numFeatures int, alpha float64) (*NaiveBayes, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("got %d rows but %d labels", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, errors.New("no training rows")
	}
	if alpha <= 0 {
		return nil, fmt.Errorf("alpha must be positive, got %g", alpha)
	}

	classIdx := make(map[string]int)
	for _, label := range y {
		classIdx[label] = 0
	}
	classes := make([]string, 0, len(classIdx))
	for c := range classIdx {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	for i, c := range classes {
		classIdx[c] = i
	}

	classCount := make([]float64, len(classes))
	featureCount := make([][]float64, len(classes))
	for i := range featureCount {
		featureCount[i] = make([]float64, numFeatures)
	}
	for row, vec := range x {
		ci := classIdx[y[row]]
		classCount[ci]++
		for _, e := range vec {
			featureCount[ci][e.Index] += e.Value
		}
	}

	nb := &NaiveBayes{
		Classes:        classes,
		ClassCount:     classCount,
		ClassLogPrior:  make([]float64, len(classes)),
		FeatureLogProb: make([][]float64, len(classes)),
		Alpha:          alpha,
	}

	logTotal := math.Log(float64(len(y)))
	for ci := range classes {
		nb.ClassLogPrior[ci] = math.Log(classCount[ci]) - logTotal

		var smoothedTotal float64
		for _, fc := range featureCount[ci] {
			smoothedTotal += fc + alpha
		}
		logTotalFC := math.Log(smoothedTotal)

		flp := make([]float64, numFeatures)
		for f, fc := range featureCount[ci] {
			flp[f] = math.Log(fc+alpha) - logTotalFC
		}
		nb.FeatureLogProb[ci] = flp
	}
	return nb, nil
}

// JointLogLikelihood returns the unnormalized log posterior of each class.
func (nb *NaiveBayes) JointLogLikelihood(vec Vector) []float64 {
	jll := make([]float64, len(nb.Classes))
	for ci := range nb.Classes {
		s := nb.ClassLogPrior[ci]
		flp := nb.FeatureLogProb[ci]
		for _, e := range vec {
			s += e.Value * flp[e.Index]
		}
		jll[ci] = s
	}
	return jll
}

// PredictProba returns class probabilities in Classes order; they sum to 1.
func (nb *NaiveBayes) PredictProba(vec Vector) []float64 {
	jll := nb.JointLogLikelihood(vec)
	lse := logSumExp(jll)
	for i := range jll {
		jll[i] = math.Exp(jll[i] - lse)
	}
	return jll
}

// Predict returns the most likely class. Ties go to the earlier class.
func (nb *NaiveBayes) Predict(vec Vector) string {
	return nb.Classes[argmax(nb.JointLogLikelihood(vec))]
}

func logSumExp(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		m = math.Max(m, x)
	}
	if math.IsInf(m, -1) {
		return m
	}
	var s float64
	for _, x := range v {
		s += math.Exp(x - m)
	}
	return m + math.Log(s)
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
