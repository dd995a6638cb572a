package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ErrSplit is returned when a stratified split is impossible for the data.
var ErrSplit = errors.New("stratified split")

// Split holds row indices for each side of a train/test split.
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit partitions row indices so that each class keeps roughly
// its share on both sides. The test side gets ceil(testSize*n) rows. The
// same labels, testSize and seed always produce the same split.
func StratifiedSplit(labels []string, testSize float64, seed int64) (Split, error) {
	n := len(labels)
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("%w: test size %.3f must be in (0, 1)", ErrSplit, testSize)
	}

	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest

	classes, byClass := groupByClass(labels)
	for _, c := range classes {
		if len(byClass[c]) < 2 {
			return Split{}, fmt.Errorf("%w: class %q has %d member(s), need at least 2", ErrSplit, c, len(byClass[c]))
		}
	}
	if nTrain < len(classes) {
		return Split{}, fmt.Errorf("%w: train size %d is smaller than the %d classes", ErrSplit, nTrain, len(classes))
	}
	if nTest < len(classes) {
		return Split{}, fmt.Errorf("%w: test size %d is smaller than the %d classes", ErrSplit, nTest, len(classes))
	}

	counts := make([]int, len(classes))
	for i, c := range classes {
		counts[i] = len(byClass[c])
	}
	trainAlloc := allocate(counts, nTrain)
	remaining := make([]int, len(counts))
	for i := range counts {
		remaining[i] = counts[i] - trainAlloc[i]
	}
	testAlloc := allocate(remaining, nTest)

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible split, not security sensitive
	split := Split{Train: make([]int, 0, nTrain), Test: make([]int, 0, nTest)}
	for i, c := range classes {
		members := byClass[c]
		perm := rng.Perm(len(members))
		for j := range trainAlloc[i] {
			split.Train = append(split.Train, members[perm[j]])
		}
		for j := trainAlloc[i]; j < trainAlloc[i]+testAlloc[i]; j++ {
			split.Test = append(split.Test, members[perm[j]])
		}
	}

	shuffle(rng, split.Train)
	shuffle(rng, split.Test)
	return split, nil
}

func groupByClass(labels []string) ([]string, map[string][]int) {
	byClass := make(map[string][]int)
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	classes := make([]string, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes, byClass
}

// allocate distributes draws across classes proportionally to counts using
// the largest-remainder method. Ties go to the earlier class. No class gets
// more than its count.
func allocate(counts []int, draws int) []int {
	total := 0
	for _, c := range counts {
		total += c
	}
	alloc := make([]int, len(counts))
	if total == 0 || draws <= 0 {
		return alloc
	}

	type remainder struct {
		idx  int
		frac float64
	}
	rems := make([]remainder, len(counts))
	assigned := 0
	for i, c := range counts {
		exact := float64(c) * float64(draws) / float64(total)
		alloc[i] = int(math.Floor(exact))
		assigned += alloc[i]
		rems[i] = remainder{idx: i, frac: exact - float64(alloc[i])}
	}

	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for left := draws - assigned; left > 0; {
		progressed := false
		for _, r := range rems {
			if left == 0 {
				break
			}
			if alloc[r.idx] < counts[r.idx] {
				alloc[r.idx]++
				left--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return alloc
}

func shuffle(rng *rand.Rand, idx []int) {
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
}
