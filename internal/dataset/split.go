package dataset

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// SplitName identifies one partition of the corpus.
type SplitName string

// Split names, also used as output directory names.
const (
	Train SplitName = "train"
	Val   SplitName = "val"
	Test  SplitName = "test"
)

// Split is one named, ordered partition.
type Split struct {
	Name  SplitName
	Files []string
}

// Assignment is the partition of a corpus into three disjoint sequences.
// It is computed once per run and never modified afterwards.
type Assignment struct {
	Seed  uint64
	Train []string
	Val   []string
	Test  []string
}

// Partition shuffles files with a PCG source seeded by seed and cuts the
// result at floor(0.8N) and floor(0.9N). The input slice is not modified.
func Partition(files []string, seed uint64) Assignment {
	shuffled := slices.Clone(files)
	rng := rand.New(rand.NewPCG(seed, pcgStream))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := len(shuffled)
	trainEnd := n * trainTenths / tenths
	valEnd := n * valTenths / tenths

	return Assignment{
		Seed:  seed,
		Train: shuffled[:trainEnd:trainEnd],
		Val:   shuffled[trainEnd:valEnd:valEnd],
		Test:  shuffled[valEnd:],
	}
}

// Splits returns the partitions in processing order: train, val, test.
func (a Assignment) Splits() []Split {
	return []Split{
		{Name: Train, Files: a.Train},
		{Name: Val, Files: a.Val},
		{Name: Test, Files: a.Test},
	}
}

// Len returns the total number of assigned files.
func (a Assignment) Len() int {
	return len(a.Train) + len(a.Val) + len(a.Test)
}

// Sizes returns the number of files in each split.
func (a Assignment) Sizes() map[SplitName]int {
	return map[SplitName]int{
		Train: len(a.Train),
		Val:   len(a.Val),
		Test:  len(a.Test),
	}
}

// Lookup returns the split a file was assigned to.
func (a Assignment) Lookup(path string) (SplitName, bool) {
	for _, s := range a.Splits() {
		if slices.Contains(s.Files, path) {
			return s.Name, true
		}
	}
	return "", false
}

func (a Assignment) String() string {
	return fmt.Sprintf("train=%d val=%d test=%d seed=%d", len(a.Train), len(a.Val), len(a.Test), a.Seed)
}
