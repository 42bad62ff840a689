package mask

import (
	"math"
	"math/rand/v2"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/nmftune/spectral"
)

// Fold is one train/test mask pair. Train and Test are disjoint by
// construction; Test across all folds of a split partitions the sampled
// eligible entries.
type Fold struct {
	Train *Mask
	Test  *Mask
}

// Result carries the folds of one split together with sampling
// diagnostics.
type Result struct {
	Folds []Fold

	// Eligible is the number of entries that qualified for sampling:
	// non-zero cells outside the excluded edge columns (every interior
	// cell under MaskAll, every cell of an interior scan under the
	// ScanSplitter).
	Eligible int

	// HeldOut is the realized number of held-out eligible entries per
	// fold (the last fold may hold one fewer when the partition does
	// not divide evenly).
	HeldOut int

	// Clamped reports that the requested held-out size exceeded the
	// eligible set and was clamped down. Low-data condition; the split
	// is still usable.
	Clamped bool
}

// Splitter produces K disjoint train/test mask pairs for entry-level
// cross-validation of one spectral matrix.
//
// The held-out size per fold resolves SamplingFraction and SamplingFloor
// as target = max(SamplingFloor, round(SamplingFraction * eligible)),
// clamped to the eligible count. With NSplits == 1 the degenerate
// single-split mode holds out TestFraction of the eligible entries
// instead. With SamplingFraction == 1/NSplits the K test masks
// partition the entire eligible set.
type Splitter struct {
	// NSplits is the number of folds K. Must be >= 1.
	NSplits int

	// TestFraction is the held-out proportion in single-split mode.
	TestFraction float64

	// SamplingFraction is the per-fold held-out proportion of the
	// eligible set in K-fold mode.
	SamplingFraction float64

	// SamplingFloor is the lower bound on the per-fold held-out count.
	SamplingFloor int

	// ExcludeEdges excludes the first and last n scan columns from
	// sampling, on top of the window's own edge exclusion.
	ExcludeEdges int

	// BalanceSignal additionally holds out structural-zero cells at the
	// same rate as signal cells, so test error is not estimated on
	// signal cells alone. Balance cells appear only in test masks.
	BalanceSignal bool

	// MaskAll samples from every interior cell instead of signal
	// (non-zero) cells only. BalanceSignal has no effect in this mode.
	MaskAll bool

	// Seed drives the deterministic partition. Identical seed, matrix
	// and parameters yield bit-identical masks.
	Seed uint64
}

// Split partitions the eligible entries of m into NSplits train/test
// mask pairs. It returns ErrInsufficientData if no entry is eligible.
func (s *Splitter) Split(m *spectral.Matrix) (*Result, error) {
	rows, cols := m.Dims()

	edge := s.ExcludeEdges
	if we := m.Window().EdgeExclusion(); we > edge {
		edge = we
	}

	nsplits := s.NSplits
	if nsplits < 1 {
		nsplits = 1
	}

	eligible, zeros := s.partitionCells(m, rows, cols, edge)
	if len(eligible) == 0 {
		return nil, &InsufficientDataError{Rows: rows, Cols: cols, ExcludedEdges: edge}
	}

	perFold, clamped := s.heldOutSize(len(eligible), nsplits)

	rng := rand.New(rand.NewPCG(s.Seed, uint64(rows)<<32|uint64(cols)))
	rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})

	total := perFold * nsplits
	if total > len(eligible) {
		total = len(eligible)
	}

	// Deal the sampled prefix round-robin so every sampled entry lands
	// in exactly one test mask.
	testSets := make([]*roaring.Bitmap, nsplits)
	for k := range testSets {
		testSets[k] = roaring.New()
	}
	for i := 0; i < total; i++ {
		testSets[i%nsplits].Add(eligible[i])
	}

	allEligible := roaring.New()
	allEligible.AddMany(eligible)

	res := &Result{
		Folds:    make([]Fold, nsplits),
		Eligible: len(eligible),
		HeldOut:  perFold,
		Clamped:  clamped,
	}

	for k := 0; k < nsplits; k++ {
		test := testSets[k]

		if s.BalanceSignal && len(zeros) > 0 {
			s.balance(rng, test, zeros, len(eligible))
		}

		train := allEligible.Clone()
		train.AndNot(test)

		res.Folds[k] = Fold{
			Train: newMask(rows, cols, train),
			Test:  newMask(rows, cols, test),
		}
	}

	return res, nil
}

// partitionCells collects the flattened indices of eligible (non-zero,
// interior) and structural-zero interior cells. With MaskAll every
// interior cell is eligible and zeros stays empty.
func (s *Splitter) partitionCells(m *spectral.Matrix, rows, cols, edge int) (eligible, zeros []uint32) {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if j < edge || j >= cols-edge {
				continue
			}
			idx := uint32(i*cols + j)
			if s.MaskAll || m.At(i, j) > 0 {
				eligible = append(eligible, idx)
			} else {
				zeros = append(zeros, idx)
			}
		}
	}
	return eligible, zeros
}

// heldOutSize resolves the per-fold held-out count.
func (s *Splitter) heldOutSize(eligible, nsplits int) (perFold int, clamped bool) {
	if nsplits == 1 {
		perFold = int(math.Round(s.TestFraction * float64(eligible)))
	} else {
		perFold = int(math.Round(s.SamplingFraction * float64(eligible)))
	}
	if perFold < s.SamplingFloor {
		perFold = s.SamplingFloor
	}
	if perFold > eligible {
		perFold = eligible
		clamped = true
	}
	if perFold < 1 {
		perFold = 1
	}
	return perFold, clamped
}

// balance adds structural-zero cells to the test set at the realized
// signal mask rate.
func (s *Splitter) balance(rng *rand.Rand, test *roaring.Bitmap, zeros []uint32, eligible int) {
	rate := float64(test.GetCardinality()) / float64(eligible+len(zeros))
	for _, idx := range zeros {
		if rng.Float64() < rate {
			test.Add(idx)
		}
	}
}
