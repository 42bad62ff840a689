package mask

import (
	"math"
	"math/rand/v2"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/nmftune/spectral"
)

// ScanSplitter holds out whole scans instead of individual entries:
// each fold's test mask covers every cell of its held-out scan
// columns, and its train mask covers every cell of the remaining
// interior scans. Scan holdout probes whether a factorization can
// interpolate entire missing spectra, a harder test than entry-level
// masking.
//
// The held-out scan count per fold resolves like Splitter's entry
// count: max(1, round(fraction * interior scans)), clamped to the
// interior. Test scans across all folds of a split partition the
// sampled interior scans.
type ScanSplitter struct {
	// NSplits is the number of folds K. Must be >= 1.
	NSplits int

	// TestFraction is the held-out scan proportion in single-split mode.
	TestFraction float64

	// SamplingFraction is the per-fold held-out scan proportion of the
	// interior scans in K-fold mode.
	SamplingFraction float64

	// ExcludeEdges excludes the first and last n scan columns from
	// sampling, on top of the window's own edge exclusion.
	ExcludeEdges int

	// Seed drives the deterministic scan selection.
	Seed uint64
}

// Split partitions the interior scans of m into NSplits train/test
// mask pairs of whole columns.
func (s *ScanSplitter) Split(m *spectral.Matrix) (*Result, error) {
	rows, cols := m.Dims()

	edge := s.ExcludeEdges
	if we := m.Window().EdgeExclusion(); we > edge {
		edge = we
	}

	nsplits := s.NSplits
	if nsplits < 1 {
		nsplits = 1
	}

	interior := make([]int, 0, cols)
	for j := edge; j < cols-edge; j++ {
		interior = append(interior, j)
	}
	if len(interior) == 0 {
		return nil, &InsufficientDataError{Rows: rows, Cols: cols, ExcludedEdges: edge}
	}

	fraction := s.SamplingFraction
	if nsplits == 1 {
		fraction = s.TestFraction
	}
	perFold := int(math.Round(fraction * float64(len(interior))))
	clamped := false
	if perFold > len(interior) {
		perFold = len(interior)
		clamped = true
	}
	if perFold < 1 {
		perFold = 1
	}

	rng := rand.New(rand.NewPCG(s.Seed, uint64(rows)<<32|uint64(cols)))
	rng.Shuffle(len(interior), func(i, j int) {
		interior[i], interior[j] = interior[j], interior[i]
	})

	total := perFold * nsplits
	if total > len(interior) {
		total = len(interior)
	}

	testCols := make([][]int, nsplits)
	for i := 0; i < total; i++ {
		k := i % nsplits
		testCols[k] = append(testCols[k], interior[i])
	}

	res := &Result{
		Folds:    make([]Fold, nsplits),
		Eligible: len(interior) * rows,
		HeldOut:  perFold * rows,
		Clamped:  clamped,
	}

	for k := 0; k < nsplits; k++ {
		held := make(map[int]bool, len(testCols[k]))
		test := roaring.New()
		for _, j := range testCols[k] {
			held[j] = true
			addColumn(test, rows, cols, j)
		}

		train := roaring.New()
		for _, j := range interior {
			if held[j] {
				continue
			}
			addColumn(train, rows, cols, j)
		}

		res.Folds[k] = Fold{
			Train: newMask(rows, cols, train),
			Test:  newMask(rows, cols, test),
		}
	}

	return res, nil
}

// addColumn marks every cell of scan column j.
func addColumn(set *roaring.Bitmap, rows, cols, j int) {
	for i := 0; i < rows; i++ {
		set.Add(uint32(i*cols + j))
	}
}
