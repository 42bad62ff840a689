package search

// deriveSeed maps (base, n) to an independent RNG seed via splitmix64.
// Trials and folds get their own deterministic seed streams, so scores
// do not depend on scheduling order.
func deriveSeed(base uint64, n uint64) uint64 {
	z := base + (n+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
