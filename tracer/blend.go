package tracer

// Get the running mean weights for sample index n. The first sample (n = 0)
// fully replaces the accumulated value.
func BlendWeights(n uint32) (wOld, wNew float64) {
	wNew = 1.0 / (float64(n) + 1.0)
	wOld = float64(n) / (float64(n) + 1.0)
	return wOld, wNew
}
