package cpu

// Split rows of thread groups into contiguous bands, one per worker. Rows
// that do not divide evenly are handed out to the first bands. Workers that
// would receive no rows are omitted.
func scheduleBands(groupRows uint32, workers int) []uint32 {
	if workers < 1 {
		workers = 1
	}
	if uint32(workers) > groupRows {
		workers = int(groupRows)
	}

	bands := make([]uint32, workers)
	if workers == 0 {
		return bands
	}

	base := groupRows / uint32(workers)
	extra := groupRows % uint32(workers)
	for idx := range bands {
		bands[idx] = base
		if uint32(idx) < extra {
			bands[idx]++
		}
	}
	return bands
}
