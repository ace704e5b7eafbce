package webgpu

const (
	// workgroupSize is the default number of threads per workgroup.
	workgroupSize = 256

	// tileSize is the edge of the 2D workgroups used by matmul and transpose.
	tileSize = 16

	// maxWorkgroupsPerDim is the WebGPU default limit on workgroups per dimension.
	maxWorkgroupsPerDim = 65535
)

// linearGrid returns the dispatch size for n invocations in workgroups of
// groupSize threads. Counts above the per-dimension limit spill into y;
// stride is the number of invocations covered by one y step.
func linearGrid(n, groupSize int) (x, y, stride uint32) {
	groups := max((n+groupSize-1)/groupSize, 1)
	if groups <= maxWorkgroupsPerDim {
		//nolint:gosec // G115: bounded by maxWorkgroupsPerDim.
		return uint32(groups), 1, uint32(groups * groupSize)
	}
	rowsOfGroups := (groups + maxWorkgroupsPerDim - 1) / maxWorkgroupsPerDim
	//nolint:gosec // G115: bounded by maxWorkgroupsPerDim.
	return maxWorkgroupsPerDim, uint32(rowsOfGroups), uint32(maxWorkgroupsPerDim * groupSize)
}

// tiledGrid returns the dispatch size for a rows x cols output computed by
// tileSize x tileSize workgroups. Row tiles above the limit spill into z;
// rowStride is the number of rows covered by one z step.
func tiledGrid(rows, cols int) (x, y, z, rowStride uint32) {
	colTiles := max((cols+tileSize-1)/tileSize, 1)
	rowTiles := max((rows+tileSize-1)/tileSize, 1)

	//nolint:gosec // G115: tile counts are positive and small.
	x = uint32(colTiles)
	if rowTiles <= maxWorkgroupsPerDim {
		//nolint:gosec // G115: bounded by maxWorkgroupsPerDim.
		return x, uint32(rowTiles), 1, uint32(rowTiles * tileSize)
	}
	//nolint:gosec // G115: bounded by maxWorkgroupsPerDim.
	return x, maxWorkgroupsPerDim, uint32((rowTiles + maxWorkgroupsPerDim - 1) / maxWorkgroupsPerDim), maxWorkgroupsPerDim * tileSize
}
