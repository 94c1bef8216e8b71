package sim

import "sync/atomic"

// Large primes for the cell hash. Multiplying each signed cell coordinate
// by an independent prime and XOR-folding distributes well even for the
// small coordinate ranges a compact domain produces.
const (
	hashPrimeX = 73856093
	hashPrimeY = 19349663
	hashPrimeZ = 83492791
)

// cell is a signed 3D grid coordinate. Coordinates are unbounded; the
// hash, not the coordinate, is wrapped into the bucket table.
type cell struct {
	x, y, z int32
}

// offset returns the cell shifted by (dx, dy, dz).
func (c cell) offset(dx, dy, dz int32) cell {
	return cell{c.x + dx, c.y + dy, c.z + dz}
}

// cellOf returns the grid cell containing p at the given cell size.
// floor semantics, so negative positions land in negative cells rather
// than collapsing onto cell zero.
func cellOf(p Vec3, cellSize float32) cell {
	return cell{
		x: floor32(p.X / cellSize),
		y: floor32(p.Y / cellSize),
		z: floor32(p.Z / cellSize),
	}
}

func floor32(x float32) int32 {
	i := int32(x)
	if x < 0 && float32(i) != x {
		i--
	}
	return i
}

// spatialIndex groups particles by hashed grid cell using a three-pass
// counting sort: count, prefix sum, scatter. One bucket slot per particle
// is a capacity heuristic; hash collisions between distinct cells are
// legal and rejected downstream by the distance test.
type spatialIndex struct {
	// offsets has tableLen+1 entries. After build, bucket b occupies
	// indices[offsets[b]:offsets[b+1]].
	offsets []int32
	indices []int32
	// cells holds the true cell of each particle, indexed by particle.
	// Consumers compare against it to reject hash-collision false
	// positives; without the check, two of the 27 probed cells landing
	// in one bucket would double-count every neighbor in it.
	cells    []cell
	tableLen int
}

// bucketOf hashes a cell into [0, tableLen).
func (idx *spatialIndex) bucketOf(c cell) int {
	h := uint32(c.x)*hashPrimeX ^ uint32(c.y)*hashPrimeY ^ uint32(c.z)*hashPrimeZ
	return int(h % uint32(idx.tableLen))
}

// bucket returns the particle indices whose cell hashes to the same
// bucket as c. May contain false positives from hash collisions.
func (idx *spatialIndex) bucket(c cell) []int32 {
	b := idx.bucketOf(c)
	return idx.indices[idx.offsets[b]:idx.offsets[b+1]]
}

// build rebuilds the index over the given snapshot. The input order is
// left unmodified; only the offsets and indices arrays are produced.
// The three passes are separated by full barriers (pool.forEach returns
// only after every chunk completes), so relaxed atomic adds are the only
// synchronization the counters need.
func (idx *spatialIndex) build(particles []Particle, cellSize float32, pool *workerPool) {
	n := len(particles)
	idx.tableLen = n
	if n == 0 {
		return
	}

	if cap(idx.offsets) < n+1 {
		idx.offsets = make([]int32, n+1)
		idx.indices = make([]int32, n)
		idx.cells = make([]cell, n)
	}
	idx.offsets = idx.offsets[:n+1]
	idx.indices = idx.indices[:n]
	idx.cells = idx.cells[:n]
	for i := range idx.offsets {
		idx.offsets[i] = 0
	}

	// Count: per-bucket population. Also caches each particle's cell;
	// the slot is exclusive to i, so no synchronization is needed.
	pool.forEach(n, func(start, end int) {
		for i := start; i < end; i++ {
			c := cellOf(particles[i].Pos, cellSize)
			idx.cells[i] = c
			atomic.AddInt32(&idx.offsets[idx.bucketOf(c)], 1)
		}
	})

	// Prefix sum: counts become inclusive end offsets.
	for i := 1; i < len(idx.offsets); i++ {
		idx.offsets[i] += idx.offsets[i-1]
	}

	// Scatter: claim a unique slot per particle by decrementing the
	// bucket's offset. Each bucket ends back at its start offset, which
	// restores the exclusive prefix the bucket lookup expects.
	pool.forEach(n, func(start, end int) {
		for i := start; i < end; i++ {
			b := idx.bucketOf(idx.cells[i])
			slot := atomic.AddInt32(&idx.offsets[b], -1)
			idx.indices[slot] = int32(i)
		}
	})
}
