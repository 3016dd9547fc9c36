/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package spatial provides a grid-partitioned nearest-point index over a
// curve's screen-space points. It is a read-side cache: version stamps
// from the store and the transform cache decide when a rebuild is due,
// and the index never writes back to either.
//
// The index cycles STALE -> (rebuild) -> FRESH -> (data or transform
// changed) -> STALE for the life of the view. Like the store it is
// confined to the owner goroutine and has no locking.
package spatial

import "math"

const (
	minCellSize   = 4.0
	targetPerCell = 2.0
	fallbackCell  = 16.0
)

// Point is a screen-space position.
type Point struct {
	X, Y float64
}

// Stamp identifies the inputs an index was built from: the owning curve's
// data version and the transform-cache version.
type Stamp struct {
	Data      uint64
	Transform uint64
}

// Index answers nearest-point queries over one curve's projected points.
type Index struct {
	points   []Point
	cellSize float64
	originX  float64
	originY  float64
	cells    map[[2]int][]int

	fresh bool
	stamp Stamp
}

// NewIndex returns an empty, stale index.
func NewIndex() *Index { return &Index{} }

// Fresh reports whether the index matches the given stamps.
func (ix *Index) Fresh(stamp Stamp) bool { return ix.fresh && ix.stamp == stamp }

// Invalidate forces the next Ensure to rebuild.
func (ix *Index) Invalidate() { ix.fresh = false }

// Len returns the number of indexed points.
func (ix *Index) Len() int { return len(ix.points) }

// Ensure lazily rebuilds the index when the stamps moved, calling build
// for the current screen-space points only when needed.
func (ix *Index) Ensure(stamp Stamp, build func() []Point) {
	if ix.Fresh(stamp) {
		return
	}
	ix.Rebuild(build(), stamp)
}

// Rebuild partitions the points into a uniform grid sized to the point
// density, so the average query touches a handful of points.
func (ix *Index) Rebuild(points []Point, stamp Stamp) {
	ix.points = points
	ix.stamp = stamp
	ix.fresh = true
	ix.cells = make(map[[2]int][]int, len(points))
	if len(points) == 0 {
		ix.cellSize = fallbackCell
		return
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	area := (maxX - minX) * (maxY - minY)
	cell := fallbackCell
	if area > 0 {
		cell = math.Sqrt(area / float64(len(points)) * targetPerCell)
		if cell < minCellSize {
			cell = minCellSize
		}
	}
	ix.cellSize = cell
	ix.originX, ix.originY = minX, minY
	for i, p := range points {
		key := ix.cellOf(p.X, p.Y)
		ix.cells[key] = append(ix.cells[key], i)
	}
}

func (ix *Index) cellOf(x, y float64) [2]int {
	return [2]int{
		int(math.Floor((x - ix.originX) / ix.cellSize)),
		int(math.Floor((y - ix.originY) / ix.cellSize)),
	}
}

// FindNearest returns the index of the closest point within maxRadius of
// the query position, or false when none is in range. Only grid cells
// that can contain a hit are inspected. Ties are broken deterministically
// by the lowest point index.
func (ix *Index) FindNearest(sx, sy, maxRadius float64) (int, bool) {
	if len(ix.points) == 0 || maxRadius < 0 {
		return 0, false
	}
	center := ix.cellOf(sx, sy)
	maxRing := int(math.Ceil(maxRadius/ix.cellSize)) + 1
	limit := maxRadius * maxRadius

	best := -1
	bestDist := math.MaxFloat64
	for ring := 0; ring <= maxRing; ring++ {
		// Once a hit exists, no point in ring r can beat it if the ring's
		// minimum possible distance already exceeds it.
		if best >= 0 {
			minPossible := float64(ring-1) * ix.cellSize
			if minPossible > 0 && minPossible*minPossible > bestDist {
				break
			}
		}
		ix.scanRing(center, ring, func(i int) {
			p := ix.points[i]
			dx, dy := p.X-sx, p.Y-sy
			d := dx*dx + dy*dy
			if d > limit {
				return
			}
			if d < bestDist || (d == bestDist && i < best) {
				best, bestDist = i, d
			}
		})
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// scanRing visits every point in the square ring of cells at Chebyshev
// distance ring from the center cell.
func (ix *Index) scanRing(center [2]int, ring int, visit func(i int)) {
	if ring == 0 {
		for _, i := range ix.cells[center] {
			visit(i)
		}
		return
	}
	for dx := -ring; dx <= ring; dx++ {
		for dy := -ring; dy <= ring; dy++ {
			if dx > -ring && dx < ring && dy > -ring && dy < ring {
				continue
			}
			for _, i := range ix.cells[[2]int{center[0] + dx, center[1] + dy}] {
				visit(i)
			}
		}
	}
}
