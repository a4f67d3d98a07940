package detection

import (
	"math"

	"github.com/eapache/queue"

	corners "github.com/ironsheep/corner-tools-mcp/internal/queue"
)

// ClusterResult assigns every corner to a group of nearby corners.
type ClusterResult struct {
	// Assignments holds the cluster id of each corner, in input order.
	Assignments []int `json:"assignments"`

	// Sizes holds the number of corners in each cluster, indexed by id.
	Sizes []int `json:"sizes"`
}

// Count returns the number of clusters.
func (r *ClusterResult) Count() int {
	return len(r.Sizes)
}

// ClusterCorners groups corners that are linked by chains of neighbors no
// farther apart than maxDistance. Cluster ids are assigned in order of each
// cluster's first corner. A negative maxDistance links nothing, so every
// corner is its own cluster; zero links only identical positions.
//
// Neighbors are found through a uniform grid with cell size maxDistance and
// clusters are grown breadth-first, so the cost is roughly linear in the
// number of corners for sparse point sets.
func ClusterCorners(points []corners.Point2D, maxDistance float64) *ClusterResult {
	result := &ClusterResult{Assignments: make([]int, len(points))}
	for i := range result.Assignments {
		result.Assignments[i] = -1
	}
	if len(points) == 0 {
		return result
	}
	if maxDistance < 0 {
		result.Sizes = make([]int, len(points))
		for i := range points {
			result.Assignments[i] = i
			result.Sizes[i] = 1
		}
		return result
	}

	cell := math.Max(maxDistance, 1)
	type key struct{ cx, cy int }
	keyOf := func(p corners.Point2D) key {
		return key{int(math.Floor(float64(p.X) / cell)), int(math.Floor(float64(p.Y) / cell))}
	}

	grid := make(map[key][]int)
	for i, p := range points {
		k := keyOf(p)
		grid[k] = append(grid[k], i)
	}

	limit := maxDistance * maxDistance
	pending := queue.New()

	for seed := range points {
		if result.Assignments[seed] >= 0 {
			continue
		}
		id := len(result.Sizes)
		result.Sizes = append(result.Sizes, 0)
		result.Assignments[seed] = id
		pending.Add(seed)

		for pending.Length() > 0 {
			i := pending.Remove().(int)
			result.Sizes[id]++

			p := points[i]
			k := keyOf(p)
			for cy := k.cy - 1; cy <= k.cy+1; cy++ {
				for cx := k.cx - 1; cx <= k.cx+1; cx++ {
					for _, j := range grid[key{cx, cy}] {
						if result.Assignments[j] >= 0 {
							continue
						}
						dx := float64(points[j].X - p.X)
						dy := float64(points[j].Y - p.Y)
						if dx*dx+dy*dy <= limit {
							result.Assignments[j] = id
							pending.Add(j)
						}
					}
				}
			}
		}
	}

	return result
}
