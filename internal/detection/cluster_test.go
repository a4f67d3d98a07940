package detection

import (
	"testing"

	"github.com/ironsheep/corner-tools-mcp/internal/queue"
)

func TestClusterCorners(t *testing.T) {
	points := []queue.Point2D{
		{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 6, Y: 0}, // chain linked by 3px steps
		{X: 50, Y: 50}, {X: 52, Y: 51},
		{X: 100, Y: 0},
	}

	result := ClusterCorners(points, 4)

	if result.Count() != 3 {
		t.Fatalf("Count: got %d, want 3", result.Count())
	}
	want := []int{0, 0, 0, 1, 1, 2}
	for i, id := range want {
		if result.Assignments[i] != id {
			t.Errorf("Assignments[%d]: got %d, want %d", i, result.Assignments[i], id)
		}
	}
	wantSizes := []int{3, 2, 1}
	for i, n := range wantSizes {
		if result.Sizes[i] != n {
			t.Errorf("Sizes[%d]: got %d, want %d", i, result.Sizes[i], n)
		}
	}
}

func TestClusterCorners_DistanceIsInclusive(t *testing.T) {
	points := []queue.Point2D{{X: 0, Y: 0}, {X: 3, Y: 4}}

	if got := ClusterCorners(points, 5).Count(); got != 1 {
		t.Errorf("distance 5: got %d clusters, want 1", got)
	}
	if got := ClusterCorners(points, 4.9).Count(); got != 2 {
		t.Errorf("distance 4.9: got %d clusters, want 2", got)
	}
}

func TestClusterCorners_NegativeCoordinates(t *testing.T) {
	points := []queue.Point2D{{X: -1, Y: -1}, {X: 1, Y: 1}}
	if got := ClusterCorners(points, 3).Count(); got != 1 {
		t.Errorf("got %d clusters, want 1", got)
	}
}

func TestClusterCorners_Empty(t *testing.T) {
	result := ClusterCorners(nil, 10)
	if result.Count() != 0 || len(result.Assignments) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestClusterCorners_NegativeDistanceLinksNothing(t *testing.T) {
	points := []queue.Point2D{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 0}}

	result := ClusterCorners(points, -2)
	if result.Count() != len(points) {
		t.Fatalf("Count: got %d, want %d", result.Count(), len(points))
	}
	for i := range points {
		if result.Assignments[i] != i || result.Sizes[i] != 1 {
			t.Errorf("corner %d: cluster %d of size %d", i, result.Assignments[i], result.Sizes[i])
		}
	}

	// zero still joins corners at the same position
	if got := ClusterCorners(points, 0).Count(); got != 2 {
		t.Errorf("distance 0: got %d clusters, want 2", got)
	}
}
