package detection

import (
	"sort"

	"github.com/ironsheep/corner-tools-mcp/internal/imaging"
	"github.com/ironsheep/corner-tools-mcp/internal/queue"
)

// SelectNBest keeps the strongest corners from a candidate queue.
//
// The zero value is ready to use. The sort scratch space is kept between
// calls.
type SelectNBest struct {
	order []int
}

// Select resets dst and copies into it the n candidates from src with the
// largest intensity (or the most negative when positive is false). When n is
// zero or negative, or src holds no more than n corners, all of src is copied
// in its original order.
func (s *SelectNBest) Select(intensity *imaging.GrayF64, src *queue.Corners, n int, positive bool, dst *queue.Corners) {
	dst.Reset()
	if n <= 0 || src.Size() <= n {
		src.Each(func(_ int, p *queue.Point2D) {
			dst.AddPoint(*p)
		})
		return
	}

	s.order = s.order[:0]
	for i := 0; i < src.Size(); i++ {
		s.order = append(s.order, i)
	}

	value := func(i int) float64 {
		p, _ := src.Get(i)
		v := intensity.Get(p.X, p.Y)
		if !positive {
			return -v
		}
		return v
	}
	sort.SliceStable(s.order, func(a, b int) bool {
		return value(s.order[a]) > value(s.order[b])
	})

	for _, i := range s.order[:n] {
		p, _ := src.Get(i)
		dst.AddPoint(*p)
	}
}
