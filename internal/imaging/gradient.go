package imaging

// Sobel computes the horizontal and vertical image derivatives of src.
//
// dx and dy are reshaped to the size of src. Border pixels use clamped
// (replicated) neighbors, so every output pixel is defined. Kernels:
//
//	    -1 0 1          -1 -2 -1
//	X = -2 0 2      Y =  0  0  0
//	    -1 0 1           1  2  1
func Sobel(src *GrayU8, dx, dy *GrayF64) {
	dx.Reshape(src.Width, src.Height)
	dy.Reshape(src.Width, src.Height)

	w, h := src.Width, src.Height
	for y := 0; y < h; y++ {
		ym := clamp(y-1, 0, h-1)
		yp := clamp(y+1, 0, h-1)
		for x := 0; x < w; x++ {
			xm := clamp(x-1, 0, w-1)
			xp := clamp(x+1, 0, w-1)

			tl := float64(src.Get(xm, ym))
			tc := float64(src.Get(x, ym))
			tr := float64(src.Get(xp, ym))
			ml := float64(src.Get(xm, y))
			mr := float64(src.Get(xp, y))
			bl := float64(src.Get(xm, yp))
			bc := float64(src.Get(x, yp))
			br := float64(src.Get(xp, yp))

			dx.Set(x, y, (tr+2*mr+br)-(tl+2*ml+bl))
			dy.Set(x, y, (bl+2*bc+br)-(tl+2*tc+tr))
		}
	}
}

// clamp constrains val to [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
