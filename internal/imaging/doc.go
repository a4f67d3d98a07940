// Package imaging provides the image representations and preprocessing used
// by the corner detectors.
//
// # Gray Images
//
// Gray[T] is a single-band image generic over its pixel type. GrayU8 holds
// detector input, GrayF64 holds derivatives and intensity maps. Images are
// reshaped in place so a detector can reuse the same buffers frame after frame.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y downward. Regions use an inclusive top-left and
// an exclusive bottom-right corner.
//
// # Preprocessing
//
// Prepare crops a region of interest, downscales large images and optionally
// blurs them. The returned Prepared value maps detector coordinates back into
// the source image.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Gray images are not; each detector
// owns its buffers.
package imaging
