// Package detection implements a generic corner detection pipeline.
//
// # Pipeline
//
// A Detector processes a gray image in four stages:
//
//  1. Gradient: Sobel derivatives (imaging.Sobel)
//  2. Intensity: a corner response per pixel (Harris or Shi-Tomasi)
//  3. Extraction: non-maximum suppression writing corner candidates into
//     recyclable queue.Corners, either over every pixel or only over the
//     candidates an intensity offers (Config.UseCandidates)
//  4. Selection: the N strongest candidates
//
// Every stage writes into buffers owned by the Detector. Derivative and
// intensity images come from a shared recycle.Stack so detectors that are
// created and dropped per request do not reallocate them, and corner queues
// keep their slots across frames.
//
// # Thresholds
//
// Intensity values depend on image contrast and window size, so an absolute
// threshold rarely transfers between images. Config.RelativeThreshold
// expresses the threshold as a fraction of the strongest response in the
// frame instead. Maximums and minimums have separate thresholds.
//
// # Coordinate System
//
// Corner coordinates are pixel positions in the processed gray image, with
// (0,0) at the top-left corner.
//
// # Limitations
//
//   - Corners are reported at integer pixel precision
//   - Non-maximum suppression still checks a full window per candidate, so
//     Radius and NonMaxRadius are capped at MaxRadius
package detection
