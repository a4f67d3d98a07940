package detection

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/corner-tools-mcp/internal/imaging"
	"github.com/ironsheep/corner-tools-mcp/internal/queue"
	"github.com/ironsheep/corner-tools-mcp/internal/recycle"
)

// Algorithm names accepted by Config.Algorithm.
const (
	AlgorithmHarris    = "harris"
	AlgorithmShiTomasi = "shi-tomasi"
)

// MaxRadius bounds Radius and NonMaxRadius.
const MaxRadius = 64

// ErrInvalidConfig is returned for detector settings that cannot be used.
var ErrInvalidConfig = errors.New("detection: invalid config")

// Config selects the corner algorithm and the extraction parameters.
type Config struct {
	Algorithm string `json:"algorithm"`

	// Radius is the half width of the structure tensor window.
	Radius int `json:"radius"`

	// Kappa is the Harris sensitivity. Ignored by Shi-Tomasi.
	Kappa float64 `json:"kappa"`

	// ThresholdMax is the smallest intensity a maximum may have.
	ThresholdMax float64 `json:"threshold_max"`

	// ThresholdMin is the smallest magnitude a minimum may have. Minimums
	// must be at or below -ThresholdMin.
	ThresholdMin float64 `json:"threshold_min"`

	// RelativeThreshold, when positive, raises ThresholdMax to this fraction
	// of the largest intensity in the frame and ThresholdMin to this fraction
	// of the magnitude of the smallest.
	RelativeThreshold float64 `json:"relative_threshold"`

	// NonMaxRadius is the half width of the non-maximum suppression window.
	NonMaxRadius int `json:"non_max_radius"`

	// MaxFeatures limits each corner list to the strongest N. Zero keeps all.
	MaxFeatures int `json:"max_features"`

	// DetectMaximums extracts positive extrema, the corners.
	DetectMaximums bool `json:"detect_maximums"`

	// DetectMinimums also extracts negative extrema (edges for Harris). It
	// has no effect for intensities without minimums.
	DetectMinimums bool `json:"detect_minimums"`

	// UseCandidates restricts non-maximum suppression to the 3x3 peaks of
	// the response instead of every pixel.
	UseCandidates bool `json:"use_candidates"`

	// InitialCapacity is the number of corner slots allocated up front.
	InitialCapacity int `json:"initial_capacity"`
}

// DefaultConfig returns settings that work for typical photographs and
// screenshots.
func DefaultConfig() Config {
	return Config{
		Algorithm:         AlgorithmShiTomasi,
		Radius:            2,
		Kappa:             0.04,
		RelativeThreshold: 0.01,
		NonMaxRadius:      2,
		MaxFeatures:       500,
		DetectMaximums:    true,
		InitialCapacity:   1000,
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.Algorithm != AlgorithmHarris && c.Algorithm != AlgorithmShiTomasi:
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, c.Algorithm)
	case c.Radius < 1:
		return fmt.Errorf("%w: radius must be >= 1, got %d", ErrInvalidConfig, c.Radius)
	case c.Radius > MaxRadius:
		return fmt.Errorf("%w: radius must be <= %d, got %d", ErrInvalidConfig, MaxRadius, c.Radius)
	case c.NonMaxRadius < 1:
		return fmt.Errorf("%w: non-max radius must be >= 1, got %d", ErrInvalidConfig, c.NonMaxRadius)
	case c.NonMaxRadius > MaxRadius:
		return fmt.Errorf("%w: non-max radius must be <= %d, got %d", ErrInvalidConfig, MaxRadius, c.NonMaxRadius)
	case c.ThresholdMax < 0:
		return fmt.Errorf("%w: threshold max must be >= 0, got %v", ErrInvalidConfig, c.ThresholdMax)
	case c.ThresholdMin < 0:
		return fmt.Errorf("%w: threshold min must be >= 0, got %v", ErrInvalidConfig, c.ThresholdMin)
	case c.RelativeThreshold < 0 || c.RelativeThreshold > 1:
		return fmt.Errorf("%w: relative threshold must be in [0,1], got %v", ErrInvalidConfig, c.RelativeThreshold)
	case c.MaxFeatures < 0:
		return fmt.Errorf("%w: max features must be >= 0, got %d", ErrInvalidConfig, c.MaxFeatures)
	case c.InitialCapacity < 0:
		return fmt.Errorf("%w: initial capacity must be >= 0, got %d", ErrInvalidConfig, c.InitialCapacity)
	}
	return nil
}

func (c Config) intensity() Intensity {
	var i Intensity = ShiTomasi{Radius: c.Radius}
	if c.Algorithm == AlgorithmHarris {
		i = Harris{Radius: c.Radius, Kappa: c.Kappa}
	}
	if c.UseCandidates {
		i = NewPeakCandidates(i)
	}
	return i
}

// Detector runs the full corner pipeline: gradient, intensity, non-maximum
// suppression and N-best selection.
//
// Its corner queues and image buffers are reused across calls to Process, so
// the results returned by Maximums and Minimums are only valid until the next
// call. A Detector is not safe for concurrent use.
type Detector struct {
	cfg       Config
	intensity Intensity
	extractor NonMax
	selector  SelectNBest

	buffers          *recycle.Stack[*imaging.GrayF64]
	dx, dy, response *imaging.GrayF64

	detectMin, detectMax bool

	// peak* hold intensity candidates, found* the extractor output before
	// selection.
	peakMin, peakMax   *queue.Corners
	foundMin, foundMax *queue.Corners
	maximums, minimums *queue.Corners
	thresholdMin       float64
	thresholdMax       float64

	log logrus.FieldLogger
}

// NewBufferStack returns a pool of intensity-sized scratch images that several
// detectors can share.
func NewBufferStack() *recycle.Stack[*imaging.GrayF64] {
	return recycle.New(func() *imaging.GrayF64 { return &imaging.GrayF64{} })
}

// NewDetector creates a detector for cfg. Scratch images are taken from
// buffers, which may be shared with other detectors; a nil buffers gets a
// private pool. A nil logger falls back to the logrus standard logger.
func NewDetector(cfg Config, buffers *recycle.Stack[*imaging.GrayF64], logger logrus.FieldLogger) (*Detector, error) {
	if buffers == nil {
		buffers = NewBufferStack()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	d := &Detector{buffers: buffers, log: logger}
	if err := d.Configure(cfg); err != nil {
		return nil, err
	}
	d.peakMax = queue.NewCorners(cfg.InitialCapacity)
	d.peakMin = queue.NewCorners(cfg.InitialCapacity)
	d.foundMax = queue.NewCorners(cfg.InitialCapacity)
	d.foundMin = queue.NewCorners(cfg.InitialCapacity)
	d.maximums = queue.NewCorners(cfg.InitialCapacity)
	d.minimums = queue.NewCorners(cfg.InitialCapacity)
	return d, nil
}

// Configure replaces the detector settings. Corner queues keep their slots.
func (d *Detector) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	intensity := cfg.intensity()
	err := d.Use(intensity, NonMax{
		Radius:         cfg.NonMaxRadius,
		ThresholdMin:   cfg.ThresholdMin,
		ThresholdMax:   cfg.ThresholdMax,
		DetectMaximums: cfg.DetectMaximums,
		DetectMinimums: cfg.DetectMinimums,
		UseCandidates:  cfg.UseCandidates,
	})
	if err != nil {
		return err
	}
	d.cfg = cfg
	return nil
}

// Use installs an intensity and extractor pair directly. The extractor's
// border is widened to the intensity's. Thresholds are taken from the
// extractor and raised by the configured RelativeThreshold.
//
// An extractor with UseCandidates needs an intensity that implements
// CandidateSource; otherwise ErrInvalidConfig is returned and the detector is
// left unchanged.
func (d *Detector) Use(intensity Intensity, extractor NonMax) error {
	if _, ok := intensity.(CandidateSource); extractor.UseCandidates && !ok {
		return fmt.Errorf("%w: extractor needs candidates but %s provides none", ErrInvalidConfig, intensity.Name())
	}
	extractor.IgnoreBorder = max(extractor.IgnoreBorder, intensity.IgnoreBorder())

	d.intensity = intensity
	d.extractor = extractor
	d.cfg.ThresholdMin = extractor.ThresholdMin
	d.cfg.ThresholdMax = extractor.ThresholdMax
	d.detectMin = extractor.DetectMinimums && intensity.LocalMinimums()
	d.detectMax = extractor.DetectMaximums && intensity.LocalMaximums()
	return nil
}

// DetectMinimums reports whether minimums are extracted. Both the settings
// and the intensity must allow it.
func (d *Detector) DetectMinimums() bool {
	return d.detectMin
}

// DetectMaximums reports whether maximums are extracted.
func (d *Detector) DetectMaximums() bool {
	return d.detectMax
}

// Config returns the current settings.
func (d *Detector) Config() Config {
	return d.cfg
}

// SetMaxFeatures changes how many corners of each kind are kept. Zero keeps
// all of them.
func (d *Detector) SetMaxFeatures(n int) {
	d.cfg.MaxFeatures = max(n, 0)
}

// Process detects corners in gray.
func (d *Detector) Process(gray *imaging.GrayU8) {
	start := time.Now()
	d.acquire()

	imaging.Sobel(gray, d.dx, d.dy)
	d.intensity.Process(d.dx, d.dy, d.response)
	d.ProcessIntensity(d.response)

	d.log.WithFields(logrus.Fields{
		"algorithm":  d.intensity.Name(),
		"width":      gray.Width,
		"height":     gray.Height,
		"threshold":  d.thresholdMax,
		"maximums":   d.maximums.Size(),
		"minimums":   d.minimums.Size(),
		"capacity":   d.foundMax.MaxSize(),
		"candidates": d.extractor.UseCandidates,
		"duration":   time.Since(start),
	}).Debug("corners detected")
}

// ProcessIntensity runs extraction and selection on a precomputed intensity
// image. Process calls it after computing the response; it is exported so an
// intensity from another source can be fed through the same extraction. In
// candidate mode the candidates come from the installed intensity's last
// Process call.
func (d *Detector) ProcessIntensity(intensity *imaging.GrayF64) {
	d.thresholdMin, d.thresholdMax = d.cfg.ThresholdMin, d.cfg.ThresholdMax
	if d.cfg.RelativeThreshold > 0 {
		if s, ok := Stats(intensity); ok {
			d.thresholdMax = max(d.thresholdMax, d.cfg.RelativeThreshold*s.Max)
			d.thresholdMin = max(d.thresholdMin, -d.cfg.RelativeThreshold*s.Min)
		}
	}
	d.extractor.ThresholdMin = d.thresholdMin
	d.extractor.ThresholdMax = d.thresholdMax

	var foundMin, foundMax *queue.Corners
	if d.detectMin {
		foundMin = d.foundMin
	}
	if d.detectMax {
		foundMax = d.foundMax
	}

	if d.extractor.UseCandidates {
		resetAll(d.peakMin, d.peakMax)
		peakMin, peakMax := d.peakMin, d.peakMax
		if foundMin == nil {
			peakMin = nil
		}
		if foundMax == nil {
			peakMax = nil
		}
		d.intensity.(CandidateSource).Candidates(peakMin, peakMax)
		d.extractor.ProcessCandidates(intensity, peakMin, peakMax, foundMin, foundMax)
	} else {
		d.extractor.Process(intensity, foundMin, foundMax)
	}

	d.maximums.Reset()
	d.minimums.Reset()
	if foundMax != nil {
		d.selector.Select(intensity, foundMax, d.cfg.MaxFeatures, true, d.maximums)
	}
	if foundMin != nil {
		d.selector.Select(intensity, foundMin, d.cfg.MaxFeatures, false, d.minimums)
	}
}

// Maximums returns the corners found by the last Process call.
func (d *Detector) Maximums() *queue.Corners {
	return d.maximums
}

// Minimums returns the negative extrema found by the last Process call. It is
// empty unless DetectMinimums reports true.
func (d *Detector) Minimums() *queue.Corners {
	return d.minimums
}

// Response returns the intensity image of the last Process call, or nil after
// Release.
func (d *Detector) Response() *imaging.GrayF64 {
	return d.response
}

// ThresholdMax returns the maximum threshold applied by the last extraction.
func (d *Detector) ThresholdMax() float64 {
	return d.thresholdMax
}

// ThresholdMin returns the minimum threshold magnitude applied by the last
// extraction.
func (d *Detector) ThresholdMin() float64 {
	return d.thresholdMin
}

// Release hands the scratch images back to the shared pool. The next Process
// call takes new ones. Corner queues are kept.
func (d *Detector) Release() {
	for _, b := range []*imaging.GrayF64{d.dx, d.dy, d.response} {
		if b != nil {
			d.buffers.Recycle(b)
		}
	}
	d.dx, d.dy, d.response = nil, nil, nil
}

func (d *Detector) acquire() {
	if d.dx == nil {
		d.dx = d.buffers.Pop()
	}
	if d.dy == nil {
		d.dy = d.buffers.Pop()
	}
	if d.response == nil {
		d.response = d.buffers.Pop()
	}
}
