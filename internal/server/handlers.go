package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/corner-tools-mcp/internal/detection"
	"github.com/ironsheep/corner-tools-mcp/internal/imaging"
	"github.com/ironsheep/corner-tools-mcp/internal/queue"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_detect_corners").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	entry := s.log.WithFields(logrus.Fields{
		"tool":     params.Name,
		"duration": time.Since(start),
	})
	if err != nil {
		entry.WithError(err).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	entry.Debug("tool completed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Runs a pooled detector and converts its corners to source coordinates
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Corner Detection
	case "image_detect_corners":
		return s.handleImageDetectCorners(args)
	case "image_cluster_corners":
		return s.handleImageClusterCorners(args)
	case "image_render_corners":
		return s.handleImageRenderCorners(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

var errPathRequired = errors.New("path is required")

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Corner Detection Handlers ===

// detectArgs are the arguments shared by every corner tool. Pointer fields
// distinguish an explicit zero from an omitted value.
type detectArgs struct {
	Path              string          `json:"path"`
	Algorithm         string          `json:"algorithm"`
	Radius            int             `json:"radius"`
	Threshold         float64         `json:"threshold"`
	ThresholdMin      *float64        `json:"threshold_min"`
	RelativeThreshold *float64        `json:"relative_threshold"`
	NonMaxRadius      int             `json:"non_max_radius"`
	MaxFeatures       *int            `json:"max_features"`
	DetectMaximums    *bool           `json:"detect_maximums"`
	DetectMinimums    bool            `json:"detect_minimums"`
	UseCandidates     bool            `json:"use_candidates"`
	Region            *imaging.Region `json:"region"`
	MaxDimension      *int            `json:"max_dimension"`
	BlurRadius        float64         `json:"blur_radius"`
}

// config applies the call's overrides to base.
func (a *detectArgs) config(base detection.Config) detection.Config {
	cfg := base
	if a.Algorithm != "" {
		cfg.Algorithm = a.Algorithm
	}
	if a.Radius != 0 {
		cfg.Radius = a.Radius
	}
	if a.NonMaxRadius != 0 {
		cfg.NonMaxRadius = a.NonMaxRadius
	}
	if a.RelativeThreshold != nil {
		cfg.RelativeThreshold = *a.RelativeThreshold
	}
	if a.MaxFeatures != nil {
		cfg.MaxFeatures = *a.MaxFeatures
	}
	if a.DetectMaximums != nil {
		cfg.DetectMaximums = *a.DetectMaximums
	}
	cfg.ThresholdMax = a.Threshold
	cfg.ThresholdMin = a.Threshold
	if a.ThresholdMin != nil {
		cfg.ThresholdMin = *a.ThresholdMin
	}
	cfg.DetectMinimums = a.DetectMinimums
	cfg.UseCandidates = a.UseCandidates
	return cfg
}

// cornerRun is the outcome of one detector pass, already mapped into source
// image coordinates.
type cornerRun struct {
	source    image.Image
	prepared  *imaging.Prepared
	algorithm string
	corners   []queue.Point2D
	minimums  []queue.Point2D
	threshold float64
	thrMin    float64
	stats     detection.IntensityStats
	width     int
	height    int
}

// detect loads, prepares and runs a pooled detector on the image named by a.
//
// The detector is reconfigured for this call, its scratch images go back to
// the shared buffer stack, and it is recycled for the next call. Corner queue
// contents are copied out before recycling since they are overwritten by the
// next Process.
func (s *Server) detect(a *detectArgs) (*cornerRun, error) {
	if a.Path == "" {
		return nil, errPathRequired
	}
	cfg := a.config(s.base)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	maxDim := s.cfg.MaxDimension
	if a.MaxDimension != nil {
		maxDim = *a.MaxDimension
	}
	prepared, err := imaging.Prepare(img, imaging.PrepareOptions{
		Region:       a.Region,
		MaxDimension: maxDim,
		BlurRadius:   a.BlurRadius,
	})
	if err != nil {
		return nil, err
	}
	gray := imaging.FromImage(prepared.Image, nil)

	d := s.detectors.Pop()
	defer func() {
		d.Release()
		s.detectors.Recycle(d)
	}()
	if err := d.Configure(cfg); err != nil {
		return nil, err
	}
	d.Process(gray)

	run := &cornerRun{
		source:    img,
		prepared:  prepared,
		algorithm: cfg.Algorithm,
		corners:   toSource(prepared, d.Maximums()),
		threshold: d.ThresholdMax(),
		width:     gray.Width,
		height:    gray.Height,
	}
	if d.DetectMinimums() {
		run.minimums = toSource(prepared, d.Minimums())
		run.thrMin = d.ThresholdMin()
	}
	run.stats, _ = detection.Stats(d.Response())

	s.log.WithFields(logrus.Fields{
		"path":    a.Path,
		"scale_x": prepared.ScaleX,
		"scale_y": prepared.ScaleY,
		"corners": len(run.corners),
		"pooled":  s.detectors.Len(),
	}).Debug("detection finished")
	return run, nil
}

// toSource copies corners out of c, mapping them back to source coordinates.
func toSource(p *imaging.Prepared, c *queue.Corners) []queue.Point2D {
	out := make([]queue.Point2D, 0, c.Size())
	c.Each(func(_ int, pt *queue.Point2D) {
		x, y := p.ToSource(pt.X, pt.Y)
		out = append(out, queue.Point2D{X: x, Y: y})
	})
	return out
}

// DetectCornersResult is returned by image_detect_corners.
type DetectCornersResult struct {
	Algorithm string          `json:"algorithm"`
	Count     int             `json:"count"`
	Corners   []queue.Point2D `json:"corners"`

	// Minimums and ThresholdMin are only present when detect_minimums was
	// requested and the algorithm has minimums.
	Minimums     []queue.Point2D `json:"minimums,omitempty"`
	ThresholdMin float64         `json:"threshold_min,omitempty"`

	Threshold       float64                  `json:"threshold"`
	Stats           detection.IntensityStats `json:"stats"`
	ScaleX          float64                  `json:"scale_x"`
	ScaleY          float64                  `json:"scale_y"`
	ProcessedWidth  int                      `json:"processed_width"`
	ProcessedHeight int                      `json:"processed_height"`
}

func (s *Server) handleImageDetectCorners(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	run, err := s.detect(&a)
	if err != nil {
		return nil, err
	}
	return &DetectCornersResult{
		Algorithm:       run.algorithm,
		Count:           len(run.corners),
		Corners:         run.corners,
		Minimums:        run.minimums,
		ThresholdMin:    run.thrMin,
		Threshold:       run.threshold,
		Stats:           run.stats,
		ScaleX:          run.prepared.ScaleX,
		ScaleY:          run.prepared.ScaleY,
		ProcessedWidth:  run.width,
		ProcessedHeight: run.height,
	}, nil
}

type imageClusterCornersArgs struct {
	detectArgs
	MaxDistance float64 `json:"max_distance"`
}

// ClusteredCorner is a corner with its cluster id.
type ClusteredCorner struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	Cluster int `json:"cluster"`
}

// ClusterCornersResult is returned by image_cluster_corners.
type ClusterCornersResult struct {
	Algorithm    string            `json:"algorithm"`
	MaxDistance  float64           `json:"max_distance"`
	ClusterCount int               `json:"cluster_count"`
	ClusterSizes []int             `json:"cluster_sizes"`
	Corners      []ClusteredCorner `json:"corners"`
}

func (s *Server) handleImageClusterCorners(args json.RawMessage) (interface{}, error) {
	var a imageClusterCornersArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxDistance == 0 {
		a.MaxDistance = 10
	}
	if a.MaxDistance < 0 {
		return nil, fmt.Errorf("max_distance must be positive, got %g", a.MaxDistance)
	}

	run, err := s.detect(&a.detectArgs)
	if err != nil {
		return nil, err
	}

	clusters := detection.ClusterCorners(run.corners, a.MaxDistance)
	result := &ClusterCornersResult{
		Algorithm:    run.algorithm,
		MaxDistance:  a.MaxDistance,
		ClusterCount: clusters.Count(),
		ClusterSizes: clusters.Sizes,
		Corners:      make([]ClusteredCorner, len(run.corners)),
	}
	if result.ClusterSizes == nil {
		result.ClusterSizes = []int{}
	}
	for i, p := range run.corners {
		result.Corners[i] = ClusteredCorner{X: p.X, Y: p.Y, Cluster: clusters.Assignments[i]}
	}
	return result, nil
}

type imageRenderCornersArgs struct {
	detectArgs
	MaxDistance  float64 `json:"max_distance"`
	MarkerColor  string  `json:"marker_color"`
	MarkerRadius int     `json:"marker_radius"`
	ShowLabels   bool    `json:"show_labels"`
}

func (s *Server) handleImageRenderCorners(args json.RawMessage) (interface{}, error) {
	var a imageRenderCornersArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MarkerColor == "" {
		a.MarkerColor = "#FF0000"
	}
	if a.MarkerRadius == 0 {
		a.MarkerRadius = 3
	}

	run, err := s.detect(&a.detectArgs)
	if err != nil {
		return nil, err
	}

	// the overlay is drawn on the full source image, relative to its origin
	origin := run.source.Bounds().Min
	points := make([]queue.Point2D, len(run.corners))
	for i, p := range run.corners {
		points[i] = queue.Point2D{X: p.X - origin.X, Y: p.Y - origin.Y}
	}

	opts := imaging.OverlayOptions{
		MarkerColor:  a.MarkerColor,
		MarkerRadius: a.MarkerRadius,
		ShowLabels:   a.ShowLabels,
	}
	if a.MaxDistance > 0 {
		opts.Clusters = detection.ClusterCorners(run.corners, a.MaxDistance).Assignments
	}
	return imaging.RenderCorners(run.source, points, opts)
}
