package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"testing"

	"github.com/ironsheep/corner-tools-mcp/internal/queue"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writeTestImage(t, img)
}

// createSquaresImageFile creates a black image with filled white squares.
// Each square is given as x1, y1, x2, y2 with inclusive bounds.
func createSquaresImageFile(t *testing.T, width, height int, squares ...[4]int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.Black)
		}
	}
	for _, sq := range squares {
		for y := sq[1]; y <= sq[3]; y++ {
			for x := sq[0]; x <= sq[2]; x++ {
				img.Set(x, y, color.White)
			}
		}
	}
	return writeTestImage(t, img)
}

func writeTestImage(t *testing.T, img image.Image) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to encode image: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	return tmpFile.Name()
}

func toolRequest(t *testing.T, name string, args map[string]interface{}) *MCPRequest {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	return &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	}
}

// callTool runs a tool through tools/call and decodes the JSON text content into out
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) {
	t.Helper()

	resp := s.handleToolsCall(toolRequest(t, name, args))
	if resp.Error != nil {
		t.Fatalf("%s failed: %s (%v)", name, resp.Error.Message, resp.Error.Data)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
		t.Fatalf("failed to decode %s result: %v", name, err)
	}
}

func nearestCorner(corners []queue.Point2D, x, y int) float64 {
	best := math.Inf(1)
	for _, p := range corners {
		if d := math.Hypot(float64(p.X-x), float64(p.Y-y)); d < best {
			best = d
		}
	}
	return best
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var info struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}, &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("size: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 200, 150, color.RGBA{0, 255, 0, 255})

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	callTool(t, s, "image_dimensions", map[string]interface{}{"path": imgPath}, &dims)

	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("size: got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	imgPath := createTestImageFile(t, 50, 50, color.White)

	tests := []struct {
		name string
		tool string
		args map[string]interface{}
	}{
		{"non-existent file", "image_load", map[string]interface{}{"path": "/nonexistent/image.png"}},
		{"missing path", "image_load", map[string]interface{}{}},
		{"missing path for detection", "image_detect_corners", map[string]interface{}{}},
		{"unknown tool", "nonexistent_tool", map[string]interface{}{}},
		{"unknown algorithm", "image_detect_corners", map[string]interface{}{"path": imgPath, "algorithm": "fast"}},
		{"relative threshold above one", "image_detect_corners", map[string]interface{}{"path": imgPath, "relative_threshold": 2}},
		{"radius above limit", "image_detect_corners", map[string]interface{}{"path": imgPath, "radius": 65}},
		{"negative threshold_min", "image_detect_corners", map[string]interface{}{"path": imgPath, "threshold_min": -1}},
		{"region outside image", "image_detect_corners", map[string]interface{}{
			"path":   imgPath,
			"region": map[string]interface{}{"x1": 0, "y1": 0, "x2": 80, "y2": 20},
		}},
		{"empty region", "image_detect_corners", map[string]interface{}{
			"path":   imgPath,
			"region": map[string]interface{}{"x1": 10, "y1": 10, "x2": 10, "y2": 20},
		}},
		{"negative max distance", "image_cluster_corners", map[string]interface{}{"path": imgPath, "max_distance": -1}},
	}

	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.handleToolsCall(toolRequest(t, tt.tool, tt.args))
			if resp.Error == nil {
				t.Fatal("expected an error response")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{invalid`),
	}

	resp := s.handleToolsCall(req)
	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestHandleToolsCall_DetectCorners(t *testing.T) {
	imgPath := createSquaresImageFile(t, 60, 60, [4]int{20, 20, 39, 39})

	for _, algorithm := range []string{"harris", "shi-tomasi"} {
		t.Run(algorithm, func(t *testing.T) {
			s := newTestServer()

			var result DetectCornersResult
			callTool(t, s, "image_detect_corners", map[string]interface{}{
				"path":               imgPath,
				"algorithm":          algorithm,
				"relative_threshold": 0.1,
			}, &result)

			if result.Algorithm != algorithm {
				t.Errorf("Algorithm: got %s, want %s", result.Algorithm, algorithm)
			}
			if result.Count != len(result.Corners) || result.Count < 4 {
				t.Fatalf("Count: got %d with %d corners, want at least 4", result.Count, len(result.Corners))
			}
			for _, c := range [][2]int{{20, 20}, {39, 20}, {20, 39}, {39, 39}} {
				if d := nearestCorner(result.Corners, c[0], c[1]); d > 3 {
					t.Errorf("no corner near (%d,%d); nearest at %.1f", c[0], c[1], d)
				}
			}
			if result.ScaleX != 1 || result.ScaleY != 1 || result.ProcessedWidth != 60 || result.ProcessedHeight != 60 {
				t.Errorf("unexpected preprocessing: scale %vx%v, size %dx%d",
					result.ScaleX, result.ScaleY, result.ProcessedWidth, result.ProcessedHeight)
			}
			if result.Threshold <= 0 || result.Stats.Max <= 0 {
				t.Errorf("threshold %v and stats %+v should be positive", result.Threshold, result.Stats)
			}
			if result.Minimums != nil {
				t.Errorf("Minimums should be omitted, got %d", len(result.Minimums))
			}
		})
	}
}

func TestHandleToolsCall_DetectCorners_Region(t *testing.T) {
	s := newTestServer()
	imgPath := createSquaresImageFile(t, 80, 80, [4]int{30, 30, 49, 49})

	var result DetectCornersResult
	callTool(t, s, "image_detect_corners", map[string]interface{}{
		"path":               imgPath,
		"relative_threshold": 0.1,
		"region":             map[string]interface{}{"x1": 20, "y1": 20, "x2": 60, "y2": 60},
	}, &result)

	if result.ProcessedWidth != 40 || result.ProcessedHeight != 40 {
		t.Errorf("processed size: got %dx%d, want 40x40", result.ProcessedWidth, result.ProcessedHeight)
	}
	// coordinates are reported in the full image, not the region
	for _, c := range [][2]int{{30, 30}, {49, 30}, {30, 49}, {49, 49}} {
		if d := nearestCorner(result.Corners, c[0], c[1]); d > 3 {
			t.Errorf("no corner near (%d,%d); nearest at %.1f", c[0], c[1], d)
		}
	}
	for _, p := range result.Corners {
		if p.X < 20 || p.X >= 60 || p.Y < 20 || p.Y >= 60 {
			t.Errorf("corner %v outside the region", p)
		}
	}
}

func TestHandleToolsCall_DetectCorners_Downscale(t *testing.T) {
	s := newTestServer()
	imgPath := createSquaresImageFile(t, 200, 200, [4]int{50, 50, 149, 149})

	var result DetectCornersResult
	callTool(t, s, "image_detect_corners", map[string]interface{}{
		"path":               imgPath,
		"relative_threshold": 0.1,
		"max_dimension":      100,
	}, &result)

	if result.ScaleX != 0.5 || result.ScaleY != 0.5 {
		t.Errorf("scale: got %vx%v, want 0.5x0.5", result.ScaleX, result.ScaleY)
	}
	if result.ProcessedWidth != 100 || result.ProcessedHeight != 100 {
		t.Errorf("processed size: got %dx%d, want 100x100", result.ProcessedWidth, result.ProcessedHeight)
	}
	for _, c := range [][2]int{{50, 50}, {149, 50}, {50, 149}, {149, 149}} {
		if d := nearestCorner(result.Corners, c[0], c[1]); d > 6 {
			t.Errorf("no corner near (%d,%d); nearest at %.1f", c[0], c[1], d)
		}
	}
}

func TestHandleToolsCall_DetectCorners_FlatImage(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 40, 40, color.RGBA{128, 128, 128, 255})

	var result DetectCornersResult
	callTool(t, s, "image_detect_corners", map[string]interface{}{"path": imgPath}, &result)

	if result.Count != 0 {
		t.Errorf("flat image produced %d corners", result.Count)
	}
}

func TestHandleToolsCall_ClusterCorners(t *testing.T) {
	s := newTestServer()
	imgPath := createSquaresImageFile(t, 120, 60, [4]int{10, 20, 29, 39}, [4]int{80, 20, 99, 39})

	var result ClusterCornersResult
	callTool(t, s, "image_cluster_corners", map[string]interface{}{
		"path":               imgPath,
		"relative_threshold": 0.1,
		"max_distance":       25,
	}, &result)

	if result.ClusterCount != 2 {
		t.Fatalf("ClusterCount: got %d, want 2", result.ClusterCount)
	}
	total := 0
	for _, n := range result.ClusterSizes {
		total += n
	}
	if total != len(result.Corners) {
		t.Errorf("cluster sizes sum to %d for %d corners", total, len(result.Corners))
	}
	for _, c := range result.Corners {
		want := 0
		if c.X > 60 {
			want = 1
		}
		if c.Cluster != want {
			t.Errorf("corner (%d,%d): cluster %d, want %d", c.X, c.Y, c.Cluster, want)
		}
	}
}

func TestHandleToolsCall_ClusterCorners_DefaultDistance(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 30, 30, color.Black)

	var result ClusterCornersResult
	callTool(t, s, "image_cluster_corners", map[string]interface{}{"path": imgPath}, &result)

	if result.MaxDistance != 10 {
		t.Errorf("MaxDistance: got %v, want 10", result.MaxDistance)
	}
	if result.ClusterCount != 0 || result.ClusterSizes == nil {
		t.Errorf("expected an empty cluster list, got %+v", result)
	}
}

func TestHandleToolsCall_RenderCorners(t *testing.T) {
	imgPath := createSquaresImageFile(t, 64, 48, [4]int{16, 12, 40, 30})

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"plain", map[string]interface{}{}},
		{"clustered with labels", map[string]interface{}{"max_distance": 30, "show_labels": true}},
		{"custom marker", map[string]interface{}{"marker_color": "#00FF00", "marker_radius": 5}},
	}

	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{"path": imgPath, "relative_threshold": 0.1}
			for k, v := range tt.args {
				args[k] = v
			}

			var result struct {
				Width       int    `json:"width"`
				Height      int    `json:"height"`
				Corners     int    `json:"corners"`
				ImageBase64 string `json:"image_base64"`
				MimeType    string `json:"mime_type"`
			}
			callTool(t, s, "image_render_corners", args, &result)

			if result.Width != 64 || result.Height != 48 {
				t.Errorf("size: got %dx%d, want 64x48", result.Width, result.Height)
			}
			if result.MimeType != "image/png" {
				t.Errorf("MimeType: got %s", result.MimeType)
			}
			if result.Corners < 4 {
				t.Errorf("Corners: got %d, want at least 4", result.Corners)
			}

			data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
			if err != nil {
				t.Fatalf("invalid base64: %v", err)
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("invalid PNG: %v", err)
			}
			if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
				t.Errorf("decoded size: got %v", img.Bounds())
			}
		})
	}
}

func TestDetect_RecyclesDetectors(t *testing.T) {
	s := newTestServer()
	imgPath := createSquaresImageFile(t, 40, 40, [4]int{10, 10, 29, 29})
	args := map[string]interface{}{"path": imgPath}

	var first, second DetectCornersResult
	callTool(t, s, "image_detect_corners", args, &first)

	if s.detectors.Len() != 1 {
		t.Fatalf("pooled detectors: got %d, want 1", s.detectors.Len())
	}
	if s.buffers.Len() != 3 {
		t.Fatalf("pooled buffers: got %d, want 3", s.buffers.Len())
	}
	pooled := s.detectors.Pop()
	s.detectors.Recycle(pooled)

	callTool(t, s, "image_detect_corners", args, &second)

	if s.detectors.Len() != 1 {
		t.Errorf("pooled detectors after reuse: got %d, want 1", s.detectors.Len())
	}
	if again := s.detectors.Pop(); again != pooled {
		t.Error("second call did not reuse the pooled detector")
	}
	if first.Count != second.Count {
		t.Errorf("results changed between identical calls: %d vs %d", first.Count, second.Count)
	}
	if s.cache.Len() != 1 {
		t.Errorf("cached images: got %d, want 1", s.cache.Len())
	}
}

func TestDetect_ConfigOverridesDoNotLeak(t *testing.T) {
	s := newTestServer()
	imgPath := createSquaresImageFile(t, 40, 40, [4]int{10, 10, 29, 29})

	var result DetectCornersResult
	callTool(t, s, "image_detect_corners", map[string]interface{}{
		"path":            imgPath,
		"algorithm":       "harris",
		"max_features":    1,
		"detect_minimums": true,
	}, &result)
	if result.Count != 1 {
		t.Errorf("Count: got %d, want 1", result.Count)
	}

	var next DetectCornersResult
	callTool(t, s, "image_detect_corners", map[string]interface{}{"path": imgPath}, &next)
	if next.Algorithm != "shi-tomasi" {
		t.Errorf("Algorithm: got %s, want shi-tomasi", next.Algorithm)
	}
	if next.Count < 4 {
		t.Errorf("max_features leaked into the next call: got %d corners", next.Count)
	}
	if next.Minimums != nil {
		t.Error("detect_minimums leaked into the next call")
	}
}

func TestDetect_MinimumsAndCandidates(t *testing.T) {
	s := newTestServer()
	imgPath := createSquaresImageFile(t, 48, 48, [4]int{12, 12, 35, 35})

	var dense DetectCornersResult
	callTool(t, s, "image_detect_corners", map[string]interface{}{
		"path":            imgPath,
		"algorithm":       "harris",
		"detect_minimums": true,
		"max_features":    0,
	}, &dense)
	// harris edges score negative, so the relative minimum threshold is set
	if dense.ThresholdMin <= 0 {
		t.Fatalf("ThresholdMin: got %v, want positive", dense.ThresholdMin)
	}

	var fast DetectCornersResult
	callTool(t, s, "image_detect_corners", map[string]interface{}{
		"path":            imgPath,
		"algorithm":       "harris",
		"detect_minimums": true,
		"max_features":    0,
		"use_candidates":  true,
	}, &fast)
	if fast.Count != dense.Count || len(fast.Minimums) != len(dense.Minimums) {
		t.Errorf("candidate mode: got %d/%d, want %d/%d",
			fast.Count, len(fast.Minimums), dense.Count, len(dense.Minimums))
	}

	var onlyMin DetectCornersResult
	callTool(t, s, "image_detect_corners", map[string]interface{}{
		"path":            imgPath,
		"algorithm":       "harris",
		"detect_minimums": true,
		"detect_maximums": false,
	}, &onlyMin)
	if onlyMin.Count != 0 || onlyMin.ThresholdMin <= 0 {
		t.Errorf("detect_maximums=false: got %d corners, threshold_min %v", onlyMin.Count, onlyMin.ThresholdMin)
	}

	// shi-tomasi has no minimums to report
	var shi DetectCornersResult
	callTool(t, s, "image_detect_corners", map[string]interface{}{"path": imgPath, "detect_minimums": true}, &shi)
	if shi.Minimums != nil || shi.ThresholdMin != 0 {
		t.Errorf("shi-tomasi minimums: got %d with threshold %v, want none", len(shi.Minimums), shi.ThresholdMin)
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 100, 100, color.RGBA{128, 128, 128, 255})

	for _, name := range expectedTools {
		t.Run(name, func(t *testing.T) {
			argsJSON, _ := json.Marshal(map[string]interface{}{"path": imgPath})
			result, err := s.executeTool(name, argsJSON)
			if err != nil {
				t.Fatalf("executeTool(%s) failed: %v", name, err)
			}
			if result == nil {
				t.Errorf("executeTool(%s) returned nil result", name)
			}
		})
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := newTestServer()

	_, err := s.executeTool("unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("executeTool should fail for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newTestServer()

	_, err := s.executeTool("image_load", json.RawMessage(`{invalid`))
	if err == nil {
		t.Error("executeTool should fail for invalid JSON")
	}
}
