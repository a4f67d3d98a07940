package server

import "github.com/ironsheep/corner-tools-mcp/internal/detection"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// detectionProperties returns the schema properties shared by every tool that
// runs the corner detector.
func detectionProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"algorithm": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"harris", "shi-tomasi"},
			"description": "Corner intensity algorithm. Default shi-tomasi",
			"default":     "shi-tomasi",
		},
		"radius": map[string]interface{}{
			"type":        "integer",
			"description": "Half width of the structure tensor window (1-64). Default 2",
			"minimum":     1,
			"maximum":     detection.MaxRadius,
			"default":     2,
		},
		"threshold": map[string]interface{}{
			"type":        "number",
			"description": "Minimum absolute corner intensity. Default 0",
			"default":     0,
		},
		"threshold_min": map[string]interface{}{
			"type":        "number",
			"description": "Minimum magnitude of negative extrema. Defaults to threshold",
		},
		"relative_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Threshold as a fraction (0-1) of the strongest response. Default 0.01",
			"default":     0.01,
		},
		"non_max_radius": map[string]interface{}{
			"type":        "integer",
			"description": "Half width of the non-maximum suppression window (1-64). Default 2",
			"minimum":     1,
			"maximum":     detection.MaxRadius,
			"default":     2,
		},
		"max_features": map[string]interface{}{
			"type":        "integer",
			"description": "Keep only the N strongest corners. 0 keeps all. Default 500",
			"default":     500,
		},
		"detect_minimums": map[string]interface{}{
			"type":        "boolean",
			"description": "Also report negative extrema (edges for Harris). Default false",
			"default":     false,
		},
		"detect_maximums": map[string]interface{}{
			"type":        "boolean",
			"description": "Report positive extrema, the corners. Default true",
			"default":     true,
		},
		"use_candidates": map[string]interface{}{
			"type":        "boolean",
			"description": "Only check 3x3 response peaks during suppression. Same corners, less work for large non_max_radius. Default false",
			"default":     false,
		},
		"region": map[string]interface{}{
			"type":        "object",
			"description": "Optional region of interest; x2/y2 are exclusive",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer"},
				"y1": map[string]interface{}{"type": "integer"},
				"x2": map[string]interface{}{"type": "integer"},
				"y2": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"x1", "y1", "x2", "y2"},
		},
		"max_dimension": map[string]interface{}{
			"type":        "integer",
			"description": "Downscale so neither side exceeds this before detecting. Defaults to the server setting",
		},
		"blur_radius": map[string]interface{}{
			"type":        "number",
			"description": "Gaussian blur radius applied before detecting. Default 0 (off)",
			"default":     0,
		},
	}
}

// withProperties copies the detection properties and adds extra ones.
func withProperties(extra map[string]interface{}) map[string]interface{} {
	props := detectionProperties()
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent corner operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Corner Detection
		{
			Name:        "image_detect_corners",
			Description: "Detect corners with the Harris or Shi-Tomasi detector. Returns corner coordinates in source image pixels, the applied threshold and response statistics.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectionProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "image_cluster_corners",
			Description: "Detect corners and group those linked by chains of neighbors within max_distance pixels. Useful for finding objects or dense texture.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"max_distance": map[string]interface{}{
						"type":        "number",
						"description": "Largest gap in pixels between linked corners. Default 10",
						"default":     10,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_render_corners",
			Description: "Detect corners and draw them on the image. Returns a base64-encoded PNG for visual verification.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"max_distance": map[string]interface{}{
						"type":        "number",
						"description": "Color corners by cluster using this linking distance. 0 draws all markers in marker_color. Default 0",
						"default":     0,
					},
					"marker_color": map[string]interface{}{
						"type":        "string",
						"description": "Hex color for markers. Default #FF0000",
						"default":     "#FF0000",
					},
					"marker_radius": map[string]interface{}{
						"type":        "integer",
						"description": "Half length of each marker arm in pixels. Default 3",
						"default":     3,
					},
					"show_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw the corner index next to each marker. Default false",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
