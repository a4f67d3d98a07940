// Package server implements the MCP (Model Context Protocol) server for corner detection tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the corner
// detection pipeline through the MCP protocol, so MCP-compatible clients can
// locate, group and visualize corners in image files.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Corner Detection:
//   - image_detect_corners: Harris or Shi-Tomasi corners
//   - image_cluster_corners: Corners grouped by proximity
//   - image_render_corners: Corners drawn onto the image as PNG
//
// Corner coordinates are always reported in source image pixels, even when a
// region or downscaling was applied before detection.
//
// # Detector Pooling
//
// Detectors and their scratch images are expensive to allocate for large
// images. The server keeps idle detectors on a recycle.Stack and their
// derivative and intensity images on a second, shared stack. Each corner tool
// pops a detector, reconfigures it for the call, and recycles it afterwards,
// so the steady state performs no per-call allocation of corner slots.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, avoiding redundant disk I/O.
// The cache persists for the lifetime of the server process.
//
// # Configuration
//
// ConfigFromEnv reads CORNER_MCP_LOG_LEVEL, CORNER_MCP_MAX_DIMENSION and
// CORNER_MCP_QUEUE_CAPACITY. Invalid values are logged and the defaults kept.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(server.ConfigFromEnv(logger), logger)
//	if err := srv.Run(); err != nil {
//	    logger.Fatal(err)
//	}
package server
