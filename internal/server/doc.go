// Package server exposes the photo date reader as an MCP (Model Context
// Protocol) server.
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
// Date stamps:
//   - datestamp_read: Read the date printed on one photo
//   - datestamp_annotate: Return the cropped overlay with symbols outlined
//   - datestamp_scan_folder: Read every photo in a folder concurrently
//   - datestamp_sample_color: Check a pixel against the overlay colour band
//
// Diagnostics:
//   - image_info: Dimensions, format and orientation of a photo
//   - ocr_info: Whether the OCR engine can start
//
// # Image Caching
//
// Decoded photos are kept in a bounded LRU cache shared by every tool, so
// sampling colours on a photo that was just read does not decode it again.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000. When the failure carries an error code (DECODE_UNAVAILABLE,
// INVALID_REGION, ENGINE_INIT_FAILED, ENGINE_RECOGNITION_FAILED) the data
// field is an object with error_code, message, path and stage; otherwise it
// is the error string.
//
// # Usage
//
//	pool := ocr.NewPool(cfg.OCR, cfg.EnginePoolSize)
//	defer pool.Close()
//	srv, err := server.New(cfg, pool, logger)
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
package server
