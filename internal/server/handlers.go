package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ironsheep/photo-date-reader/internal/detection"
	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
	"github.com/ironsheep/photo-date-reader/internal/imaging"
	"github.com/ironsheep/photo-date-reader/internal/ocr"
	"github.com/ironsheep/photo-date-reader/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "datestamp_read").
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
// Coded failures carry the error's fields as data, so clients can branch on
// error_code.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", "tool", params.Name, "error", err)
		var se *apperr.StampError
		if errors.As(err, &se) {
			return s.errorResponse(req.ID, -32000, "Tool execution failed", se.ToMap())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Debug("tool done", "tool", params.Name, "duration", time.Since(start))

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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "datestamp_read":
		return s.handleDatestampRead(ctx, args)
	case "datestamp_annotate":
		return s.handleDatestampAnnotate(ctx, args)
	case "datestamp_scan_folder":
		return s.handleDatestampScanFolder(ctx, args)
	case "datestamp_sample_color":
		return s.handleDatestampSampleColor(ctx, args)

	case "image_info":
		return s.handleImageInfo(ctx, args)
	case "ocr_info":
		return s.engineInfo(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Date Stamp Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

// readResult is the JSON shape of one processed photo.
type readResult struct {
	Path       string                `json:"path"`
	Text       string                `json:"text"`
	Date       string                `json:"date,omitempty"`
	FullText   string                `json:"full_text"`
	Rotated    bool                  `json:"rotated"`
	Region     [4]int                `json:"region"`
	Symbols    []ocr.Symbol          `json:"symbols"`
	Candidates []detection.Candidate `json:"candidates"`
}

func newReadResult(path string, res *pipeline.Result) readResult {
	out := readResult{
		Path:       path,
		Text:       res.DisplayText(),
		FullText:   res.FullText,
		Rotated:    res.Rotated,
		Region:     [4]int{res.Region.Min.X, res.Region.Min.Y, res.Region.Max.X, res.Region.Max.Y},
		Symbols:    res.Symbols,
		Candidates: res.Candidates,
	}
	if res.Date != nil {
		out.Date = res.Date.Format(time.DateOnly)
	}
	if out.Symbols == nil {
		out.Symbols = []ocr.Symbol{}
	}
	if out.Candidates == nil {
		out.Candidates = []detection.Candidate{}
	}
	return out
}

func (s *Server) handleDatestampRead(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	res, err := s.runner.ProcessPath(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	return newReadResult(a.Path, res), nil
}

type annotateArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path,omitempty"`
}

type annotateResult struct {
	Path        string `json:"path"`
	Text        string `json:"text"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64,omitempty"`
	OutputPath  string `json:"output_path,omitempty"`
}

func (s *Server) handleDatestampAnnotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a annotateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	res, err := s.runner.ProcessPath(ctx, a.Path)
	if err != nil {
		return nil, err
	}

	bounds := res.Annotated.Bounds()
	out := &annotateResult{
		Path:   a.Path,
		Text:   res.DisplayText(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
	if a.OutputPath != "" {
		if err := imaging.SavePNG(res.Annotated, a.OutputPath); err != nil {
			return nil, err
		}
		out.OutputPath = a.OutputPath
		return out, nil
	}

	encoded, err := imaging.EncodePNGBase64(res.Annotated)
	if err != nil {
		return nil, err
	}
	out.ImageBase64 = encoded
	return out, nil
}

type scanFolderArgs struct {
	Dir string `json:"dir"`
}

type scanItem struct {
	Path       string                 `json:"path"`
	Status     string                 `json:"status"`
	Result     *readResult            `json:"result,omitempty"`
	Error      map[string]interface{} `json:"error,omitempty"`
	DurationMS int64                  `json:"duration_ms"`
}

type scanResult struct {
	RunID      string     `json:"run_id"`
	Photos     int        `json:"photos"`
	Failed     int        `json:"failed"`
	DurationMS int64      `json:"duration_ms"`
	Items      []scanItem `json:"items"`
}

func (s *Server) handleDatestampScanFolder(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scanFolderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	paths, err := pipeline.ListImages(a.Dir)
	if err != nil {
		return nil, err
	}

	b := s.runner.Run(ctx, paths)
	out := &scanResult{
		RunID:      b.RunID,
		Photos:     len(b.Items),
		Failed:     b.Failed(),
		DurationMS: b.Duration.Milliseconds(),
		Items:      make([]scanItem, len(b.Items)),
	}
	for i, it := range b.Items {
		item := scanItem{
			Path:       it.Path,
			Status:     it.Status(),
			DurationMS: it.Duration.Milliseconds(),
		}
		if it.Err != nil {
			item.Error = errorData(it.Err)
		} else {
			r := newReadResult(it.Path, it.Result)
			item.Result = &r
		}
		out.Items[i] = item
	}
	return out, nil
}

func errorData(err error) map[string]interface{} {
	var se *apperr.StampError
	if errors.As(err, &se) {
		return se.ToMap()
	}
	return map[string]interface{}{"message": err.Error()}
}

type sampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleDatestampSampleColor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Fetch(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y, s.cfg.Band)
}

// === Diagnostics ===

func (s *Server) handleImageInfo(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(ctx, s.cache, a.Path)
}
