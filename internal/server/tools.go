package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the photo (JPEG or PNG)",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Date stamps
		{
			Name:        "datestamp_read",
			Description: "Read the camera date stamp printed in the bottom-right corner of a photo. Returns the date as dd/MM/yyyy when one is recognised, the raw transcription, and the symbols and candidates it was built from.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "datestamp_annotate",
			Description: "Run the date reader on a photo and return the cropped overlay mask with every recognised symbol outlined, as base64-encoded PNG. Use this to see why a stamp was misread.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "If set, write the PNG here instead of returning it inline",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "datestamp_scan_folder",
			Description: "Read the date stamp of every .jpg, .jpeg and .png file directly inside a folder. One unreadable photo does not stop the others; each item reports its text or FAILED with an error code.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the folder",
					},
				},
				"required": []string{"dir"},
			},
		},
		{
			Name:        "datestamp_sample_color",
			Description: "Get the RGB and HSV values of a single pixel and whether it falls inside the overlay colour band. Useful for tuning the band to a camera's stamp colour.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Diagnostics
		{
			Name:        "image_info",
			Description: "Load a photo and return its dimensions, format and whether the reader will rotate it before cropping.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ocr_info",
			Description: "Report whether the OCR engine can start with the configured tessdata directory, language and whitelist.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}
