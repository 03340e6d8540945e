package api

import "encoding/json"

// ClassifyRequest is the HTTP request body for POST /api/v1/classify.
type ClassifyRequest struct {
	Text       string   `json:"text"`
	Categories []string `json:"categories,omitempty"`
}

// MaskRequest is the HTTP request body for POST /api/v1/mask.
type MaskRequest struct {
	Text     string `json:"text"`
	Category string `json:"category" binding:"required"`
}

// RedactTextRequest is the HTTP request body for POST /api/v1/redact/text.
type RedactTextRequest struct {
	Text       string   `json:"text"`
	Source     string   `json:"source,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// RedactDocumentRequest is the HTTP request body for POST /api/v1/redact/document.
// Document uses the token document format accepted by extract.DecodeTokens.
type RedactDocumentRequest struct {
	Document   json.RawMessage `json:"document" binding:"required"`
	Categories []string        `json:"categories,omitempty"`
}
