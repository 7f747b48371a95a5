package models

// FrameAnalysisRequest carries one live camera frame for guidance analysis.
// Pixels is the raw interleaved 4-channel buffer, base64-encoded by the JSON
// layer. Boundary, when present, is the detected receipt rectangle in
// normalized coordinates.
type FrameAnalysisRequest struct {
	Width    int    `json:"width" binding:"required,min=1"`
	Height   int    `json:"height" binding:"required,min=1"`
	Stride   int    `json:"stride,omitempty"`
	Order    string `json:"order,omitempty"` // "rgba" (default) or "bgra"
	Pixels   []byte `json:"pixels" binding:"required"`
	Boundary *Rect  `json:"boundary,omitempty"`
}

// ResolveDuplicateRequest is the explicit keep/discard decision for a
// duplicate-flagged capture.
type ResolveDuplicateRequest struct {
	Keep bool `json:"keep"`
}

// ErrorResponse is the error envelope returned by the HTTP layer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
