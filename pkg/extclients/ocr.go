package extclients

import (
	"context"
	"encoding/base64"
	"time"
)

// OCRResult is the OCR engine's best-effort reading of a blob.
type OCRResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
}

type ocrRequest struct {
	BlobBase64 string `json:"blob_base64"`
	MIMEType   string `json:"mime_type"`
	MaxPages   int    `json:"max_pages,omitempty"`
}

// OCRClient calls the configured OCR engine's extract endpoint.
type OCRClient struct {
	base baseClient
}

// NewOCRClient builds an OCRClient against baseURL, authenticating with
// token, bounding every call to timeout so a wedged OCR backend never
// hangs a worker past its per-item budget.
func NewOCRClient(baseURL, token string, timeout time.Duration) *OCRClient {
	return &OCRClient{base: newBaseClient(baseURL, token, timeout)}
}

// Extract submits blob for OCR, bounding the engine to at most maxPages
// (0 means no limit), and returns its best-effort reading. A non-nil error
// means the engine could not produce a result at all; a low-confidence
// OCRResult is still a successful call.
func (c *OCRClient) Extract(ctx context.Context, blob []byte, mimeType string, maxPages int) (OCRResult, error) {
	req := ocrRequest{
		BlobBase64: base64.StdEncoding.EncodeToString(blob),
		MIMEType:   mimeType,
		MaxPages:   maxPages,
	}
	var result OCRResult
	if err := c.base.doJSON(ctx, "POST", "/extract", req, &result); err != nil {
		return OCRResult{}, err
	}
	return result, nil
}
