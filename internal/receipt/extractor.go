// Package receipt provides a client for the receipt image extraction service.
package receipt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/models"
)

// Extractor turns a receipt image into structured bill data.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (*models.ReceiptData, error)
}

// HTTPExtractor calls a remote extraction service over HTTP.
type HTTPExtractor struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPExtractor creates an extractor posting to url. A zero timeout keeps
// the http.Client default.
func NewHTTPExtractor(url, apiKey string, timeout time.Duration) *HTTPExtractor {
	return &HTTPExtractor{
		url:        strings.TrimRight(url, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type extractRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mime_type"`
}

// Extract sends the image and decodes the structured result. Any transport,
// status or decoding failure is reported as ErrReceiptExtractionFailed.
func (e *HTTPExtractor) Extract(ctx context.Context, image []byte, mimeType string) (*models.ReceiptData, error) {
	encoded, mimeType := encodeImage(image, mimeType)

	jsonBody, err := json.Marshal(extractRequest{Image: encoded, MimeType: mimeType})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrReceiptExtractionFailed, fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrReceiptExtractionFailed, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrReceiptExtractionFailed, fmt.Errorf("calling extractor: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.ErrReceiptExtractionFailed,
			fmt.Errorf("calling extractor: unexpected status %d", resp.StatusCode))
	}

	var data models.ReceiptData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrReceiptExtractionFailed, fmt.Errorf("decoding receipt: %w", err))
	}
	return &data, nil
}

// encodeImage base64-encodes image. If image is already a data URL, its
// payload is used as-is and its media type fills in a missing mimeType.
func encodeImage(image []byte, mimeType string) (string, string) {
	s := string(image)
	if !strings.HasPrefix(s, "data:") {
		return base64.StdEncoding.EncodeToString(image), mimeType
	}

	header, payload, ok := strings.Cut(s, ",")
	if !ok {
		return base64.StdEncoding.EncodeToString(image), mimeType
	}
	if mimeType == "" {
		mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	}
	return payload, mimeType
}
