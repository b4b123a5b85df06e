// Package vision is the HTTP client for the document-vision service, which
// provides OCR text detection and face similarity.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"brokerkyc/pkg/config"
	pkgerrors "brokerkyc/pkg/errors"
	"brokerkyc/pkg/logger"
)

type Client struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

func NewClient(cfg config.VisionConfig, log logger.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  log,
	}
}

type textRequest struct {
	Image string `json:"image"`
}

type textResponse struct {
	Text string `json:"text"`
}

// ExtractText runs OCR over a document image and returns the raw detected
// text.
func (c *Client) ExtractText(ctx context.Context, image []byte) (string, error) {
	var out textResponse
	if err := c.post(ctx, "/v1/text-detection", textRequest{Image: base64.StdEncoding.EncodeToString(image)}, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

type faceMatchRequest struct {
	Reference string `json:"reference"`
	Candidate string `json:"candidate"`
}

type faceMatchResponse struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
}

// Compare reports whether the face on the candidate image matches the face
// on the reference image.
func (c *Client) Compare(ctx context.Context, reference, candidate []byte) (bool, error) {
	req := faceMatchRequest{
		Reference: base64.StdEncoding.EncodeToString(reference),
		Candidate: base64.StdEncoding.EncodeToString(candidate),
	}
	var out faceMatchResponse
	if err := c.post(ctx, "/v1/face-match", req, &out); err != nil {
		return false, err
	}
	c.logger.Debug("face match response", map[string]interface{}{
		"match":      out.Match,
		"confidence": out.Confidence,
	})
	return out.Match, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(err, "encode vision request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(err, "build vision request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCapabilityFailure, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return pkgerrors.Wrap(pkgerrors.ErrCapabilityFailure,
			fmt.Sprintf("vision service returned %d: %s", resp.StatusCode, snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCapabilityFailure, "decode vision response: "+err.Error())
	}
	return nil
}
