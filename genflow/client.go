// Package genflow turns a prompt plus canvas snapshot into generated image
// variants, tolerating upstream flakiness with bounded retries, and drives
// the user-visible generation state.
package genflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoImage marks a semantically valid response that carried no image
// payload. It is treated as transient, the same as an HTTP-level failure.
var ErrNoImage = errors.New("genflow: response contained no image")

// ClientConfig configures the generation endpoint client.
type ClientConfig struct {
	// Endpoint is the chat-completions URL.
	Endpoint string
	// Model is the image-capable model identifier.
	Model string
	// APIKey is the bearer token.
	APIKey string
	// Timeout bounds one request. Default: 120s.
	Timeout time.Duration
}

func (c *ClientConfig) defaults() {
	if c.Endpoint == "" {
		c.Endpoint = "https://openrouter.ai/api/v1/chat/completions"
	}
	if c.Model == "" {
		c.Model = "google/gemini-2.5-flash-image-preview"
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
}

// ContentPart is one entry of a multi-modal user message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image as a data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an image content part from a data URL.
func ImagePart(dataURL string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}}
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type imageConfig struct {
	AspectRatio string `json:"aspect_ratio"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Modalities  []string      `json:"modalities"`
	ImageConfig *imageConfig  `json:"image_config,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Images  []struct {
				ImageURL ImageURL `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
}

// Client calls the external chat-completions endpoint.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	cfg.defaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete sends one multi-modal request and returns the first image and any
// text from the decoded choice. A well-formed response without an image
// returns ErrNoImage.
func (c *Client) Complete(ctx context.Context, parts []ContentPart, aspectRatio string) (image, text string, err error) {
	reqBody := chatRequest{
		Model:      c.cfg.Model,
		Messages:   []chatMessage{{Role: "user", Content: parts}},
		Modalities: []string{"image", "text"},
	}
	if strings.TrimSpace(aspectRatio) != "" {
		reqBody.ImageConfig = &imageConfig{AspectRatio: aspectRatio}
	}

	buf, err := json.Marshal(reqBody)
	if err != nil {
		return "", "", fmt.Errorf("genflow: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", "", fmt.Errorf("genflow: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("genflow: post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return "", "", fmt.Errorf("genflow: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("genflow: upstream status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", "", fmt.Errorf("genflow: decode response: %w", err)
	}

	if len(decoded.Choices) > 0 {
		msg := decoded.Choices[0].Message
		text = msg.Content
		if len(msg.Images) > 0 {
			image = msg.Images[0].ImageURL.URL
		}
	}
	if image == "" {
		return "", "", ErrNoImage
	}
	return image, text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
