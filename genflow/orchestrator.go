package genflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Payload is one generation request: the user prompt plus the image context
// it applies to, all images as data URLs.
type Payload struct {
	Prompt      string
	Canvas      string
	Attachments []string
	AspectRatio string
}

// Variant is one successful generation result.
type Variant struct {
	Image string `json:"image"`
	Text  string `json:"text,omitempty"`
}

// Result aggregates the surviving variants of one request.
type Result struct {
	Variants []Variant `json:"variants"`
	// Text is the variant texts joined, with "--- Variant N ---" markers
	// between entries when more than one variant produced text.
	Text string `json:"text,omitempty"`
	// Image is the first successful variant's image.
	Image string `json:"image"`
}

const (
	minVariants = 1
	maxVariants = 4
)

// completer is the one call the orchestrator needs from the endpoint client.
type completer interface {
	Complete(ctx context.Context, parts []ContentPart, aspectRatio string) (image, text string, err error)
}

// OrchestratorConfig tunes retry behavior. Zero values take defaults.
type OrchestratorConfig struct {
	// MaxAttempts per variant. Default: 3.
	MaxAttempts int
	// BaseBackoff before the second attempt, doubled each retry. Default: 1s.
	BaseBackoff time.Duration
	// MaxBackoff caps the doubling. Default: 5s.
	MaxBackoff time.Duration
}

func (c *OrchestratorConfig) defaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
}

// Orchestrator fans a generation request out into N variants, retries each
// independently, and aggregates whatever succeeded.
type Orchestrator struct {
	client completer
	cfg    OrchestratorConfig
	log    *slog.Logger
}

// NewOrchestrator creates an Orchestrator around a client.
func NewOrchestrator(client completer, cfg OrchestratorConfig, log *slog.Logger) *Orchestrator {
	cfg.defaults()
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{client: client, cfg: cfg, log: log}
}

// Generate runs variantCount (clamped to [1,4]) generations concurrently and
// returns the survivors. It fails only when every variant exhausted its
// attempts; the error is the last variant failure.
func (o *Orchestrator) Generate(ctx context.Context, p Payload, variantCount int) (*Result, error) {
	if variantCount < minVariants {
		variantCount = minVariants
	}
	if variantCount > maxVariants {
		variantCount = maxVariants
	}

	parts := o.buildParts(p)

	type outcome struct {
		v   Variant
		err error
	}
	outcomes := make([]outcome, variantCount)

	var wg sync.WaitGroup
	for i := 0; i < variantCount; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := o.generateOne(ctx, parts, p.AspectRatio)
			outcomes[i] = outcome{v: v, err: err}
		}(i)
	}
	wg.Wait()

	res := &Result{}
	var lastErr error
	for i, out := range outcomes {
		if out.err != nil {
			lastErr = out.err
			o.log.Warn("variant generation failed", "variant", i+1, "error", out.err)
			continue
		}
		res.Variants = append(res.Variants, out.v)
		if out.v.Text != "" {
			if res.Text == "" {
				res.Text = out.v.Text
			} else {
				res.Text += fmt.Sprintf("\n\n--- Variant %d ---\n%s", len(res.Variants), out.v.Text)
			}
		}
	}
	if len(res.Variants) == 0 {
		return nil, fmt.Errorf("genflow: all %d variants failed: %w", variantCount, lastErr)
	}
	res.Image = res.Variants[0].Image
	return res, nil
}

// generateOne runs one variant through the retry loop.
func (o *Orchestrator) generateOne(ctx context.Context, parts []ContentPart, aspectRatio string) (Variant, error) {
	var lastErr error
	backoff := o.cfg.BaseBackoff
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, backoff); err != nil {
				return Variant{}, err
			}
			backoff *= 2
			if backoff > o.cfg.MaxBackoff {
				backoff = o.cfg.MaxBackoff
			}
		}
		image, text, err := o.client.Complete(ctx, parts, aspectRatio)
		if err == nil {
			return Variant{Image: image, Text: text}, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return Variant{}, ctx.Err()
		}
	}
	return Variant{}, lastErr
}

// buildParts assembles the multi-modal message: prompt text, then the
// attachments, then the canvas snapshot, each image normalized to roughly
// one megapixel. A resize failure falls back to the original data URL.
func (o *Orchestrator) buildParts(p Payload) []ContentPart {
	var parts []ContentPart
	if strings.TrimSpace(p.Prompt) != "" {
		parts = append(parts, TextPart(p.Prompt))
	}
	images := append(append([]string{}, p.Attachments...), p.Canvas)
	for _, img := range images {
		if !strings.HasPrefix(img, "data:") {
			continue
		}
		resized, err := ResizeForModel(img)
		if err != nil {
			o.log.Warn("attachment resize failed, sending original", "error", err)
			resized = img
		}
		parts = append(parts, ImagePart(resized))
	}
	if len(parts) == 0 {
		parts = append(parts, TextPart("Generate an image"))
	}
	return parts
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
