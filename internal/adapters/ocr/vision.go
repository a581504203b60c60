package ocr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/normalize"
)

// azureMaxPolls bounds how often a read operation is polled.
const azureMaxPolls = 10

// ErrAnalysisPending is returned when an asynchronous read never finished.
var ErrAnalysisPending = errors.New("document analysis did not finish in time")

/********** google-vision: images:annotate **********/

type googleVision struct {
	apiKey string
	now    func() time.Time
	c      *transport.Client
}

func newGoogleVision(cfg Config, env Env) (Provider, error) {
	return &googleVision{apiKey: cfg.APIKey, now: env.Now, c: transport.New(ProviderGoogleVision, cfg.BaseURL, env.Opts...)}, nil
}

func (p *googleVision) Name() string { return ProviderGoogleVision }

func (p *googleVision) Extract(ctx context.Context, image []byte, _ string) (map[string]any, error) {
	var out struct {
		Responses []struct {
			FullTextAnnotation struct {
				Text  string `json:"text"`
				Pages []struct {
					Confidence float64 `json:"confidence"`
				} `json:"pages"`
			} `json:"fullTextAnnotation"`
			Error *struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		} `json:"responses"`
	}
	err := p.c.DoJSON(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/images:annotate",
		Query:  url.Values{"key": {p.apiKey}},
		JSON: map[string]any{
			"requests": []any{map[string]any{
				// []byte is sent base64 encoded
				"image":    map[string]any{"content": image},
				"features": []any{map[string]any{"type": "DOCUMENT_TEXT_DETECTION"}},
			}},
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Responses) == 0 {
		return map[string]any{}, nil
	}
	r := out.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return nil, fmt.Errorf("google vision: %s (code %d)", r.Error.Message, r.Error.Code)
	}
	m := ExtractFromText(r.FullTextAnnotation.Text, p.now())
	if len(r.FullTextAnnotation.Pages) > 0 {
		m["confidence"] = r.FullTextAnnotation.Pages[0].Confidence
	}
	return m, nil
}

/********** azure-vision: read/analyze + poll **********/

type azureVision struct {
	interval time.Duration
	now      func() time.Time
	c        *transport.Client
}

func newAzureVision(cfg Config, env Env) (Provider, error) {
	opts := append([]transport.Option{
		transport.WithAuth(transport.APIKeyHeader("Ocp-Apim-Subscription-Key", cfg.APIKey)),
	}, env.Opts...)
	interval := env.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &azureVision{interval: interval, now: env.Now, c: transport.New(ProviderAzureVision, cfg.BaseURL, opts...)}, nil
}

func (p *azureVision) Name() string { return ProviderAzureVision }

func (p *azureVision) Extract(ctx context.Context, image []byte, _ string) (map[string]any, error) {
	resp, err := p.c.Do(ctx, transport.Request{
		Method:      http.MethodPost,
		Path:        "/vision/v3.2/read/analyze",
		Raw:         image,
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return nil, err
	}
	op := resp.Header.Get("Operation-Location")
	if op == "" {
		return nil, errors.New("azure read: response has no Operation-Location header")
	}

	text, err := backoff.Retry(ctx, func() (string, error) {
		return p.poll(ctx, op)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(p.interval)),
		backoff.WithMaxTries(azureMaxPolls),
	)
	if err != nil {
		return nil, err
	}
	return ExtractFromText(text, p.now()), nil
}

// poll fetches the operation once. Unfinished operations are retried;
// failures of the operation or the call itself are final.
func (p *azureVision) poll(ctx context.Context, op string) (string, error) {
	var out map[string]any
	if err := p.c.DoJSON(ctx, transport.Request{Path: op}, &out); err != nil {
		return "", backoff.Permanent(err)
	}
	switch status := strings.ToLower(normalize.FirstStr(out, "status")); status {
	case "succeeded":
		var lines []string
		for _, page := range normalize.FirstObjects(out, "analyzeResult.readResults") {
			for _, l := range normalize.FirstObjects(page, "lines") {
				lines = append(lines, normalize.FirstStr(l, "text"))
			}
		}
		return strings.Join(lines, "\n"), nil
	case "failed":
		return "", backoff.Permanent(errors.New("azure read: operation failed"))
	default:
		log.Debug().Str("status", status).Msg("azure read pending")
		return "", ErrAnalysisPending
	}
}
