package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const EMBED_ENDPOINT = "/embed"

type embedRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// HTTPEncoder calls a remote embedding service. Requests are retried on
// transport errors and 5xx/429 responses, and paced by an optional limiter.
type HTTPEncoder struct {
	restyClient *resty.Client
	limiter     *rate.Limiter
	model       string
	dimensions  int
}

func NewHTTPEncoder(cfg Config) *HTTPEncoder {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	restyClient := resty.New()
	restyClient.SetBaseURL(cfg.URL)
	restyClient.SetHeader("User-Agent", "tweetsim/1.0")
	restyClient.SetTimeout(timeout)
	restyClient.SetRetryCount(cfg.MaxRetries)
	restyClient.SetRetryWaitTime(500 * time.Millisecond)
	restyClient.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
	})
	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &HTTPEncoder{
		restyClient: restyClient,
		limiter:     limiter,
		model:       cfg.Model,
		dimensions:  cfg.Dimensions,
	}
}

// SetLogger routes resty's request logging to l.
func (e *HTTPEncoder) SetLogger(l resty.Logger) {
	e.restyClient.SetLogger(l)
}

func (e *HTTPEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var out embedResponse
	resp, err := e.restyClient.R().
		SetContext(ctx).
		SetBody(embedRequest{Text: text, Model: e.model}).
		SetResult(&out).
		Post(EMBED_ENDPOINT)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedding service: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("embedding service returned status %d: %s", resp.StatusCode(), resp.String())
	}

	if len(out.Embedding) == 0 {
		log.WithFields(log.Fields{
			"caller": "HTTPEncoder.Encode",
			"length": len(text),
		}).Debug("embedding service returned an empty vector")
		return nil, ErrNoTokens
	}
	return out.Embedding, nil
}

func (e *HTTPEncoder) Dimensions() int {
	return e.dimensions
}

func (e *HTTPEncoder) Close() error {
	return nil
}
