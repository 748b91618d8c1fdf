package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/duocall/backend/internal/errors"
	"github.com/duocall/backend/internal/log"
)

const (
	ErrCodeRequest errors.Code = "translator_request"
)

// UpstreamError is a non-2xx reply from the translation service. The
// status and detail body are passed through to the HTTP caller.
type UpstreamError struct {
	Status int
	Detail json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("translator upstream status %d", e.Status)
}

// Result is the reshaped translation reply. Translated holds the first
// target language for single-target callers; Translations keys every
// target by language code; Raw is the upstream body untouched.
type Result struct {
	Translated   string
	Translations map[string]string
	Raw          json.RawMessage
}

// Client proxies translation requests to the upstream service. It is
// stateless; each call is an independent request/response exchange.
type Client struct {
	http   *resty.Client
	cfg    *Config
	logger *log.Logger
}

func NewClient(cfg *Config, logger *log.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.Endpoint).
			SetTimeout(cfg.Timeout),
		cfg:    cfg,
		logger: logger,
	}
}

// Configured reports whether upstream credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.Key != ""
}

func (c *Client) Translate(ctx context.Context, text, from string, to []string) (*Result, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", c.cfg.Key).
		SetHeader("Ocp-Apim-Subscription-Region", c.cfg.Region).
		SetQueryParam("api-version", "3.0").
		SetQueryParamsFromValues(url.Values{"to": to}).
		SetBody([]map[string]string{{"Text": text}})

	if from != "" {
		req.SetQueryParam("from", from)
	}

	resp, err := req.Post("/translate")
	if err != nil {
		return nil, errors.Wrap(ErrCodeRequest, err, "translation request failed")
	}
	if resp.IsError() {
		c.logger.Warn("Translator upstream error",
			log.Int("status", resp.StatusCode()))
		return nil, &UpstreamError{
			Status: resp.StatusCode(),
			Detail: resp.Body(),
		}
	}

	var parsed []struct {
		Translations []struct {
			Text string `json:"text"`
			To   string `json:"to"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, errors.Wrap(ErrCodeRequest, err, "unexpected translation response")
	}

	result := &Result{
		Translations: make(map[string]string),
		Raw:          resp.Body(),
	}
	if len(parsed) > 0 {
		for i, tr := range parsed[0].Translations {
			if i == 0 {
				result.Translated = tr.Text
			}
			result.Translations[tr.To] = tr.Text
		}
	}
	return result, nil
}
