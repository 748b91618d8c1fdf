package speech

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	"github.com/duocall/backend/internal/errors"
	"github.com/duocall/backend/internal/log"
)

const (
	ErrCodeRequest errors.Code = "speech_request"
)

// UpstreamError is a non-2xx reply from the STS endpoint.
type UpstreamError struct {
	Status int
	Detail json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("speech upstream status %d", e.Status)
}

// Token is a short-lived credential for client-side speech recognition.
type Token struct {
	Token  string `json:"token"`
	Region string `json:"region"`
}

// Client exchanges the subscription key for short-lived tokens at the
// STS endpoint. Concurrent requests are collapsed into one upstream
// exchange; tokens are not cached beyond that, the client re-requests
// when its token expires.
type Client struct {
	http   *resty.Client
	sf     singleflight.Group
	cfg    *Config
	logger *log.Logger
}

func NewClient(cfg *Config, logger *log.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.api.cognitive.microsoft.com", cfg.Region)
	}
	return &Client{
		http: resty.New().
			SetBaseURL(endpoint).
			SetTimeout(cfg.Timeout),
		cfg:    cfg,
		logger: logger,
	}
}

// Configured reports whether upstream credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.Key != "" && (c.cfg.Region != "" || c.cfg.Endpoint != "")
}

func (c *Client) Token(ctx context.Context) (*Token, error) {
	v, err, _ := c.sf.Do("token", func() (any, error) {
		return c.issue(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Token), nil
}

func (c *Client) issue(ctx context.Context) (*Token, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", c.cfg.Key).
		SetHeader("Content-Length", "0").
		Post("/sts/v1.0/issueToken")
	if err != nil {
		return nil, errors.Wrap(ErrCodeRequest, err, "token request failed")
	}
	if resp.IsError() {
		c.logger.Warn("Speech upstream error",
			log.Int("status", resp.StatusCode()))
		return nil, &UpstreamError{
			Status: resp.StatusCode(),
			Detail: resp.Body(),
		}
	}

	return &Token{
		Token:  string(resp.Body()),
		Region: c.cfg.Region,
	}, nil
}
