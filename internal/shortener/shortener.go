// Package shortener is the HTTP client for the external shortening service.
// The service owns short-code generation and the urls table; this client
// only calls it and classifies failures.
package shortener

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mkravets/urlbox/internal/models"
)

// ErrUpstream marks any failure of the shortening service: network errors,
// timeouts and non-2xx responses alike. The wrapped message carries the
// detail for logging; it is never sent to API clients.
var ErrUpstream = errors.New("shortening service error")

type shortenResponse struct {
	ShortURL string `json:"short_url"`
}

type resolveResponse struct {
	OriginalURL string `json:"original_url"`
}

// Client calls the external shortening service.
type Client struct {
	httpClient *resty.Client
}

// New creates a Client for the service at baseURL. A hung call is cut off
// after the given timeout and reported as an upstream error.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
	}
}

// Shorten submits a URL for shortening on behalf of a user and returns the
// assigned short URL.
func (c *Client) Shorten(ctx context.Context, originalURL string, userID int64) (string, error) {
	var success shortenResponse
	var failure models.ErrorResponse

	response, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"url":     originalURL,
			"user_id": userID,
		}).
		SetResult(&success).
		SetError(&failure).
		Post("/shorten")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if response.IsError() {
		message := failure.Error
		if message == "" {
			message = response.Status()
		}

		return "", fmt.Errorf("%w: %s", ErrUpstream, message)
	}

	if success.ShortURL == "" {
		return "", fmt.Errorf("%w: empty short_url in response", ErrUpstream)
	}

	return success.ShortURL, nil
}

// Resolve looks up the original URL behind a short code.
func (c *Client) Resolve(ctx context.Context, short string) (string, error) {
	var success resolveResponse

	response, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&success).
		Get("/" + short)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if response.StatusCode() == http.StatusNotFound {
		return "", models.ErrShortURLNotFound
	}

	if response.IsError() || success.OriginalURL == "" {
		return "", fmt.Errorf("%w: %s", ErrUpstream, response.Status())
	}

	return success.OriginalURL, nil
}
