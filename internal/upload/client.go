package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/powerm17/automated-home-decor/internal/selector"
	"github.com/powerm17/automated-home-decor/internal/suggestions"
)

const (
	// DefaultURL is the decor backend's upload endpoint.
	DefaultURL = "http://localhost:5000/upload"

	// FieldName is the multipart field carrying the image bytes.
	FieldName = "image"
)

// ErrUploadFailed covers transport errors and non-2xx replies.
var ErrUploadFailed = errors.New("upload failed")

type ClientOpts struct {
	URL string
}

// Client posts room photos to the decor backend.
type Client struct {
	httpClient *resty.Client
	url        string
}

func NewClient(opts ClientOpts) *Client {
	c := Client{url: DefaultURL}
	if opts.URL != "" {
		c.url = opts.URL
	}
	c.httpClient = resty.New().
		SetDebug(false).
		SetHeader("Accept", "application/json")

	return &c
}

func (c *Client) URL() string {
	return c.url
}

// Upload sends file as a single multipart request and decodes the reply.
// Body shape errors wrap suggestions.ErrMalformedResponse.
func (c *Client) Upload(ctx context.Context, file selector.File) (*suggestions.Response, error) {
	name := file.Name
	if name == "" {
		name = "image"
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	start := time.Now()
	res, err := c.httpClient.R().
		SetContext(ctx).
		SetMultipartField(FieldName, name, contentType, bytes.NewReader(file.Data)).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("%w: POST %s (status: %d)", ErrUploadFailed, c.url, res.StatusCode())
	}

	slog.Debug("Backend replied", "url", c.url, "status", res.StatusCode(), "bytes", len(res.Body()), "duration", time.Since(start))

	return suggestions.Parse(res.Body())
}
