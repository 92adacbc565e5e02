// Package transport is the HTTP primitive used to talk to the correction service.
// Every failure comes back as *errs.TransportError; nothing is retried here.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/srtctl/internal/errs"
	"github.com/ppiankov/srtctl/internal/model"
	"github.com/ppiankov/srtctl/internal/util"
	"github.com/ppiankov/srtctl/internal/worker"
)

// Client issues JSON and binary requests against a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter
}

// NewClient creates a Client for baseURL. limiter may be nil.
func NewClient(cfg model.HTTPConfig, baseURL string, limiter *worker.Limiter) *Client {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = model.DefaultConfig().HTTP.MaxBodyBytes
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		limiter:   limiter,
	}
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// Get issues GET path?query and decodes the JSON answer into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.resolve(path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	body, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return err
	}
	return decode(http.MethodGet, u, body, out)
}

// Post issues POST path with a JSON body and decodes the JSON answer into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	u := c.resolve(path)
	payload, err := encode(http.MethodPost, u, in)
	if err != nil {
		return err
	}
	body, err := c.do(ctx, http.MethodPost, u, bytes.NewReader(payload), "application/json")
	if err != nil {
		return err
	}
	return decode(http.MethodPost, u, body, out)
}

// PostForBinary issues POST path with a JSON body and returns the raw answer.
func (c *Client) PostForBinary(ctx context.Context, path string, in any) ([]byte, error) {
	u := c.resolve(path)
	payload, err := encode(http.MethodPost, u, in)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, u, bytes.NewReader(payload), "application/json")
}

// GetBinary issues GET path and returns the raw answer.
func (c *Client) GetBinary(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.resolve(path), nil, "")
}

// UploadFiles posts the named files as a multipart form, one part per file
// under field, and decodes the JSON answer into out.
func (c *Client) UploadFiles(ctx context.Context, path, field string, files []string, out any) error {
	u := c.resolve(path)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range files {
		if err := addFilePart(mw, field, name); err != nil {
			return &errs.TransportError{Method: http.MethodPost, URL: u, Message: "prepare upload", Err: err}
		}
	}
	if err := mw.Close(); err != nil {
		return &errs.TransportError{Method: http.MethodPost, URL: u, Message: "prepare upload", Err: err}
	}

	body, err := c.do(ctx, http.MethodPost, u, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	return decode(http.MethodPost, u, body, out)
}

func addFilePart(mw *multipart.Writer, field, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	part, err := mw.CreateFormFile(field, filepath.Base(name))
	if err != nil {
		return fmt.Errorf("create part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return nil
}

func (c *Client) resolve(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// do runs one request and returns the body of a 2xx answer.
func (c *Client) do(ctx context.Context, method, u string, body io.Reader, contentType string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, u); err != nil {
		return nil, &errs.TransportError{Method: method, URL: u, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &errs.TransportError{Method: method, URL: u, Message: "create request", Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, application/octet-stream;q=0.9, */*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errs.TransportError{Method: method, URL: u, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	// one byte past the cap tells a full body from a cut one
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, &errs.TransportError{Method: method, URL: u, Status: resp.StatusCode, Message: "read body", Err: err}
	}
	tooLarge := int64(len(respBody)) > c.maxBytes
	if tooLarge {
		respBody = respBody[:c.maxBytes]
	}

	log.Debug().Str("method", method).Str("url", u).Int("status", resp.StatusCode).Int("bytes", len(respBody)).Msg("http")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &errs.TransportError{
			Method:  method,
			URL:     u,
			Status:  resp.StatusCode,
			Body:    respBody,
			Message: errorMessage(resp.StatusCode, respBody),
		}
	}

	if tooLarge {
		return nil, &errs.TransportError{
			Method:  method,
			URL:     u,
			Status:  resp.StatusCode,
			Message: "response exceeds max_body_bytes",
		}
	}

	return respBody, nil
}

// errorMessage prefers the server's {"error": "..."} field.
func errorMessage(status int, body []byte) string {
	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Error != "" {
			return apiErr.Error
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return http.StatusText(status)
}

func encode(method, u string, in any) ([]byte, error) {
	if in == nil {
		return []byte("{}"), nil
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, &errs.TransportError{Method: method, URL: u, Message: "encode request", Err: err}
	}
	return payload, nil
}

func decode(method, u string, body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &errs.TransportError{Method: method, URL: u, Status: http.StatusOK, Body: body, Message: "invalid JSON response", Err: err}
	}
	return nil
}
