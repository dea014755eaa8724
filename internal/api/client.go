// Package api is the session-aware client for the remote todo API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource supplies the current session token. It is consulted on
// every request.
type TokenSource interface {
	Token() string
}

// Options tunes a Client. The zero value is usable.
type Options struct {
	// Timeout bounds each request. Zero leaves the transport default.
	Timeout time.Duration

	// UpdateMethod is used by UpdateTodo; POST when empty.
	UpdateMethod string

	// HTTPClient replaces the default client; Timeout is ignored then.
	HTTPClient *http.Client

	// Logger receives request failures; slog.Default when nil.
	Logger *slog.Logger
}

// Client is a thin HTTP client for the todo API. It attaches the session
// bearer token to every request and reports outcomes as Results instead
// of errors. Each call is a single attempt.
type Client struct {
	baseURL      string
	tokens       TokenSource
	httpClient   *http.Client
	updateMethod string
	logger       *slog.Logger
}

// NewClient creates a new API client rooted at baseURL.
func NewClient(baseURL string, tokens TokenSource, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	method := strings.ToUpper(opts.UpdateMethod)
	if method == "" {
		method = http.MethodPost
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		tokens:       tokens,
		httpClient:   httpClient,
		updateMethod: method,
		logger:       logger,
	}
}

// File is a binary part of a multipart upload.
type File struct {
	// Field is the form field name; "image" when empty.
	Field string

	// Name is the file name sent to the server.
	Name string

	// ContentType defaults to image/jpeg.
	ContentType string

	// Content is read once while the request body is built.
	Content io.Reader
}

// Get performs an authenticated GET.
func (c *Client) Get(ctx context.Context, endpoint string) Result[json.RawMessage] {
	return c.doJSON(ctx, http.MethodGet, endpoint, nil)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any) Result[json.RawMessage] {
	return c.doJSON(ctx, http.MethodPost, endpoint, body)
}

// Put performs an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body any) Result[json.RawMessage] {
	return c.doJSON(ctx, http.MethodPut, endpoint, body)
}

// Delete performs an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, endpoint string) Result[json.RawMessage] {
	return c.doJSON(ctx, http.MethodDelete, endpoint, nil)
}

// Upload performs an authenticated multipart POST carrying file and the
// scalar fields.
func (c *Client) Upload(
	ctx context.Context,
	endpoint string,
	file File,
	fields map[string]string,
) Result[json.RawMessage] {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := writeFilePart(w, file); err != nil {
		return c.fail(http.MethodPost, endpoint, "", failure[json.RawMessage](0, "", err))
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return c.fail(http.MethodPost, endpoint, "", failure[json.RawMessage](0, "", fmt.Errorf("writing field %q: %w", k, err)))
		}
	}

	if err := w.Close(); err != nil {
		return c.fail(http.MethodPost, endpoint, "", failure[json.RawMessage](0, "", fmt.Errorf("closing multipart body: %w", err)))
	}

	return c.do(ctx, http.MethodPost, endpoint, &buf, w.FormDataContentType())
}

func writeFilePart(w *multipart.Writer, file File) error {
	field := file.Field
	if field == "" {
		field = "image"
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(
		`form-data; name="%s"; filename="%s"`,
		escapeQuotes(field), escapeQuotes(file.Name),
	))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating file part: %w", err)
	}
	if file.Content != nil {
		if _, err := io.Copy(part, file.Content); err != nil {
			return fmt.Errorf("copying file content: %w", err)
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// doJSON marshals body (if any) and performs the request.
func (c *Client) doJSON(
	ctx context.Context,
	method string,
	endpoint string,
	body any,
) Result[json.RawMessage] {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return c.fail(method, endpoint, "", failure[json.RawMessage](0, "", fmt.Errorf("marshaling request body: %w", err)))
		}
		bodyReader = bytes.NewReader(data)
	}
	return c.do(ctx, method, endpoint, bodyReader, "application/json")
}

// do is the core HTTP method: it reads the token, builds headers,
// executes the request once and folds every outcome into a Result.
func (c *Client) do(
	ctx context.Context,
	method string,
	endpoint string,
	body io.Reader,
	contentType string,
) Result[json.RawMessage] {
	requestID := uuid.New().String()

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), body)
	if err != nil {
		return c.fail(method, endpoint, requestID, failure[json.RawMessage](0, "", fmt.Errorf("creating request: %w", err)))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token())
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(method, endpoint, requestID, failure[json.RawMessage](0, "", fmt.Errorf("executing request %s %s: %w", method, endpoint, err)))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(method, endpoint, requestID, failure[json.RawMessage](resp.StatusCode, "", fmt.Errorf("reading response body: %w", err)))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(method, endpoint, requestID, failure[json.RawMessage](
			resp.StatusCode,
			errorMessage(respBody),
			fmt.Errorf("unexpected status %d on %s %s", resp.StatusCode, method, endpoint),
		))
	}

	c.logger.Debug("api request",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"request_id", requestID,
	)

	return Result[json.RawMessage]{
		Status:     true,
		Data:       json.RawMessage(bytes.TrimSpace(respBody)),
		StatusCode: resp.StatusCode,
	}
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) url(endpoint string) string {
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

// fail logs a failed request and passes the Result through.
func (c *Client) fail(method, endpoint, requestID string, r Result[json.RawMessage]) Result[json.RawMessage] {
	c.logger.Warn("api request failed",
		"method", method,
		"endpoint", endpoint,
		"status", r.StatusCode,
		"request_id", requestID,
		"message", r.Message,
		"error", r.Err,
	)
	return r
}
