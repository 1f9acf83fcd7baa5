// AngelaMos | 2026
// client.go

package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/entitlement-bot/internal/config"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/core"
)

const maxBodyBytes = 1 << 20

type ClientConfig struct {
	config.CommerceConfig

	// Debug logs every request path, status and body.
	Debug      bool
	Logger     *slog.Logger
	Metrics    *core.Metrics
	HTTPClient *http.Client
}

// Client issues bearer-authenticated GETs against the commerce API. It is
// safe for concurrent use and never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
	debug      bool
	logger     *slog.Logger
	metrics    *core.Metrics
}

// Response is a successful commerce response. JSON reports whether Body
// parsed as JSON; when false Body is raw text.
type Response struct {
	Status int
	Body   []byte
	JSON   bool
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("commerce base URL is required")
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid commerce base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		debug:      cfg.Debug,
		logger:     logger,
		metrics:    cfg.Metrics,
	}, nil
}

// Get fetches baseURL+path. Any non-2xx status or transport failure is
// returned as *APIError.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.get(ctx, path, core.NormalizeEndpoint(path))
}

func (c *Client) get(
	ctx context.Context,
	path, endpoint string,
) (resp *Response, err error) {
	ctx, span := core.StartSpan(ctx, "commerce.get",
		attribute.String("commerce.endpoint", endpoint),
	)
	defer span.End()

	start := time.Now()
	status := 0
	defer func() {
		c.metrics.ObserveCommerceRequest(endpoint, status, time.Since(start))
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			core.SetSpanError(ctx, err)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &APIError{Path: path, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.logDebug(ctx, "commerce GET error", path, 0, err.Error())
		return nil, &APIError{Path: path, Err: err}
	}
	defer httpResp.Body.Close()

	status = httpResp.StatusCode

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &APIError{
			Path:   path,
			Status: status,
			Err:    fmt.Errorf("read body: %w", err),
		}
	}
	if len(body) > maxBodyBytes {
		c.logDebug(ctx, "commerce GET error", path, status, ErrResponseTooLarge.Error())
		return nil, &APIError{
			Path:   path,
			Status: status,
			Err:    fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, maxBodyBytes),
		}
	}

	isJSON := json.Valid(body)

	if status < 200 || status > 299 {
		apiErr := &APIError{Path: path, Status: status, Body: bodyText(body, isJSON)}
		c.logDebug(ctx, "commerce GET error", path, status, apiErr.Body)
		return nil, apiErr
	}

	c.logDebug(ctx, "commerce GET", path, status, bodyText(body, isJSON))

	return &Response{Status: status, Body: body, JSON: isJSON}, nil
}

func (c *Client) logDebug(
	ctx context.Context,
	msg, path string,
	status int,
	body string,
) {
	if !c.debug {
		return
	}
	c.logger.InfoContext(ctx, msg,
		"path", path,
		"status", status,
		"response", body,
	)
}

// LookupUserID maps a Discord user id to the commerce user id.
func (c *Client) LookupUserID(ctx context.Context, discordID string) (string, error) {
	path := "/users/discord?id=" + url.QueryEscape(discordID)

	resp, err := c.get(ctx, path, "/users/discord")
	if err != nil {
		return "", err
	}

	return decodeUserID(resp), nil
}

// Accesses lists the products a commerce user can access.
func (c *Client) Accesses(ctx context.Context, userID string) ([]ProductAccess, error) {
	path := "/users/" + url.PathEscape(userID) + "/accesses"

	resp, err := c.get(ctx, path, "/users/{id}/accesses")
	if err != nil {
		return nil, err
	}

	if !resp.JSON {
		return []ProductAccess{}, nil
	}

	list, skipped := decodeAccesses(resp.Body)
	if skipped > 0 {
		c.logger.WarnContext(ctx, "skipped unreadable access records",
			"path", path,
			"skipped", skipped,
		)
	}

	return list, nil
}

func (c *Client) Product(ctx context.Context, productID int64) (*Product, error) {
	path := "/products/" + strconv.FormatInt(productID, 10)

	resp, err := c.get(ctx, path, "/products/{id}")
	if err != nil {
		return nil, err
	}

	return decodeProduct(resp), nil
}

func bodyText(body []byte, isJSON bool) string {
	if !isJSON {
		return string(body)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return string(body)
	}
	return buf.String()
}
