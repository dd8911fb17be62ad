// Package drive provides a Google Drive v3 listing client with retry,
// rate limiting and full pagination.
package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/NegroHm/uda-apuntes/internal/metrics"
	"github.com/NegroHm/uda-apuntes/internal/retry"
)

// Sentinel errors for non-retryable Drive failures. Both are terminal for
// the folder that produced them, never for the whole run.
var (
	ErrNotFound  = errors.New("drive: not found")
	ErrForbidden = errors.New("drive: access denied")
)

const listFields = "nextPageToken, files(id, name, mimeType, modifiedTime, size, thumbnailLink)"

// Lister is the listing capability consumed by discovery and the walker.
type Lister interface {
	List(ctx context.Context, folderID string) ([]Entry, error)
}

// Config holds client configuration.
type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	QPS         float64
	PageSize    int
	RetryConfig retry.Config
}

// Client calls the Google Drive v3 REST API using a server-held key.
type Client struct {
	baseURL     string
	apiKey      string
	pageSize    int
	httpClient  *http.Client
	retryConfig retry.Config
	limiter     *rate.Limiter
}

// New creates a new Drive client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/drive/v3"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.QPS <= 0 {
		cfg.QPS = 8
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		cfg.PageSize = 100
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		retryConfig: cfg.RetryConfig,
		limiter:     rate.NewLimiter(rate.Limit(cfg.QPS), 1),
	}
}

// List returns all non-trashed direct children of folderID, following
// nextPageToken until the listing is exhausted.
func (c *Client) List(ctx context.Context, folderID string) ([]Entry, error) {
	var all []Entry
	pageToken := ""
	for {
		page, err := c.ListPage(ctx, folderID, pageToken)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Files...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListPage returns a single page of non-trashed direct children.
func (c *Client) ListPage(ctx context.Context, folderID, pageToken string) (Page, error) {
	q := fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(folderID))
	params := url.Values{}
	params.Set("q", q)
	params.Set("fields", listFields)
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	params.Set("orderBy", "folder,name")
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	return c.listCall(ctx, "list", params)
}

// Search returns non-trashed direct children of folderID whose name
// contains term.
func (c *Client) Search(ctx context.Context, folderID, term string) ([]Entry, error) {
	q := fmt.Sprintf("'%s' in parents and name contains '%s' and trashed=false",
		escapeQuery(folderID), escapeQuery(term))
	params := url.Values{}
	params.Set("q", q)
	params.Set("fields", listFields)
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	params.Set("orderBy", "folder,name")

	page, err := c.listCall(ctx, "search", params)
	if err != nil {
		return nil, err
	}
	return page.Files, nil
}

// GetFile fetches metadata for a single file.
func (c *Client) GetFile(ctx context.Context, fileID string) (Entry, error) {
	params := url.Values{}
	params.Set("fields", "id, name, mimeType, size, modifiedTime, description, thumbnailLink, webViewLink")

	return retry.DoWithResult(ctx, c.retryConfig, func() (Entry, error) {
		var entry Entry
		err := c.doJSON(ctx, "get", c.baseURL+"/files/"+url.PathEscape(fileID), params, &entry)
		return entry, err
	})
}

func (c *Client) listCall(ctx context.Context, operation string, params url.Values) (Page, error) {
	return retry.DoWithResult(ctx, c.retryConfig, func() (Page, error) {
		var page Page
		err := c.doJSON(ctx, operation, c.baseURL+"/files", params, &page)
		return page, err
	})
}

// doJSON performs one rate-limited API call and decodes the response.
// Timeouts, 429 and 5xx are marked retryable; 403 and 404 map to the
// terminal sentinels.
func (c *Client) doJSON(ctx context.Context, operation, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordDriveCall(operation, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return retry.Retryable(err)
	}
	defer resp.Body.Close()
	metrics.RecordDriveCall(operation, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, readError(resp.Body))
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, readError(resp.Body))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return retry.Retryable(fmt.Errorf("drive api returned %d", resp.StatusCode))
	default:
		return fmt.Errorf("drive api returned %d: %s", resp.StatusCode, readError(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode drive response: %w", err)
	}
	return nil
}

// apiError is the error envelope the Drive API returns.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func readError(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 4096))
	var e apiError
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// escapeQuery escapes single quotes inside a Drive query literal.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
