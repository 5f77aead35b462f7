package jobs

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	userAgent       = "talent-intake"
)

// itemResponse is one page of a job feed.
type itemResponse struct {
	Items   []any `json:"items"`
	Found   int   `json:"found"`
	Pages   int   `json:"pages"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

// HTTPSource reads a paginated JSON job feed. The tenant id is sent as the
// "tenant" query parameter and pages are requested with "page" (0-based).
type HTTPSource struct {
	URL        string
	Token      string
	HTTPClient *http.Client
	logger     *zap.Logger
}

// NewHTTPSource returns a feed client with a 10s request timeout.
func NewHTTPSource(feedURL, token string, log *zap.Logger) *HTTPSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPSource{
		URL:        feedURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log,
	}
}

func (h *HTTPSource) Jobs(ctx context.Context, tenantID string) ([]Job, error) {
	q := url.Values{}
	q.Set("tenant", tenantID)

	items, err := h.getItems(ctx, q)
	if err != nil {
		return nil, err
	}

	var list []Job
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &list,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode job feed: %w", err)
	}

	return NormalizeAll(list)
}

// getItems requests the first page and follows the page count.
func (h *HTTPSource) getItems(ctx context.Context, q url.Values) ([]any, error) {
	var items []any

	for page := 0; ; page++ {
		q.Set("page", strconv.Itoa(page))
		response, err := h.getPage(ctx, q)
		if err != nil {
			return nil, err
		}
		items = append(items, response.Items...)

		if page == 0 {
			h.logger.Debug("got job feed response", zap.Int("pages", response.Pages), zap.Int("found", response.Found))
		}
		if response.Page >= response.Pages-1 {
			break
		}
	}

	return items, nil
}

func (h *HTTPSource) getPage(ctx context.Context, q url.Values) (*itemResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("User-Agent", userAgent)
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	h.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request job feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("job feed bad status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	var response itemResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode job feed page: %w", err)
	}
	return &response, nil
}
