package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/velora/catalog-service/entity"
	"github.com/velora/catalog-service/jobs"
)

const (
	sourceRequestTimeout = 60 * time.Second
	// Totals come from list response headers; page 1's values are
	// authoritative for the whole sync run.
	headerTotalCount = "X-Total-Count"
	headerTotalPages = "X-Total-Pages"
)

// SourceClient talks to a connection's external catalog store API. It
// implements jobs.SourceAdapter. Timeout enforcement lives here: the
// orchestrators carry no deadline logic of their own.
type SourceClient struct {
	httpClient *http.Client
}

func InitSourceClient() *SourceClient {
	return &SourceClient{
		httpClient: &http.Client{Timeout: sourceRequestTimeout},
	}
}

// ListPage fetches one page of the connection's product listing.
func (c *SourceClient) ListPage(ctx context.Context, conn *entity.Connection, page, pageSize int, onlyInStock bool) (*jobs.SourcePage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(pageSize))
	if onlyInStock {
		query.Set("in_stock", "true")
	}

	resp, err := c.get(ctx, conn, "/products", query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned status %d for page %d", resp.StatusCode, page)
	}

	var items []jobs.SourceProduct
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}

	totalCount, _ := strconv.Atoi(resp.Header.Get(headerTotalCount))
	totalPages, _ := strconv.Atoi(resp.Header.Get(headerTotalPages))

	return &jobs.SourcePage{
		Items:      items,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// ListChildren fetches the variation children of one parent item.
func (c *SourceClient) ListChildren(ctx context.Context, conn *entity.Connection, parentExternalID int64) ([]jobs.SourceProduct, error) {
	query := url.Values{}
	query.Set("per_page", "100")

	path := fmt.Sprintf("/products/%d/variations", parentExternalID)
	resp, err := c.get(ctx, conn, path, query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned status %d for variations of %d", resp.StatusCode, parentExternalID)
	}

	var items []jobs.SourceProduct
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode variations of %d: %w", parentExternalID, err)
	}
	return items, nil
}

func (c *SourceClient) get(ctx context.Context, conn *entity.Connection, path string, query url.Values) (*http.Response, error) {
	query.Set("consumer_key", conn.ConsumerKey)
	query.Set("consumer_secret", conn.ConsumerSecret)

	endpoint := strings.TrimRight(conn.BaseURL, "/") + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source request failed: %w", err)
	}

	// Drain-and-close is the caller's job; surface oversized error bodies
	// as part of the status error instead.
	if resp.StatusCode >= http.StatusInternalServerError {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("source returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}
