// Package allocation provides an HTTP client for the external allocation and
// quote service. The service computes a target share count per ticker for a
// given cash amount and safe-asset ratio, and quotes current prices.
//
// Both operations are positional contracts: response entries are in the same
// order as the submitted ticker list. Callers are responsible for rejecting
// responses whose length does not match the request.
package allocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client is the consumer-side contract for the allocation service.
type Client interface {
	// GetAllocation returns the suggested share count per ticker, in the
	// same order as the submitted tickers.
	GetAllocation(ctx context.Context, tickers []string, safeAssetRatio float64, initialCash int) ([]int, error)

	// GetCurrentPrices returns the current quoted price per ticker, in the
	// same order as the submitted tickers.
	GetCurrentPrices(ctx context.Context, tickers []string) ([]float64, error)
}

// HTTPClient communicates with the allocation service over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a new allocation service client.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GetAllocation requests a target allocation for the given tickers.
func (c *HTTPClient) GetAllocation(ctx context.Context, tickers []string, safeAssetRatio float64, initialCash int) ([]int, error) {
	body := struct {
		Tickers        []string `json:"tickers"`
		SafeAssetRatio float64  `json:"safe_asset_ratio"`
		InitialCash    int      `json:"initial_cash"`
	}{Tickers: tickers, SafeAssetRatio: safeAssetRatio, InitialCash: initialCash}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling allocation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/portfolio/create", strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching allocation: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching allocation: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		ShareCounts []int `json:"int_asset_num"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding allocation response: %w", err)
	}
	return result.ShareCounts, nil
}

// GetCurrentPrices requests current quoted prices for the given tickers.
func (c *HTTPClient) GetCurrentPrices(ctx context.Context, tickers []string) ([]float64, error) {
	body := struct {
		Tickers []string `json:"tickers"`
	}{Tickers: tickers}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling price request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/price/current", strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching prices: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		Prices []float64 `json:"prices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding price response: %w", err)
	}
	return result.Prices, nil
}
