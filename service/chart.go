package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Chart query parameter values accepted by the backend.
var (
	ChartPeriods   = []string{"1mo", "3mo", "6mo", "1y", "2y"}
	ChartExchanges = []string{"NSE", "BSE"}
)

func ValidChartPeriod(p string) bool {
	for _, v := range ChartPeriods {
		if v == p {
			return true
		}
	}
	return false
}

func ValidChartExchange(e string) bool {
	for _, v := range ChartExchanges {
		if v == e {
			return true
		}
	}
	return false
}

const chartTimeout = 60 * time.Second

// Chart fetches chart data (including the rendered PNG) for a ticker.
func (c *Client) Chart(ctx context.Context, ticker, period, exchange string) (*ChartData, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker cannot be empty")
	}
	path := fmt.Sprintf("/api/v1/chart/%s?period=%s&exchange=%s",
		url.PathEscape(ticker), url.QueryEscape(period), url.QueryEscape(exchange))

	var out ChartData
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, chartTimeout); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChartDataOnly fetches the lighter payload without the chart image.
func (c *Client) ChartDataOnly(ctx context.Context, ticker, period, exchange string) (*ChartData, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker cannot be empty")
	}
	path := fmt.Sprintf("/api/v1/chart/%s/data?period=%s&exchange=%s",
		url.PathEscape(ticker), url.QueryEscape(period), url.QueryEscape(exchange))

	var out ChartData
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, chartTimeout); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveChartImage decodes a chart's base64 PNG payload to a file.
func SaveChartImage(chart *ChartData, path string) error {
	if chart == nil || chart.ChartImage == "" {
		return fmt.Errorf("chart has no image payload")
	}
	raw, err := base64.StdEncoding.DecodeString(chart.ChartImage)
	if err != nil {
		return fmt.Errorf("failed to decode chart image: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write chart image: %w", err)
	}
	return nil
}
