package providers

import (
	"context"
	"time"
)

// NewsClient wraps the headline API.
type NewsClient struct {
	base
}

// NewNewsClient builds the news client.
func NewNewsClient(deps Deps, baseURL, apiKey string) *NewsClient {
	return &NewsClient{base: newBase(deps, "news", baseURL, apiKey)}
}

// GetNews returns recent headlines for a query.
func (c *NewsClient) GetNews(ctx context.Context, query string) ([]NewsItem, Meta) {
	var wire struct {
		Articles []struct {
			Title       string `json:"title"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
			PublishedAt string `json:"publishedAt"`
		} `json:"articles"`
	}
	meta := c.fetchJSON(ctx, "news", "/v2/everything", map[string]string{
		"q":        query,
		"pageSize": "10",
	}, &wire)
	if !meta.OK() {
		return nil, meta
	}
	items := make([]NewsItem, 0, len(wire.Articles))
	for _, a := range wire.Articles {
		ts, _ := time.Parse(time.RFC3339, a.PublishedAt)
		items = append(items, NewsItem{Title: a.Title, Source: a.Source.Name, PublishedAt: ts})
	}
	if len(items) == 0 {
		meta.Status = StatusNoData
	}
	return items, meta
}

// FinanceClient wraps the market-quote API used as a crowd-sentiment proxy.
type FinanceClient struct {
	base
}

// NewFinanceClient builds the finance client.
func NewFinanceClient(deps Deps, baseURL, apiKey string) *FinanceClient {
	return &FinanceClient{base: newBase(deps, "finance", baseURL, apiKey)}
}

// GetQuote returns the day change for a symbol.
func (c *FinanceClient) GetQuote(ctx context.Context, symbol string) (QuoteSentiment, Meta) {
	var wire struct {
		Symbol        string  `json:"symbol"`
		ChangePercent float64 `json:"change_percent"`
	}
	meta := c.fetchJSON(ctx, "quote", "/v1/quote", map[string]string{
		"symbol": symbol,
	}, &wire)
	q := QuoteSentiment{Symbol: symbol}
	if !meta.OK() {
		return q, meta
	}
	q.ChangePct = wire.ChangePercent
	return q, meta
}
