package providers

import (
	"context"
)

// TrendsClient wraps the search-interest API feeding the noosphere signal.
type TrendsClient struct {
	base
}

// NewTrendsClient builds the trends client.
func NewTrendsClient(deps Deps, baseURL, apiKey string) *TrendsClient {
	return &TrendsClient{base: newBase(deps, "trends", baseURL, apiKey)}
}

// GetTrend returns search velocity for a query: the ratio of the most
// recent interest window against the series baseline.
func (c *TrendsClient) GetTrend(ctx context.Context, query string) (TrendPoint, Meta) {
	var wire struct {
		Interest []float64 `json:"interest_over_time"`
	}
	meta := c.fetchJSON(ctx, "trends", "/v1/interest", map[string]string{
		"q": query,
	}, &wire)
	point := TrendPoint{Query: query}
	if !meta.OK() {
		return point, meta
	}
	if len(wire.Interest) < 4 {
		meta.Status = StatusNoData
		return point, meta
	}
	point.Series = wire.Interest
	point.Velocity = velocity(wire.Interest)
	return point, meta
}

// velocity compares the last quarter of the series against the rest.
func velocity(series []float64) float64 {
	cut := len(series) * 3 / 4
	var baseSum, recentSum float64
	for i, v := range series {
		if i < cut {
			baseSum += v
		} else {
			recentSum += v
		}
	}
	base := baseSum / float64(cut)
	recent := recentSum / float64(len(series)-cut)
	if base <= 0 {
		return 1.0
	}
	return recent / base
}

// SERPClient wraps the search-results API. Hard daily quota; every call
// route is cached for hours, and exhaustion yields SKIPPED_QUOTA with zero
// downstream boosts.
type SERPClient struct {
	base
}

// NewSERPClient builds the SERP client.
func NewSERPClient(deps Deps, baseURL, apiKey string) *SERPClient {
	return &SERPClient{base: newBase(deps, "serp", baseURL, apiKey)}
}

// GetSERP returns a results snapshot for a query.
func (c *SERPClient) GetSERP(ctx context.Context, query string) (SERPResult, Meta) {
	var wire struct {
		TotalResults int64 `json:"total_results"`
		Organic      []struct {
			Title string `json:"title"`
		} `json:"organic_results"`
	}
	meta := c.fetchJSON(ctx, "serp", "/search", map[string]string{
		"q": query,
	}, &wire)
	res := SERPResult{Query: query}
	if !meta.OK() {
		return res, meta
	}
	res.TotalResults = wire.TotalResults
	for _, o := range wire.Organic {
		res.Headlines = append(res.Headlines, o.Title)
	}
	if res.TotalResults == 0 && len(res.Headlines) == 0 {
		meta.Status = StatusNoData
	}
	return res, meta
}
