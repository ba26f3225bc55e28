package providers

import (
	"context"
	"fmt"
	"time"
)

// WeatherClient wraps the forecast API. Indoor sports never reach the wire;
// the relevance gate reports NOT_RELEVANT instead.
type WeatherClient struct {
	base
}

// NewWeatherClient builds the weather client.
func NewWeatherClient(deps Deps, baseURL, apiKey string) *WeatherClient {
	return &WeatherClient{base: newBase(deps, "weather", baseURL, apiKey)}
}

// GetGameWeather returns venue weather at game time. sport drives the
// relevance gate; indoor games return a zero snapshot with NOT_RELEVANT,
// which is distinct from a disabled integration.
func (c *WeatherClient) GetGameWeather(ctx context.Context, sport string, lat, lon float64, gameTime time.Time) (WeatherSnapshot, Meta) {
	if IndoorSport(sport) {
		return WeatherSnapshot{}, Meta{Provider: c.name, Status: StatusNotRelevant, Detail: "indoor sport"}
	}
	if lat == 0 && lon == 0 {
		return WeatherSnapshot{}, Meta{Provider: c.name, Status: StatusNoData, Detail: "no venue coordinates"}
	}
	var wire struct {
		TempF      float64 `json:"temp_f"`
		WindMPH    float64 `json:"wind_mph"`
		PrecipPct  float64 `json:"precip_pct"`
		Conditions string  `json:"conditions"`
	}
	meta := c.fetchJSON(ctx, "weather", "/v1/forecast", map[string]string{
		"lat": fmt.Sprintf("%.4f", lat),
		"lon": fmt.Sprintf("%.4f", lon),
		"ts":  gameTime.UTC().Format(time.RFC3339),
	}, &wire)
	if !meta.OK() {
		return WeatherSnapshot{}, meta
	}
	return WeatherSnapshot{
		TempF:      wire.TempF,
		WindMPH:    wire.WindMPH,
		PrecipPct:  wire.PrecipPct,
		Conditions: wire.Conditions,
	}, meta
}
