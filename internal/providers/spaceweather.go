package providers

import (
	"context"
	"strconv"
	"time"
)

// SpaceWeatherClient wraps the public space-weather feeds (Kp index and
// solar flares). Public API: no key, auth_type "none".
type SpaceWeatherClient struct {
	base
}

// NewSpaceWeatherClient builds the space-weather client.
func NewSpaceWeatherClient(deps Deps, baseURL string) *SpaceWeatherClient {
	return &SpaceWeatherClient{base: newBase(deps, "spaceweather", baseURL, "")}
}

// GetKpIndex returns the latest planetary Kp reading.
func (c *SpaceWeatherClient) GetKpIndex(ctx context.Context) (KpReading, Meta) {
	// NOAA serves rows of [time_tag, kp, ...] with a header row.
	var wire [][]string
	meta := c.fetchJSON(ctx, "kp_index", "/products/noaa-planetary-k-index.json", nil, &wire)
	if !meta.OK() {
		return KpReading{}, meta
	}
	if len(wire) < 2 {
		meta.Status = StatusNoData
		return KpReading{}, meta
	}
	last := wire[len(wire)-1]
	if len(last) < 2 {
		meta.Status = StatusNoData
		return KpReading{}, meta
	}
	kp, err := strconv.ParseFloat(last[1], 64)
	if err != nil {
		meta.Status = StatusNoData
		meta.Detail = "unparseable kp row"
		return KpReading{}, meta
	}
	observed, _ := time.Parse("2006-01-02 15:04:05.000", last[0])
	return KpReading{Kp: kp, ObservedAt: observed}, meta
}

// GetSolarFlares returns recent classified flares.
func (c *SpaceWeatherClient) GetSolarFlares(ctx context.Context) ([]SolarFlare, Meta) {
	var wire []struct {
		ClassType string `json:"classType"`
		PeakTime  string `json:"peakTime"`
	}
	meta := c.fetchJSON(ctx, "solar_flares", "/DONKI/FLR", nil, &wire)
	if !meta.OK() {
		return nil, meta
	}
	flares := make([]SolarFlare, 0, len(wire))
	for _, w := range wire {
		peak, err := time.Parse("2006-01-02T15:04Z", w.PeakTime)
		if err != nil {
			peak, _ = time.Parse(time.RFC3339, w.PeakTime)
		}
		if w.ClassType == "" {
			continue
		}
		flares = append(flares, SolarFlare{Class: w.ClassType, PeakAt: peak})
	}
	if len(flares) == 0 {
		meta.Status = StatusNoData
	}
	return flares, meta
}
