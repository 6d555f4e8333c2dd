// Package alerts fetches active NWS point alerts for a site, treating a
// 404 response as "no alerts" rather than a failure.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/httpclient"
	"github.com/i474232898/weather-data-aggregation/internal/model"
)

// alertsURL is a var, not a const, so tests can point it at a local server.
var alertsURL = "https://api.weather.gov/alerts/active"

// Client fetches active alerts for a point.
type Client struct {
	Session *httpclient.Session
}

type alertFeature struct {
	Properties struct {
		Event       string `json:"event"`
		Severity    string `json:"severity"`
		Expires     string `json:"expires"`
		Instruction string `json:"instruction"`
		Description string `json:"description"`
	} `json:"properties"`
}

type alertsResponse struct {
	Features []alertFeature `json:"features"`
}

// Fetch returns the active alerts covering site's coordinates. A 404
// response (no active zone coverage) is treated as an empty result, not
// an error.
func (c *Client) Fetch(ctx context.Context, site model.Site) ([]model.AlertSummary, error) {
	url := fmt.Sprintf("%s?point=%.4f,%.4f", alertsURL, site.Latitude, site.Longitude)
	resp, err := c.Session.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("alerts: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("alerts: status %d", resp.StatusCode)
	}

	var payload alertsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("alerts: decode: %w", err)
	}
	return summarize(payload), nil
}

func summarize(payload alertsResponse) []model.AlertSummary {
	var out []model.AlertSummary
	for _, feature := range payload.Features {
		props := feature.Properties
		if props.Event == "" {
			continue
		}
		severity := props.Severity
		if severity == "" {
			severity = "Unknown"
		}
		instruction := props.Instruction
		if instruction == "" {
			instruction = props.Description
		}
		var expires *time.Time
		if props.Expires != "" {
			if t, err := time.Parse(time.RFC3339, props.Expires); err == nil {
				expires = &t
			}
		}
		out = append(out, model.AlertSummary{
			Headline:    props.Event,
			Severity:    severity,
			Expires:     expires,
			Instruction: instruction,
		})
	}
	return out
}
