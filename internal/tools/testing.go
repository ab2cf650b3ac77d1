package tools

import (
	"log/slog"
	"net/http"
)

// NewWeatherToolsetForTest creates a WeatherToolset pointed at a custom
// endpoint. Tests only.
func NewWeatherToolsetForTest(apiKey, baseURL string, client *http.Client, logger *slog.Logger) *WeatherToolset {
	wt := NewWeatherToolset(apiKey, logger)
	wt.baseURL = baseURL
	if client != nil {
		wt.client = client
	}
	return wt
}
