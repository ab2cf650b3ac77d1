package tools

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// WeatherToolsetName is the toolset identifier constant.
const WeatherToolsetName = "weather"

// weatherAPIBaseURL is the weatherapi.com current-conditions endpoint.
const weatherAPIBaseURL = "https://api.weatherapi.com/v1/current.json"

// weatherTimeout bounds the outbound API call.
const weatherTimeout = 10 * time.Second

// maxWeatherResponseSize caps the response body read.
const maxWeatherResponseSize = 1 << 20 // 1 MB

// CurrentWeatherInput defines input for the currentWeather tool.
type CurrentWeatherInput struct {
	City string `json:"city" jsonschema_description:"The name of the city to get weather data for, optionally with country (e.g. \"London\" or \"Paris, France\")"`
}

// WeatherToolset provides the current-weather lookup tool backed by
// weatherapi.com. All failures are returned as error Results so a broken
// lookup never aborts the conversation turn.
type WeatherToolset struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewWeatherToolset creates a WeatherToolset. An empty apiKey is
// allowed; invocations then report a configuration error to the model.
func NewWeatherToolset(apiKey string, logger *slog.Logger) *WeatherToolset {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherToolset{
		apiKey:  apiKey,
		baseURL: weatherAPIBaseURL,
		client:  &http.Client{Timeout: weatherTimeout},
		logger:  logger,
	}
}

// Name returns the toolset identifier.
func (wt *WeatherToolset) Name() string {
	return WeatherToolsetName
}

// Tools returns the weather lookup tool.
func (wt *WeatherToolset) Tools() ([]Tool, error) {
	return []Tool{
		NewTool(
			"currentWeather",
			"Fetch current weather conditions for a given city. "+
				"Use this whenever the user asks about weather, temperature, or outdoor conditions. "+
				"The city may include a country for precision (e.g. \"Paris, France\").",
			true, // long running: outbound API call
			wt.CurrentWeather,
		),
	}, nil
}

// CurrentWeather fetches current conditions for a city from
// weatherapi.com. Business failures (empty city, missing key, API or
// network errors) come back in Result.Error; only a nil receiver would
// return a Go error.
func (wt *WeatherToolset) CurrentWeather(ctx *ai.ToolContext, input CurrentWeatherInput) (Result, error) {
	city := strings.TrimSpace(input.City)
	wt.logger.Info("currentWeather called", "city", city)

	if city == "" {
		return Errorf(ErrCodeValidation, "city name cannot be empty"), nil
	}
	if wt.apiKey == "" {
		return Errorf(ErrCodeConfig, "weather API key not configured: set WEATHER_API_KEY"), nil
	}

	reqURL := wt.baseURL + "?" + url.Values{
		"q":   {city},
		"key": {wt.apiKey},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx.Context, http.MethodGet, reqURL, nil)
	if err != nil {
		return Errorf(ErrCodeNetwork, fmt.Sprintf("building weather request: %v", err)), nil
	}

	resp, err := wt.client.Do(req)
	if err != nil {
		wt.logger.Error("currentWeather request failed", "city", city, "error", err)
		return Errorf(ErrCodeNetwork, fmt.Sprintf("weather API request failed: %v", err)), nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWeatherResponseSize))
	if err != nil {
		return Errorf(ErrCodeIO, fmt.Sprintf("reading weather response: %v", err)), nil
	}

	if resp.StatusCode != http.StatusOK {
		wt.logger.Error("currentWeather API error", "city", city, "status", resp.StatusCode)
		return Errorf(ErrCodeNetwork,
			fmt.Sprintf("weather API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))), nil
	}

	var conditions map[string]any
	if err := json.Unmarshal(body, &conditions); err != nil {
		return Errorf(ErrCodeIO, fmt.Sprintf("decoding weather response: %v", err)), nil
	}

	wt.logger.Info("currentWeather succeeded", "city", city)
	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Current weather for %s", city),
		Data:    conditions,
	}, nil
}
