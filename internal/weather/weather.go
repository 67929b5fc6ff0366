package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"crop-monitor-service/internal/config"
)

const (
	geoURL     = "http://api.openweathermap.org/geo/1.0/direct"
	weatherURL = "https://api.openweathermap.org/data/2.5/weather"
)

// Coordinates is a geocoded location.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Conditions is the ambient context fused into readings.
type Conditions struct {
	AirTemperature float64 `json:"air_temperature"`
	Humidity       float64 `json:"humidity"`
}

// Provider resolves regions to coordinates and coordinates to current
// conditions. Implementations may be slow; callers decide fallbacks.
type Provider interface {
	// Geocode returns nil with no error when the region cannot be
	// resolved.
	Geocode(ctx context.Context, region string) (*Coordinates, error)
	CurrentConditions(ctx context.Context, lat, lon float64) (Conditions, error)
}

// OpenWeatherMap implements Provider against the OpenWeatherMap API.
type OpenWeatherMap struct {
	cfg    config.WeatherConfig
	client *http.Client
}

func NewOpenWeatherMap(cfg config.WeatherConfig) *OpenWeatherMap {
	return &OpenWeatherMap{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *OpenWeatherMap) Geocode(ctx context.Context, region string) (*Coordinates, error) {
	if w.cfg.APIKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", region)
	params.Set("limit", "1")
	params.Set("appid", w.cfg.APIKey)

	var results []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := w.getJSON(ctx, geoURL+"?"+params.Encode(), &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &Coordinates{Lat: results[0].Lat, Lon: results[0].Lon}, nil
}

func (w *OpenWeatherMap) CurrentConditions(ctx context.Context, lat, lon float64) (Conditions, error) {
	if w.cfg.APIKey == "" {
		return Conditions{}, fmt.Errorf("API key not configured")
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("units", "metric")
	params.Set("appid", w.cfg.APIKey)

	var payload struct {
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
	}
	if err := w.getJSON(ctx, weatherURL+"?"+params.Encode(), &payload); err != nil {
		return Conditions{}, err
	}

	return Conditions{
		AirTemperature: payload.Main.Temp,
		Humidity:       payload.Main.Humidity,
	}, nil
}

func (w *OpenWeatherMap) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		log.Printf("[weather] request failed: %v", err)
		return fmt.Errorf("failed to call API")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response")
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[weather] non-200 status %d: %s", resp.StatusCode, string(body))
		return fmt.Errorf("weather API error")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse JSON")
	}
	return nil
}
