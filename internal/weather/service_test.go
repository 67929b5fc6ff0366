package weather

import (
	"context"
	"errors"
	"testing"

	"crop-monitor-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST FAKES
// ============================================================================

type fakeProvider struct {
	coords        *Coordinates
	geocodeErr    error
	conditions    Conditions
	conditionsErr error
	geocodeCalls  int
	currentCalls  int
}

func (f *fakeProvider) Geocode(ctx context.Context, region string) (*Coordinates, error) {
	f.geocodeCalls++
	return f.coords, f.geocodeErr
}

func (f *fakeProvider) CurrentConditions(ctx context.Context, lat, lon float64) (Conditions, error) {
	f.currentCalls++
	return f.conditions, f.conditionsErr
}

func testWeatherConfig() config.WeatherConfig {
	return config.WeatherConfig{
		DefaultTemperature: 25.0,
		DefaultHumidity:    60.0,
	}
}

func ptr(v float64) *float64 { return &v }

// ============================================================================
// TEST SUITE 1: AMBIENT LOOKUP
// ============================================================================

func TestAmbientFor_NilCoordinatesUseDefaults(t *testing.T) {
	provider := &fakeProvider{}
	service := NewService(provider, nil, testWeatherConfig())

	conditions := service.AmbientFor(context.Background(), nil, nil)

	assert.Equal(t, Conditions{AirTemperature: 25.0, Humidity: 60.0}, conditions)
	assert.Equal(t, 0, provider.currentCalls, "No provider call without coordinates")
}

func TestAmbientFor_ProviderFailureUsesDefaults(t *testing.T) {
	provider := &fakeProvider{conditionsErr: errors.New("rate limited")}
	service := NewService(provider, nil, testWeatherConfig())

	conditions := service.AmbientFor(context.Background(), ptr(21.0), ptr(105.8))

	assert.Equal(t, 25.0, conditions.AirTemperature, "Degradation is silent, never an error")
	assert.Equal(t, 60.0, conditions.Humidity)
}

func TestAmbientFor_ProviderConditionsPassThrough(t *testing.T) {
	provider := &fakeProvider{conditions: Conditions{AirTemperature: 31.5, Humidity: 78.0}}
	service := NewService(provider, nil, testWeatherConfig())

	conditions := service.AmbientFor(context.Background(), ptr(21.0), ptr(105.8))

	assert.Equal(t, 31.5, conditions.AirTemperature)
	assert.Equal(t, 78.0, conditions.Humidity)
	assert.Equal(t, 1, provider.currentCalls)
}

// ============================================================================
// TEST SUITE 2: GEOCODING
// ============================================================================

func TestGeocode_ResolvedRegion(t *testing.T) {
	provider := &fakeProvider{coords: &Coordinates{Lat: 21.028, Lon: 105.854}}
	service := NewService(provider, nil, testWeatherConfig())

	coords := service.Geocode(context.Background(), "Hanoi")

	require.NotNil(t, coords)
	assert.Equal(t, 21.028, coords.Lat)
	assert.Equal(t, 105.854, coords.Lon)
}

func TestGeocode_UnresolvableRegionIsNil(t *testing.T) {
	provider := &fakeProvider{coords: nil}
	service := NewService(provider, nil, testWeatherConfig())

	coords := service.Geocode(context.Background(), "Atlantis")

	assert.Nil(t, coords)
}

func TestGeocode_ProviderErrorIsNil(t *testing.T) {
	provider := &fakeProvider{geocodeErr: errors.New("timeout")}
	service := NewService(provider, nil, testWeatherConfig())

	coords := service.Geocode(context.Background(), "Hanoi")

	assert.Nil(t, coords, "Geocoding is best-effort")
}

func TestDefaults_MatchConfig(t *testing.T) {
	service := NewService(&fakeProvider{}, nil, config.WeatherConfig{
		DefaultTemperature: 18.0,
		DefaultHumidity:    45.0,
	})

	assert.Equal(t, Conditions{AirTemperature: 18.0, Humidity: 45.0}, service.Defaults())
}
