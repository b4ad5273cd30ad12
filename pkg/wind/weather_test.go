package wind

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestWeatherFactor(t *testing.T) {
	cases := []struct {
		name     string
		temp, rh float64
		want     float64
	}{
		{"reference", 20, 50, 1},
		{"warm and dry", 30, 30, 1.3},
		{"cold and humid", 10, 90, 0.6},
		{"clamped high", 80, 0, 2},
		{"clamped low", -30, 100, 0.5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.InDelta(t, c.want, WeatherFactor(c.temp, c.rh), 1e-12)
		})
	}
}

func TestMeanWeather(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	obs := []Observation{
		{Timestamp: now, Speed: 5, Height: 10, Temperature: ptr(24)},
		{Timestamp: now, Speed: 6, Height: 10, Temperature: ptr(26), Humidity: ptr(40)},
		{Timestamp: now, Speed: 7, Height: 10},
	}
	temp, rh := MeanWeather(obs)
	assert.InDelta(t, 25, temp, 1e-12)
	assert.InDelta(t, 40, rh, 1e-12)

	temp, rh = MeanWeather([]Observation{{Speed: 5, Height: 10}})
	assert.Equal(t, ReferenceTemperature, temp)
	assert.Equal(t, ReferenceHumidity, rh)
	assert.Equal(t, 1.0, WeatherFactor(temp, rh))
}
