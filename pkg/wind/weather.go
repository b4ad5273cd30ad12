package wind

import "math"

// Reference conditions at which WeatherFactor is 1.
const (
	ReferenceTemperature = 20.0 // °C
	ReferenceHumidity    = 50.0 // % relative
)

// WeatherFactor scales a turbulence coefficient with air temperature (°C)
// and relative humidity (%):
//
//	f = 1 + 0.02·(T − 20) − 0.005·(RH − 50), clamped to [0.5, 2]
func WeatherFactor(temperature, humidity float64) float64 {
	f := 1 + 0.02*(temperature-ReferenceTemperature) - 0.005*(humidity-ReferenceHumidity)
	if math.IsNaN(f) {
		return 1
	}
	return math.Min(2, math.Max(0.5, f))
}

// MeanWeather averages the temperature and humidity carried by obs. A
// quantity that no observation carries takes its reference value, so an
// observation set without weather data yields a factor of 1.
func MeanWeather(obs []Observation) (temperature, humidity float64) {
	var st, sh float64
	var nt, nh int
	for _, o := range obs {
		if o.Temperature != nil && !math.IsNaN(*o.Temperature) {
			st += *o.Temperature
			nt++
		}
		if o.Humidity != nil && !math.IsNaN(*o.Humidity) {
			sh += *o.Humidity
			nh++
		}
	}
	temperature, humidity = ReferenceTemperature, ReferenceHumidity
	if nt > 0 {
		temperature = st / float64(nt)
	}
	if nh > 0 {
		humidity = sh / float64(nh)
	}
	return temperature, humidity
}
