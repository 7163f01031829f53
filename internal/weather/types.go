package weather

// Snapshot holds current weather conditions for a city.
type Snapshot struct {
	City        string   `json:"city"`
	Temperature float64  `json:"temperature"`
	Description string   `json:"description"`
	Humidity    *int     `json:"humidity,omitempty"`
	WindSpeed   *float64 `json:"windSpeed,omitempty"`
}

// ForecastDay is one calendar day of an aggregated forecast.
type ForecastDay struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
}

// Coordinates locate a city resolved by the geocoder.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Sample is a single 3-hour forecast point as reported upstream.
type Sample struct {
	Timestamp   string
	Temperature float64
	Description string
}
