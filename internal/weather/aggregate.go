package weather

import (
	"math"
	"strings"
)

// Aggregate groups 3-hour samples by calendar date and reduces each day to a
// single ForecastDay. Days appear in the order their first sample appears.
// Temperature is the mean of the day's samples rounded to two decimals;
// description is that of the day's first sample.
func Aggregate(samples []Sample) []ForecastDay {
	type bucket struct {
		date        string
		sum         float64
		n           int
		description string
	}

	var order []*bucket
	byDate := make(map[string]*bucket)

	for _, s := range samples {
		date := sampleDate(s.Timestamp)
		b, ok := byDate[date]
		if !ok {
			b = &bucket{date: date, description: s.Description}
			byDate[date] = b
			order = append(order, b)
		}
		b.sum += s.Temperature
		b.n++
	}

	days := make([]ForecastDay, 0, len(order))
	for _, b := range order {
		days = append(days, ForecastDay{
			Date:        b.date,
			Temperature: round2(b.sum / float64(b.n)),
			Description: b.description,
		})
	}
	return days
}

// sampleDate truncates "2006-01-02 15:04:05" (or RFC 3339) to its date part.
func sampleDate(ts string) string {
	if i := strings.IndexAny(ts, " T"); i >= 0 {
		return ts[:i]
	}
	return ts
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
