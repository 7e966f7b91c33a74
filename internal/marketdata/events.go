package marketdata

import "time"

// Event is one dated market headline.
type Event struct {
	Date     string `json:"date"`
	Headline string `json:"headline"`
}

// Curated macro headlines for annotating portfolio charts.
var marketEvents = []Event{
	{Date: "2020-03-12", Headline: "Global markets crash due to COVID-19 pandemic fears."},
	{Date: "2020-11-09", Headline: "Pfizer announces COVID-19 vaccine efficacy, markets rally."},
	{Date: "2021-01-06", Headline: "Capitol riots in US shake investor confidence briefly."},
	{Date: "2021-11-10", Headline: "US inflation hits 30-year high, concerns over Fed rate hikes."},
	{Date: "2022-02-24", Headline: "Russia invades Ukraine, markets drop sharply."},
	{Date: "2022-06-15", Headline: "Federal Reserve hikes rates by 75bps, largest since 1994."},
	{Date: "2023-03-10", Headline: "Silicon Valley Bank collapse triggers tech sector selloff."},
	{Date: "2023-10-12", Headline: "US bond yields surge, fears of economic slowdown increase."},
	{Date: "2024-01-25", Headline: "Tech stocks rally on strong AI growth projections."},
	{Date: "2024-08-15", Headline: "Oil prices spike due to Middle East tensions."},
	{Date: "2025-03-05", Headline: "Global markets stabilize on easing inflation fears."},
}

// Events returns the curated headlines dated within [from, to].
func Events(from, to time.Time) []Event {
	filtered := make([]Event, 0, len(marketEvents))
	for _, ev := range marketEvents {
		d, err := time.Parse("2006-01-02", ev.Date)
		if err != nil {
			continue
		}
		if d.Before(from) || d.After(to) {
			continue
		}
		filtered = append(filtered, ev)
	}
	return filtered
}
