package testsupport

import "winelens/internal/wine"

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// SampleRecords returns a small, fixed catalog covering vintage and
// non-vintage wines across regions.
func SampleRecords() []wine.Record {
	return []wine.Record{
		{
			ID: "margaux-2015", Producer: "Château Margaux", Name: "Château Margaux", Vintage: intPtr(2015),
			Region: "Margaux", Country: "France", Color: wine.ColorRed,
			Grapes: []string{"Cabernet Sauvignon", "Merlot"}, Score: 100, Reviewer: "JS",
			DrinkFrom: intPtr(2025), DrinkTo: intPtr(2065), ReleasePrice: floatPtr(650),
		},
		{
			ID: "ridge-mb-2016", Producer: "Ridge", Name: "Monte Bello", Vintage: intPtr(2016),
			Region: "Santa Cruz Mountains", Country: "USA", Color: wine.ColorRed,
			Grapes: []string{"Cabernet Sauvignon"}, Score: 98,
			DrinkFrom: intPtr(2024), DrinkTo: intPtr(2050),
		},
		{
			ID: "opus-one-2018", Producer: "Opus One", Name: "Opus One", Vintage: intPtr(2018),
			Region: "Napa Valley", Country: "USA", Color: wine.ColorRed, Score: 96,
		},
		{
			ID: "krug-gc", Producer: "Krug", Name: "Grande Cuvée",
			Region: "Champagne", Country: "France", Color: wine.ColorSparkling, Score: 97,
		},
		{
			ID: "leflaive-pm-2019", Producer: "Domaine Leflaive", Name: "Puligny-Montrachet", Vintage: intPtr(2019),
			Region: "Burgundy", Country: "France", Color: wine.ColorWhite, Grapes: []string{"Chardonnay"}, Score: 94,
		},
	}
}
