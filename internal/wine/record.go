package wine

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Color is the wine's color category.
type Color string

const (
	ColorRed       Color = "red"
	ColorWhite     Color = "white"
	ColorRose      Color = "rose"
	ColorSparkling Color = "sparkling"
	ColorDessert   Color = "dessert"
	ColorFortified Color = "fortified"
	ColorOrange    Color = "orange"
)

// Record is the canonical wine entity. Records are immutable once fetched and
// cached by ID.
type Record struct {
	ID           string   `json:"id"`
	Producer     string   `json:"producer"`
	Name         string   `json:"name"`
	Vintage      *int     `json:"vintage,omitempty"`
	Region       string   `json:"region,omitempty"`
	Country      string   `json:"country,omitempty"`
	Color        Color    `json:"color,omitempty"`
	Grapes       []string `json:"grapes,omitempty"`
	Score        float64  `json:"score,omitempty"`
	TastingNote  string   `json:"tasting_note,omitempty"`
	Reviewer     string   `json:"reviewer,omitempty"`
	DrinkFrom    *int     `json:"drink_from,omitempty"`
	DrinkTo      *int     `json:"drink_to,omitempty"`
	ReleasePrice *float64 `json:"release_price,omitempty"`
}

// FullName joins producer and name, dropping the name when it repeats the
// producer (e.g. "Château Margaux" / "Château Margaux").
func (r Record) FullName() string {
	producer := strings.TrimSpace(r.Producer)
	name := strings.TrimSpace(r.Name)
	switch {
	case producer == "":
		return name
	case name == "":
		return producer
	case strings.EqualFold(producer, name):
		return producer
	case strings.HasPrefix(strings.ToLower(name), strings.ToLower(producer)):
		return name
	default:
		return producer + " " + name
	}
}

// DisplayName renders the full name in title case with the vintage appended.
func (r Record) DisplayName() string {
	title := cases.Title(language.Und, cases.NoLower).String(r.FullName())
	if r.Vintage != nil {
		return title + " " + strconv.Itoa(*r.Vintage)
	}
	return title + " NV"
}

// SameVintage reports whether the record's vintage equals v (both nil counts as equal).
func (r Record) SameVintage(v *int) bool {
	if r.Vintage == nil || v == nil {
		return r.Vintage == nil && v == nil
	}
	return *r.Vintage == *v
}

// DrinkWindowStatus classifies the record's drinking window relative to year.
type DrinkWindowStatus string

const (
	DrinkUnknown  DrinkWindowStatus = "unknown"
	DrinkTooYoung DrinkWindowStatus = "too_young"
	DrinkReady    DrinkWindowStatus = "ready"
	DrinkPastPeak DrinkWindowStatus = "past_peak"
)

// DrinkWindow reports where year falls within the record's drink window.
func (r Record) DrinkWindow(year int) DrinkWindowStatus {
	if r.DrinkFrom == nil && r.DrinkTo == nil {
		return DrinkUnknown
	}
	if r.DrinkFrom != nil && year < *r.DrinkFrom {
		return DrinkTooYoung
	}
	if r.DrinkTo != nil && year > *r.DrinkTo {
		return DrinkPastPeak
	}
	return DrinkReady
}
