package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"winelens/internal/wine"
)

func wineRows(wines []wine.Recognized, now time.Time) [][]string {
	rows := make([][]string, 0, len(wines))
	for i, w := range wines {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			wineName(w),
			string(w.Match.Tier),
			fmt.Sprintf("%.2f", w.Match.Confidence),
			formatPrice(w.ListPrice),
			drinkWindow(w, now),
		})
	}
	return rows
}

// wineFooter counts matched detections under the Wine column.
func wineFooter(wines []wine.Recognized) []string {
	matched := 0
	for _, w := range wines {
		if w.Matched() {
			matched++
		}
	}
	return []string{"", fmt.Sprintf("%d of %d matched", matched, len(wines))}
}

func wineName(w wine.Recognized) string {
	if w.Match.Record == nil {
		return w.Candidate.Text
	}
	name := w.Match.Record.DisplayName()
	if w.Match.Record.Vintage == nil && w.Match.MatchedVintage != nil {
		name = strings.TrimSuffix(name, " NV") + " " + strconv.Itoa(*w.Match.MatchedVintage)
	}
	return name
}

func formatPrice(price *float64) string {
	if price == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *price)
}

func drinkWindow(w wine.Recognized, now time.Time) string {
	if w.Match.Record == nil {
		return "-"
	}
	status := w.Match.Record.DrinkWindow(now.Year())
	if status == wine.DrinkUnknown {
		return "-"
	}
	return strings.ReplaceAll(string(status), "_", " ")
}

func recordRows(records []wine.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		vintage := "NV"
		if rec.Vintage != nil {
			vintage = strconv.Itoa(*rec.Vintage)
		}
		score := "-"
		if rec.Score > 0 {
			score = strconv.FormatFloat(rec.Score, 'f', -1, 64)
		}
		rows = append(rows, []string{rec.ID, rec.FullName(), vintage, rec.Region, string(rec.Color), score})
	}
	return rows
}


func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
