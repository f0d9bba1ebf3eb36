package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/namsan/ministry/internal/models"
	"github.com/namsan/ministry/internal/report"
	"github.com/namsan/ministry/internal/services"
)

type regionBlock struct {
	Rollup models.RegionSummary
	Zones  []models.ZoneSummary
}

type scoreboardVM struct {
	Title         string
	Flash         *Flash
	Months        []string
	Selected      string
	Weights       models.Weights
	WeightWarning string
	Labels        []string
	Blocks        []regionBlock
	WeightQS      template.URL
}

// loadScoreboard assembles the ranked per-region scorecard for the selected
// month. Zones with no data for the month simply drop out; zones whose table
// cannot be read degrade the same way (the service logs them).
func loadScoreboard(ctx context.Context, d *services.Dashboard, monthLabel string, weights models.Weights) (*scoreboardVM, error) {
	roster, _, err := d.LoadRoster(ctx)
	if err != nil {
		return nil, err
	}
	zones := services.Zones(roster)
	regions := services.ZoneRegions(roster)

	months := d.AvailableMonths(ctx, zones)
	vm := &scoreboardVM{
		Title:         "청년회 지표",
		Weights:       weights,
		WeightWarning: weights.SumWarning(),
		Labels:        models.IndicatorLabels(),
		WeightQS:      template.URL(weightQuery(weights)),
	}
	for _, p := range months {
		vm.Months = append(vm.Months, p.Label())
	}
	if len(months) == 0 {
		return vm, nil
	}

	selected := months[0]
	if monthLabel != "" {
		if p, ok := models.ParsePeriod(monthLabel); ok {
			selected = p
		}
	}
	vm.Selected = selected.Label()

	var summaries []models.ZoneSummary
	for _, zone := range zones {
		records, _, err := d.LoadZone(ctx, zone)
		if err != nil {
			continue
		}
		region := regions[zone]
		if region == "" {
			region = services.FallbackRegion
		}
		s := report.SummarizeZone(records, selected, zone, region)
		if s == nil {
			continue
		}
		s.Score = report.CompositeScore(s.Rates, weights)
		summaries = append(summaries, *s)
	}
	ranked := report.RankZones(summaries)

	for _, rollup := range report.RegionRollup(ranked) {
		block := regionBlock{Rollup: rollup}
		for _, z := range ranked {
			if z.Region == rollup.Region {
				block.Zones = append(block.Zones, z)
			}
		}
		vm.Blocks = append(vm.Blocks, block)
	}
	return vm, nil
}

// GET /scoreboard
func Scoreboard(t *template.Template, d *services.Dashboard) http.HandlerFunc {
	view := template.Must(t.Clone())
	template.Must(view.ParseFiles("templates/pages/scoreboard.tmpl"))

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("refresh") == "1" {
			d.InvalidateAll()
			http.Redirect(w, r, "/scoreboard?ok=refreshed", http.StatusSeeOther)
			return
		}
		vm, err := loadScoreboard(r.Context(), d, r.URL.Query().Get("month"), parseWeights(r))
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusBadGateway)
			return
		}
		vm.Flash = MakeFlash(r, "", "")
		if err := view.ExecuteTemplate(w, "scoreboard.tmpl", vm); err != nil {
			http.Error(w, err.Error(), 500)
		}
	}
}

// GET /scoreboard.csv
func ScoreboardCSV(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vm, err := loadScoreboard(r.Context(), d, r.URL.Query().Get("month"), parseWeights(r))
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=scoreboard-%s.csv", vm.Selected))

		cw := csv.NewWriter(w)
		header := []string{models.ColRegion, models.ColZone, "구역장", models.StatusActive}
		header = append(header, models.IndicatorLabels()...)
		header = append(header, "종합지표", "순위")
		_ = cw.Write(header)

		for _, block := range vm.Blocks {
			for _, z := range block.Zones {
				row := []string{z.Region, z.Zone, z.Leader, strconv.Itoa(z.Active)}
				for i := 0; i < models.IndicatorCount; i++ {
					row = append(row, fmt.Sprintf("%.0f", z.Rates[i]))
				}
				row = append(row, fmt.Sprintf("%.1f", z.Score), strconv.Itoa(z.Rank))
				_ = cw.Write(row)
			}
		}
		cw.Flush()
	}
}
