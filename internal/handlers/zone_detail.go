package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/namsan/ministry/internal/ingest"
	"github.com/namsan/ministry/internal/models"
	"github.com/namsan/ministry/internal/report"
	"github.com/namsan/ministry/internal/services"
)

type zoneDetailVM struct {
	Title         string
	Flash         *Flash
	Zones         []string
	Months        []string
	Zone          string
	Selected      string
	Previous      string
	Labels        []string
	Current       *models.ZoneSummary
	Prev          *models.ZoneSummary
	Deltas        [models.IndicatorCount]float64
	ScoreDelta    float64
	Missing       []models.MissingMember
	Problems      []string
	RadarJSON     template.JS
	Weights       models.Weights
	WeightWarning string
	WeightQS      template.URL
}

// GET /zones
// One zone's scorecard with month-over-month deltas, the radar chart data,
// and the members missing for the month.
func ZoneDetail(t *template.Template, d *services.Dashboard) http.HandlerFunc {
	view := template.Must(t.Clone())
	template.Must(view.ParseFiles("templates/pages/zone_detail.tmpl"))

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if r.URL.Query().Get("refresh") == "1" {
			d.InvalidateAll()
			http.Redirect(w, r, "/zones?ok=refreshed", http.StatusSeeOther)
			return
		}

		roster, _, err := d.LoadRoster(ctx)
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusBadGateway)
			return
		}
		zones := services.Zones(roster)
		regions := services.ZoneRegions(roster)
		weights := parseWeights(r)

		vm := &zoneDetailVM{
			Title:         "구역별 상세 지표",
			Flash:         MakeFlash(r, "", ""),
			Zones:         zones,
			Labels:        models.IndicatorLabels(),
			Weights:       weights,
			WeightWarning: weights.SumWarning(),
			WeightQS:      template.URL(weightQuery(weights)),
		}
		if len(zones) == 0 {
			render(w, view, "zone_detail.tmpl", vm)
			return
		}

		zone := r.URL.Query().Get("zone")
		if zone == "" {
			zone = zones[0]
		}
		vm.Zone = zone

		records, _, err := d.LoadZone(ctx, zone)
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusBadGateway)
			return
		}
		periods := report.Periods(records)
		for _, p := range periods {
			vm.Months = append(vm.Months, p.Label())
		}
		if len(periods) == 0 {
			render(w, view, "zone_detail.tmpl", vm)
			return
		}

		selected := periods[0]
		if raw := r.URL.Query().Get("month"); raw != "" {
			if p, ok := models.ParsePeriod(raw); ok {
				selected = p
			}
		}
		vm.Selected = selected.Label()

		region := regions[zone]
		if region == "" {
			region = services.FallbackRegion
		}
		vm.Current = report.SummarizeZone(records, selected, zone, region)
		if vm.Current == nil {
			render(w, view, "zone_detail.tmpl", vm)
			return
		}
		vm.Current.Score = report.CompositeScore(vm.Current.Rates, weights)

		prevPeriod := selected.Prev()
		vm.Prev = report.SummarizeZone(records, prevPeriod, zone, region)
		if vm.Prev != nil {
			vm.Previous = prevPeriod.Label()
			vm.Prev.Score = report.CompositeScore(vm.Prev.Rates, weights)
			for i := 0; i < models.IndicatorCount; i++ {
				vm.Deltas[i] = vm.Current.Rates[i] - vm.Prev.Rates[i]
			}
			vm.ScoreDelta = vm.Current.Score - vm.Prev.Score
		}

		vm.Missing = report.MissingMembers(records, selected, zone)
		vm.Problems = ingest.Validate(records)

		radar := map[string]any{
			"labels":  vm.Labels,
			"current": vm.Current.Rates[:],
		}
		if vm.Prev != nil {
			radar["previous"] = vm.Prev.Rates[:]
		}
		if buf, err := json.Marshal(radar); err == nil {
			vm.RadarJSON = template.JS(buf)
		}
		render(w, view, "zone_detail.tmpl", vm)
	}
}

func render(w http.ResponseWriter, view *template.Template, name string, data any) {
	if err := view.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), 500)
	}
}
