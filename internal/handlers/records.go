package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/namsan/ministry/internal/models"
	"github.com/namsan/ministry/internal/report"
	"github.com/namsan/ministry/internal/services"
	"github.com/namsan/ministry/internal/store"
)

type recordsVM struct {
	Title    string
	Flash    *Flash
	Zones    []string
	Months   []string
	Zone     string
	Selected string
	Labels   []string
	Rows     []models.ActivityRecord
	Version  string
}

func recordsView(t *template.Template) *template.Template {
	view := template.Must(t.Clone())
	template.Must(view.ParseFiles("templates/pages/records.tmpl"))
	return view
}

// GET /records
// The monthly 0/1 flag editor for one zone.
func Records(t *template.Template, d *services.Dashboard) http.HandlerFunc {
	view := recordsView(t)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if r.URL.Query().Get("refresh") == "1" {
			d.InvalidateAll()
			http.Redirect(w, r, "/records?ok=refreshed", http.StatusSeeOther)
			return
		}
		roster, _, err := d.LoadRoster(ctx)
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusBadGateway)
			return
		}
		vm := &recordsVM{
			Title:  "데이터 입력",
			Flash:  MakeFlash(r, "", ""),
			Zones:  services.Zones(roster),
			Labels: models.IndicatorLabels(),
		}
		if len(vm.Zones) == 0 {
			render(w, view, "records.tmpl", vm)
			return
		}
		zone := r.URL.Query().Get("zone")
		if zone == "" {
			zone = vm.Zones[0]
		}
		vm.Zone = zone

		history, version, err := d.LoadZone(ctx, zone)
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusBadGateway)
			return
		}
		vm.Version = version
		periods := report.Periods(history)
		for _, p := range periods {
			vm.Months = append(vm.Months, p.Label())
		}
		if len(periods) == 0 {
			render(w, view, "records.tmpl", vm)
			return
		}
		selected := periods[0]
		if raw := r.URL.Query().Get("month"); raw != "" {
			if p, ok := models.ParsePeriod(raw); ok {
				selected = p
			}
		}
		vm.Selected = selected.Label()
		for _, rec := range history {
			if rec.Period == selected {
				vm.Rows = append(vm.Rows, rec)
			}
		}
		render(w, view, "records.tmpl", vm)
	}
}

// POST /records
// Versioned save of one zone-month. A stale version re-renders the form with
// the submitted flags intact.
func RecordsSave(t *template.Template, d *services.Dashboard) http.HandlerFunc {
	view := recordsView(t)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		zone := r.FormValue("zone")
		period, ok := models.ParsePeriod(r.FormValue("month"))
		if zone == "" || !ok {
			http.Error(w, "zone and month are required", http.StatusBadRequest)
			return
		}
		edited := parseRecordRows(r, period)
		version := r.FormValue("version")

		err := d.SaveZonePeriod(ctx, zone, period, edited, version)
		if err == nil {
			http.Redirect(w, r,
				fmt.Sprintf("/records?zone=%s&month=%s&ok=saved",
					url.QueryEscape(zone), url.QueryEscape(period.Label())),
				http.StatusSeeOther)
			return
		}

		msg := "저장 실패: " + err.Error()
		if errors.Is(err, store.ErrStaleWrite) {
			msg = errText["stale"]
		}
		roster, _, rosterErr := d.LoadRoster(ctx)
		var zones []string
		if rosterErr == nil {
			zones = services.Zones(roster)
		}
		vm := &recordsVM{
			Title:    "데이터 입력",
			Flash:    &Flash{Kind: "error", Text: msg},
			Zones:    zones,
			Months:   []string{period.Label()},
			Zone:     zone,
			Selected: period.Label(),
			Labels:   models.IndicatorLabels(),
			Rows:     edited,
			Version:  r.FormValue("version"),
		}
		render(w, view, "records.tmpl", vm)
	}
}

func parseRecordRows(r *http.Request, period models.Period) []models.ActivityRecord {
	count, _ := strconv.Atoi(r.FormValue("count"))
	out := make([]models.ActivityRecord, 0, count)
	for i := 0; i < count; i++ {
		field := func(name string) string {
			return strings.TrimSpace(r.FormValue(fmt.Sprintf("%s.%d", name, i)))
		}
		rec := models.ActivityRecord{
			Period: period,
			Name:   field("name"),
			Role:   field("role"),
			Status: field("status"),
		}
		if rec.Name == "" {
			continue
		}
		for j := 0; j < models.IndicatorCount; j++ {
			v, err := strconv.Atoi(field(fmt.Sprintf("flag.%d", j)))
			if err != nil || v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			rec.Flags[j] = v
		}
		out = append(out, rec)
	}
	return out
}
