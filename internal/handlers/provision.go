package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/namsan/ministry/internal/models"
	"github.com/namsan/ministry/internal/services"
)

type zoneCount struct {
	Zone  string
	Count int
}

type provisionVM struct {
	Title       string
	Flash       *Flash
	Year        int
	Month       int
	Regions     []string
	Region      string
	ActiveTotal int
	ZoneCounts  []zoneCount
	WithYear    bool
}

func provisionView(t *template.Template) *template.Template {
	view := template.Must(t.Clone())
	template.Must(view.ParseFiles("templates/pages/provision.tmpl"))
	return view
}

// GET /provision
// Pick year/month/region and preview the active members the new month will
// be provisioned for.
func Provision(t *template.Template, d *services.Dashboard) http.HandlerFunc {
	view := provisionView(t)

	return func(w http.ResponseWriter, r *http.Request) {
		roster, _, err := d.LoadRoster(r.Context())
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusBadGateway)
			return
		}
		now := time.Now()
		vm := &provisionVM{
			Title:    "월 데이터 생성",
			Flash:    MakeFlash(r, "", ""),
			Year:     now.Year(),
			Month:    int(now.Month()),
			Regions:  append([]string{services.RegionAll}, services.Regions(roster)...),
			Region:   r.URL.Query().Get("region"),
			WithYear: true,
		}
		if vm.Region == "" {
			vm.Region = services.RegionAll
		}

		counts := map[string]int{}
		for _, m := range roster {
			if !m.IsActive() {
				continue
			}
			if vm.Region != services.RegionAll && m.Region != vm.Region {
				continue
			}
			vm.ActiveTotal++
			counts[m.Zone]++
		}
		for _, zone := range services.Zones(roster) {
			if counts[zone] > 0 {
				vm.ZoneCounts = append(vm.ZoneCounts, zoneCount{Zone: zone, Count: counts[zone]})
			}
		}
		render(w, view, "provision.tmpl", vm)
	}
}

// POST /provision
// Creates the blank records for the chosen month. The
// year is written into the period label unless the legacy bare-month form is
// requested for sheets that still use it.
func ProvisionRun(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		year, _ := strconv.Atoi(r.FormValue("year"))
		month, _ := strconv.Atoi(r.FormValue("month"))
		region := r.FormValue("region")
		if month < 1 || month > 12 {
			http.Redirect(w, r, "/provision?err=provision", http.StatusSeeOther)
			return
		}
		period := models.Period{Year: year, Month: month}
		if r.FormValue("with_year") != "1" {
			period.Year = 0
		}

		roster, _, err := d.LoadRoster(r.Context())
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusBadGateway)
			return
		}
		added, err := d.ProvisionPeriod(r.Context(), roster, period, region)
		if err != nil {
			http.Redirect(w, r, "/provision?err="+url.QueryEscape(err.Error()), http.StatusSeeOther)
			return
		}
		total := 0
		for _, n := range added {
			total += n
		}
		msg := fmt.Sprintf("%s 생성 완료: 구역 %d곳, 레코드 %d건", period.Label(), len(added), total)
		http.Redirect(w, r, "/provision?ok="+url.QueryEscape(msg), http.StatusSeeOther)
	}
}
