package web

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/namsan/ministry/internal/config"
	"github.com/namsan/ministry/internal/handlers"
	"github.com/namsan/ministry/internal/services"
)

func Router(cfg config.Config, d *services.Dashboard) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	tmpl := mustParseTemplates("templates")

	// Public pages
	r.Get("/", handlers.Home(tmpl))
	r.Get("/healthz", handlers.Health)
	r.Get("/login", handlers.LoginForm(tmpl))
	r.Post("/login", handlers.LoginSubmit(cfg.AdminPass))
	r.Post("/logout", handlers.Logout)
	r.Get("/qr/{view}.png", handlers.QR)

	// Read-only dashboards
	r.Get("/scoreboard", handlers.Scoreboard(tmpl, d))
	r.Get("/scoreboard.csv", handlers.ScoreboardCSV(d))
	r.Get("/zones", handlers.ZoneDetail(tmpl, d))

	// Staff-only editing surface
	r.Group(func(sg chi.Router) {
		sg.Use(handlers.RequireStaff(cfg.AdminPass))
		sg.Get("/members", handlers.Members(tmpl, d))
		sg.Post("/members", handlers.MembersSave(tmpl, d))
		sg.Get("/provision", handlers.Provision(tmpl, d))
		sg.Post("/provision", handlers.ProvisionRun(d))
		sg.Get("/records", handlers.Records(tmpl, d))
		sg.Post("/records", handlers.RecordsSave(tmpl, d))
	})

	return r
}

func mustParseTemplates(baseDir string) *template.Template {
	funcs := template.FuncMap{
		"year": func() string { return time.Now().Format("2006") },
		"add":  func(a, b int) int { return a + b },
		"pct":  func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
		"pct1": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"delta": func(v float64) string {
			return fmt.Sprintf("%+.0f%%", v)
		},
		"delta1": func(v float64) string {
			return fmt.Sprintf("%+.1f%%", v)
		},
		"inds": func() []int {
			out := make([]int, 6)
			for i := range out {
				out[i] = i
			}
			return out
		},
	}

	p := template.New("").Funcs(funcs)
	p = template.Must(p.ParseGlob(filepath.Join(baseDir, "layouts", "*.tmpl")))
	p = template.Must(p.ParseGlob(filepath.Join(baseDir, "partials", "*.tmpl")))
	return p
}
