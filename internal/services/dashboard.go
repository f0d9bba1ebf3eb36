package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/namsan/ministry/internal/ingest"
	"github.com/namsan/ministry/internal/logger"
	"github.com/namsan/ministry/internal/models"
	"github.com/namsan/ministry/internal/report"
	"github.com/namsan/ministry/internal/store"
)

// RegionAll is the "every region" filter value used across the views.
const RegionAll = "전체"

// FallbackRegion labels zones the roster cannot place.
const FallbackRegion = "기타"

// Dashboard owns the read/write flows between the table store and the
// typed domain. The store is an explicit dependency; nothing here reaches
// for globals.
type Dashboard struct {
	store    store.Store
	log      *logger.Logger
	validate *validator.Validate
}

func NewDashboard(s store.Store, log *logger.Logger) *Dashboard {
	return &Dashboard{
		store:    s,
		log:      log,
		validate: validator.New(),
	}
}

// InvalidateAll drops every cached read when the store is cached; the UI
// refresh action calls this.
func (d *Dashboard) InvalidateAll() {
	if inv, ok := d.store.(store.Invalidator); ok {
		inv.Reset()
	}
}

// LoadRoster reads Record_DB. A missing table is an empty roster, not an
// error.
func (d *Dashboard) LoadRoster(ctx context.Context) ([]models.Member, string, error) {
	t, err := store.ReadOrEmpty(ctx, d.store, models.RosterTable)
	if err != nil {
		return nil, "", fmt.Errorf("load roster: %w", err)
	}
	return ingest.ParseRoster(t), t.Version, nil
}

// SaveRoster validates and rewrites Record_DB under the version the editor
// loaded. Invalid rows fail the whole save so the sheet never holds
// half-validated data.
func (d *Dashboard) SaveRoster(ctx context.Context, members []models.Member, expect string) error {
	for i, m := range members {
		if err := d.validate.Struct(m); err != nil {
			return fmt.Errorf("행 %d (%s): 잘못된 값: %w", i+1, m.Name, err)
		}
	}
	if err := d.store.WriteAll(ctx, models.RosterTable, ingest.RosterTable(members), expect); err != nil {
		return err
	}
	d.log.Info("roster saved", "members", len(members))
	return nil
}

// LoadZone reads one zone's full activity history. Missing table = empty
// history.
func (d *Dashboard) LoadZone(ctx context.Context, zone string) ([]models.ActivityRecord, string, error) {
	t, err := store.ReadOrEmpty(ctx, d.store, zone)
	if err != nil {
		return nil, "", fmt.Errorf("load zone %s: %w", zone, err)
	}
	return ingest.ParseActivity(t), t.Version, nil
}

// SaveZonePeriod splices the edited rows for one period into the zone's full
// history and rewrites the table. The version check runs against the fresh
// read, so edits made elsewhere since the form was rendered surface as
// store.ErrStaleWrite before anything is written.
func (d *Dashboard) SaveZonePeriod(ctx context.Context, zone string, period models.Period, edited []models.ActivityRecord, expect string) error {
	t, err := store.ReadOrEmpty(ctx, d.store, zone)
	if err != nil {
		return fmt.Errorf("reload zone %s: %w", zone, err)
	}
	if expect != "" && t.Version != expect {
		return store.ErrStaleWrite
	}
	history := ingest.ParseActivity(t)
	replaced := map[string]models.ActivityRecord{}
	merged := make([]models.ActivityRecord, 0, len(history)+len(edited))
	for _, r := range history {
		if r.Period != period {
			merged = append(merged, r)
			continue
		}
		if _, ok := replaced[r.Name]; !ok {
			replaced[r.Name] = r
		}
	}
	// The edit form only carries the known columns; anything extra the sheet
	// held for these rows rides through untouched.
	for _, e := range edited {
		if old, ok := replaced[e.Name]; ok {
			if e.Extra == nil {
				e.Extra = old.Extra
			}
			if e.Role == "" {
				e.Role = old.Role
			}
		}
		merged = append(merged, e)
	}
	ingest.SortByRecency(merged)

	if err := d.store.WriteAll(ctx, zone, ingest.ActivityTable(merged), t.Version); err != nil {
		return err
	}
	d.log.Info("zone period saved", "zone", zone, "period", period.Label(), "rows", len(edited))
	return nil
}

// AvailableMonths unions the periods found across the zone tables, newest
// first. Individual zone read failures degrade to a log line rather than
// killing the whole list, matching how staff actually use the dashboard when
// the backend is flaky.
func (d *Dashboard) AvailableMonths(ctx context.Context, zones []string) []models.Period {
	seen := map[models.Period]bool{}
	var out []models.Period
	for _, zone := range zones {
		records, _, err := d.LoadZone(ctx, zone)
		if err != nil {
			d.log.Warn("month scan skipped zone", "zone", zone, "err", err)
			continue
		}
		for _, p := range report.Periods(records) {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Before(out[i]) })
	return out
}

// Zones returns the distinct zone labels in the roster, in natural order.
func Zones(members []models.Member) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range members {
		if m.Zone == "" || seen[m.Zone] {
			continue
		}
		seen[m.Zone] = true
		out = append(out, m.Zone)
	}
	sort.Slice(out, func(i, j int) bool { return zoneLabelLess(out[i], out[j]) })
	return out
}

// Regions returns the distinct region labels in the roster, sorted.
func Regions(members []models.Member) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range members {
		if m.Region == "" || seen[m.Region] {
			continue
		}
		seen[m.Region] = true
		out = append(out, m.Region)
	}
	sort.Strings(out)
	return out
}

// ZoneRegions maps each zone to its region as recorded in the roster.
func ZoneRegions(members []models.Member) map[string]string {
	out := map[string]string{}
	for _, m := range members {
		if m.Zone == "" {
			continue
		}
		if _, ok := out[m.Zone]; !ok {
			out[m.Zone] = m.Region
		}
	}
	return out
}

func zoneLabelLess(a, b string) bool {
	na, aok := leadingNumber(a)
	nb, bok := leadingNumber(b)
	if aok && bok && na != nb {
		return na < nb
	}
	return a < b
}

func leadingNumber(s string) (int, bool) {
	i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if i == 0 {
		return 0, false
	}
	if i < 0 {
		i = len(s)
	}
	n, err := strconv.Atoi(s[:i])
	return n, err == nil
}
