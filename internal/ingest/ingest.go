// Package ingest converts raw table snapshots into typed records and back.
// All coercion happens here so the aggregation engine never sees untyped
// data: flags parse to ints with 0 as the fallback, period labels parse to
// canonical periods, and columns the dashboard does not know about ride
// along opaquely for round-trip fidelity.
package ingest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/namsan/ministry/internal/models"
	"github.com/namsan/ministry/internal/store"
)

var rosterHeader = []string{
	models.ColName, models.ColRegion, models.ColZone,
	models.ColRole, models.ColStatus, models.ColJoined,
}

func activityHeader() []string {
	h := []string{models.ColPeriod, models.ColName, models.ColRole, models.ColStatus}
	return append(h, models.IndicatorLabels()...)
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}

func cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseFlag coerces an indicator cell to an integer. Non-numeric and missing
// values become 0; "1.0" style floats are accepted.
func parseFlag(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// ParseRoster reads Record_DB rows. Rows without a name are skipped.
func ParseRoster(t store.Table) []models.Member {
	idx := columnIndex(t.Header)
	out := make([]models.Member, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := models.Member{
			Name:     cell(row, idx, models.ColName),
			Region:   cell(row, idx, models.ColRegion),
			Zone:     cell(row, idx, models.ColZone),
			Role:     cell(row, idx, models.ColRole),
			Status:   cell(row, idx, models.ColStatus),
			JoinedOn: cell(row, idx, models.ColJoined),
		}
		if m.Name == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// RosterTable renders members back to the fixed Record_DB layout.
func RosterTable(members []models.Member) store.Table {
	t := store.Table{Header: append([]string(nil), rosterHeader...)}
	for _, m := range members {
		t.Rows = append(t.Rows, []string{
			m.Name, m.Region, m.Zone, m.Role, m.Status, m.JoinedOn,
		})
	}
	return t
}

// ParseActivity reads one zone's activity table. Rows without a name are
// skipped; rows whose period label does not parse are kept with a zero
// period (date-dependent aggregation ignores them) and the raw label stashed
// so a later rewrite does not lose the row.
func ParseActivity(t store.Table) []models.ActivityRecord {
	idx := columnIndex(t.Header)
	known := make(map[string]bool, len(activityHeader()))
	for _, c := range activityHeader() {
		known[c] = true
	}

	out := make([]models.ActivityRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		name := cell(row, idx, models.ColName)
		if name == "" {
			continue
		}
		rec := models.ActivityRecord{
			Name:   name,
			Role:   cell(row, idx, models.ColRole),
			Status: cell(row, idx, models.ColStatus),
		}
		raw := cell(row, idx, models.ColPeriod)
		if p, ok := models.ParsePeriod(raw); ok {
			rec.Period = p
		} else if raw != "" {
			rec.Extra = map[string]string{models.ColPeriod: raw}
		}
		for i := 0; i < models.IndicatorCount; i++ {
			rec.Flags[i] = parseFlag(cell(row, idx, models.Indicator(i).Label()))
		}
		for col, ci := range idx {
			if known[col] || ci >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[ci]); v != "" {
				if rec.Extra == nil {
					rec.Extra = map[string]string{}
				}
				rec.Extra[col] = v
			}
		}
		out = append(out, rec)
	}
	return out
}

// ActivityTable renders records back to the sheet layout. Unknown columns
// seen during ingestion are appended after the known ones in sorted order.
func ActivityTable(records []models.ActivityRecord) store.Table {
	header := activityHeader()
	known := make(map[string]bool, len(header))
	for _, c := range header {
		known[c] = true
	}
	extraSet := map[string]bool{}
	for _, r := range records {
		for col := range r.Extra {
			if !known[col] {
				extraSet[col] = true
			}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for col := range extraSet {
		extras = append(extras, col)
	}
	sort.Strings(extras)

	t := store.Table{Header: append(append([]string(nil), header...), extras...)}
	for _, r := range records {
		period := r.Period.Label()
		if period == "" {
			period = r.Extra[models.ColPeriod]
		}
		row := []string{period, r.Name, r.Role, r.Status}
		for i := 0; i < models.IndicatorCount; i++ {
			row = append(row, strconv.Itoa(r.Flags[i]))
		}
		for _, col := range extras {
			row = append(row, r.Extra[col])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// SortByRecency orders records newest period first, preserving the relative
// order of rows within a period. Records without a parseable period sink to
// the bottom.
func SortByRecency(records []models.ActivityRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[j].Period.Before(records[i].Period)
	})
}

// Validate reports integrity problems the engine tolerates but provisioning
// and tests should flag: duplicate (period, name) pairs within one table.
func Validate(records []models.ActivityRecord) []string {
	seen := map[string]bool{}
	var problems []string
	for _, r := range records {
		if r.Period.IsZero() {
			continue
		}
		key := r.Period.Label() + "\x00" + r.Name
		if seen[key] {
			problems = append(problems,
				fmt.Sprintf("중복 레코드: %s / %s", r.Period.Label(), r.Name))
			continue
		}
		seen[key] = true
	}
	return problems
}
