// Package report is the aggregation engine: per-zone monthly scorecards,
// weighted composite scoring, ranking, and region rollups. Every function is
// pure and total over typed records; empty input yields nil or zero results,
// never an error.
package report

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/namsan/ministry/internal/models"
)

const noRecordLabel = "기록 없음"

// SummarizeZone computes one zone's scorecard for the period. Only rows
// whose activity-table status is 재적 count; the roster status plays no part
// here. Returns nil when the zone has no active rows for the period, which
// callers show as "no data", not as a failure. On duplicate (period, name)
// rows the first one wins.
func SummarizeZone(records []models.ActivityRecord, period models.Period, zone, region string) *models.ZoneSummary {
	seen := map[string]bool{}
	var active []models.ActivityRecord
	for _, r := range records {
		if r.Period != period || seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		if r.IsActive() {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return nil
	}

	s := &models.ZoneSummary{
		Region: region,
		Zone:   zone,
		Leader: "-",
		Active: len(active),
	}
	for _, r := range active {
		if s.Leader == "-" && models.IsLeaderRole(r.Role) {
			s.Leader = r.Name
		}
	}
	for i := 0; i < models.IndicatorCount; i++ {
		sum := 0
		for _, r := range active {
			sum += r.Flags[i]
		}
		s.Rates[i] = math.Round(float64(sum) / float64(len(active)) * 100)
	}
	return s
}

// CompositeScore is the weighted sum of the six indicator rates, rounded to
// one decimal. Weights are percentages; they are applied as given even when
// they do not sum to 100.
func CompositeScore(rates [models.IndicatorCount]float64, weights models.Weights) float64 {
	score := 0.0
	for i := 0; i < models.IndicatorCount; i++ {
		score += rates[i] * weights[i] / 100
	}
	return math.Round(score*10) / 10
}

// RankZones orders summaries by composite score descending, ties broken by
// zone label ascending (numeric-aware, so 2구역 sorts before 10구역), and
// assigns ranks 1..N. The input is not mutated; re-ranking ranked output is
// a no-op.
func RankZones(summaries []models.ZoneSummary) []models.ZoneSummary {
	out := append([]models.ZoneSummary(nil), summaries...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return zoneLess(out[i].Zone, out[j].Zone)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// zoneLess compares zone labels with the leading number, when both have one,
// taking precedence over lexicographic order.
func zoneLess(a, b string) bool {
	na, aok := zoneNumber(a)
	nb, bok := zoneNumber(b)
	if aok && bok && na != nb {
		return na < nb
	}
	return a < b
}

func zoneNumber(zone string) (int, bool) {
	digits := zone
	if i := strings.IndexFunc(zone, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		digits = zone[:i]
	}
	n, err := strconv.Atoi(digits)
	return n, err == nil
}

// RegionRollup aggregates zone summaries per region. Each rate is the plain
// mean of the zone rates: every zone gets an equal voice regardless of its
// size. That is deliberate and must not be "corrected" to a member-weighted
// mean. Heads are the projected member counts (total active x mean rate),
// truncated the way the source dashboard printed them. Regions come back
// sorted by label.
func RegionRollup(summaries []models.ZoneSummary) []models.RegionSummary {
	byRegion := map[string][]models.ZoneSummary{}
	for _, s := range summaries {
		byRegion[s.Region] = append(byRegion[s.Region], s)
	}
	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	out := make([]models.RegionSummary, 0, len(regions))
	for _, region := range regions {
		zones := byRegion[region]
		agg := models.RegionSummary{Region: region, Zones: len(zones)}
		for _, z := range zones {
			agg.Active += z.Active
			for i := 0; i < models.IndicatorCount; i++ {
				agg.Rates[i] += z.Rates[i]
			}
		}
		for i := 0; i < models.IndicatorCount; i++ {
			agg.Rates[i] /= float64(len(zones))
			agg.Heads[i] = int(float64(agg.Active) * agg.Rates[i] / 100)
		}
		out = append(out, agg)
	}
	return out
}

// MissingMembers lists the zone's active members whose overall-attendance
// flag is 0 for the period, each annotated with the most recent earlier
// period in the full history where they attended.
func MissingMembers(history []models.ActivityRecord, period models.Period, zone string) []models.MissingMember {
	seen := map[string]bool{}
	var out []models.MissingMember
	for _, r := range history {
		if r.Period != period || seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		if !r.IsActive() || r.Flags[models.Attendance] != 0 {
			continue
		}
		out = append(out, models.MissingMember{
			Name:        r.Name,
			Zone:        zone,
			LastPresent: lastPresent(history, r.Name, period),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func lastPresent(history []models.ActivityRecord, name string, before models.Period) string {
	best := models.Period{}
	for _, r := range history {
		if r.Name != name || r.Flags[models.Attendance] != 1 {
			continue
		}
		if r.Period.IsZero() || !r.Period.Before(before) {
			continue
		}
		if best.Before(r.Period) {
			best = r.Period
		}
	}
	if best.IsZero() {
		return noRecordLabel
	}
	return best.Label()
}

// Periods returns the distinct parseable periods in the records, newest
// first.
func Periods(records []models.ActivityRecord) []models.Period {
	seen := map[models.Period]bool{}
	var out []models.Period
	for _, r := range records {
		if r.Period.IsZero() || seen[r.Period] {
			continue
		}
		seen[r.Period] = true
		out = append(out, r.Period)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Before(out[i]) })
	return out
}
