package report

import (
	"reflect"
	"testing"

	"github.com/namsan/ministry/internal/models"
)

var nov = models.Period{Month: 11}

// rec builds an active record with the given overall-attendance flag and all
// other flags mirroring it.
func rec(name string, period models.Period, attend int) models.ActivityRecord {
	r := models.ActivityRecord{
		Period: period,
		Name:   name,
		Role:   models.RoleMember,
		Status: models.StatusActive,
	}
	for i := range r.Flags {
		r.Flags[i] = attend
	}
	return r
}

func zoneRecords(zone string, n, attending int) []models.ActivityRecord {
	out := make([]models.ActivityRecord, 0, n)
	for i := 0; i < n; i++ {
		flag := 0
		if i < attending {
			flag = 1
		}
		out = append(out, rec(zone+"원"+string(rune('A'+i)), nov, flag))
	}
	return out
}

func TestSummarizeZoneNoData(t *testing.T) {
	if s := SummarizeZone(nil, nov, "1구역", "도원"); s != nil {
		t.Fatalf("empty records must summarize to nil, got %+v", s)
	}
	// Rows exist but none active: still nil, not a zero-member summary.
	excluded := rec("김민준", nov, 1)
	excluded.Status = models.StatusExcluded
	if s := SummarizeZone([]models.ActivityRecord{excluded}, nov, "1구역", "도원"); s != nil {
		t.Fatalf("all-excluded records must summarize to nil, got %+v", s)
	}
}

func TestSummarizeZoneRatesBounded(t *testing.T) {
	records := zoneRecords("3구역", 4, 3)
	s := SummarizeZone(records, nov, "3구역", "도원")
	if s == nil {
		t.Fatal("expected summary")
	}
	if s.Active != 4 {
		t.Fatalf("Active = %d, want 4", s.Active)
	}
	for i, r := range s.Rates {
		if r < 0 || r > 100 {
			t.Errorf("rate %d out of range: %v", i, r)
		}
	}
	if s.Rates[models.Attendance] != 75 {
		t.Errorf("attendance rate = %v, want 75", s.Rates[models.Attendance])
	}
}

func TestSummarizeZoneActivityStatusOnly(t *testing.T) {
	// The activity table's status decides who counts, not the roster.
	records := []models.ActivityRecord{
		rec("김민준", nov, 1),
		rec("이지호", nov, 0),
	}
	records[1].Status = models.StatusExcluded
	s := SummarizeZone(records, nov, "1구역", "도원")
	if s == nil || s.Active != 1 {
		t.Fatalf("want 1 active member, got %+v", s)
	}
	if s.Rates[models.Attendance] != 100 {
		t.Errorf("attendance = %v, want 100", s.Rates[models.Attendance])
	}
}

func TestSummarizeZoneDuplicateFirstWins(t *testing.T) {
	dup := rec("김민준", nov, 0)
	records := []models.ActivityRecord{rec("김민준", nov, 1), dup}
	s := SummarizeZone(records, nov, "1구역", "도원")
	if s == nil || s.Active != 1 {
		t.Fatalf("duplicate rows must collapse to one member, got %+v", s)
	}
	if s.Rates[models.Attendance] != 100 {
		t.Errorf("first row must win: attendance = %v, want 100", s.Rates[models.Attendance])
	}
}

func TestSummarizeZoneLeader(t *testing.T) {
	records := zoneRecords("1구역", 3, 3)
	records[1].Role = models.RoleZoneHead
	s := SummarizeZone(records, nov, "1구역", "도원")
	if s.Leader != records[1].Name {
		t.Errorf("Leader = %q, want %q", s.Leader, records[1].Name)
	}

	noLeader := zoneRecords("2구역", 2, 2)
	if s := SummarizeZone(noLeader, nov, "2구역", "도원"); s.Leader != "-" {
		t.Errorf("leaderless zone must show %q, got %q", "-", s.Leader)
	}
}

func TestCompositeScoreScaleInvariance(t *testing.T) {
	rates := [models.IndicatorCount]float64{100, 50, 0, 75, 25, 60}
	weights := models.Weights{30, 20, 10, 10, 10, 20}

	base := CompositeScore(rates, weights)

	// Doubling the weights doubles the score (linearity in weights).
	var doubled models.Weights
	for i := range weights {
		doubled[i] = weights[i] * 2
	}
	if got := CompositeScore(rates, doubled); got != base*2 {
		t.Errorf("doubled weights: got %v, want %v", got, base*2)
	}

	// Pure: inputs unchanged, same inputs same output.
	if again := CompositeScore(rates, weights); again != base {
		t.Errorf("not stable: %v then %v", base, again)
	}
	if weights != (models.Weights{30, 20, 10, 10, 10, 20}) {
		t.Errorf("weights mutated: %v", weights)
	}
}

func TestCompositeScoreRounding(t *testing.T) {
	rates := [models.IndicatorCount]float64{33, 33, 33, 33, 33, 33}
	got := CompositeScore(rates, models.EqualWeights())
	if got != 33.0 {
		t.Errorf("score = %v, want 33.0", got)
	}
	// One decimal place.
	uneven := [models.IndicatorCount]float64{100, 0, 0, 0, 0, 0}
	if got := CompositeScore(uneven, models.EqualWeights()); got != 16.7 {
		t.Errorf("score = %v, want 16.7", got)
	}
}

func TestRankZonesPermutation(t *testing.T) {
	in := []models.ZoneSummary{
		{Zone: "2구역", Score: 50},
		{Zone: "1구역", Score: 80},
		{Zone: "3구역", Score: 50},
		{Zone: "10구역", Score: 10},
	}
	ranked := RankZones(in)

	if len(ranked) != len(in) {
		t.Fatalf("length changed: %d", len(ranked))
	}
	seen := map[int]bool{}
	for i, z := range ranked {
		if z.Rank != i+1 {
			t.Errorf("position %d has rank %d", i, z.Rank)
		}
		if seen[z.Rank] {
			t.Errorf("duplicate rank %d", z.Rank)
		}
		seen[z.Rank] = true
	}
	if ranked[0].Zone != "1구역" {
		t.Errorf("top zone = %s, want 1구역", ranked[0].Zone)
	}
	// Tie on 50: numeric zone order breaks it deterministically.
	if ranked[1].Zone != "2구역" || ranked[2].Zone != "3구역" {
		t.Errorf("tie-break order wrong: %s, %s", ranked[1].Zone, ranked[2].Zone)
	}
	// 10구역 sorts after 3구역 numerically, not lexicographically.
	if ranked[3].Zone != "10구역" {
		t.Errorf("last zone = %s, want 10구역", ranked[3].Zone)
	}
	// Input untouched.
	if in[0].Rank != 0 {
		t.Error("RankZones mutated its input")
	}
}

func TestRankZonesIdempotent(t *testing.T) {
	in := []models.ZoneSummary{
		{Zone: "1구역", Score: 80},
		{Zone: "2구역", Score: 50},
	}
	once := RankZones(in)
	twice := RankZones(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("re-ranking changed output:\n%v\n%v", once, twice)
	}
}

func TestRegionRollupUnweightedMean(t *testing.T) {
	// Zones of very different size where weighted and unweighted means
	// disagree: 10-member zone at 100%, 2-member zone at 0%.
	big := models.ZoneSummary{Region: "도원", Zone: "1구역", Active: 10}
	small := models.ZoneSummary{Region: "도원", Zone: "2구역", Active: 2}
	for i := 0; i < models.IndicatorCount; i++ {
		big.Rates[i] = 100
		small.Rates[i] = 0
	}
	rollup := RegionRollup([]models.ZoneSummary{big, small})
	if len(rollup) != 1 {
		t.Fatalf("want 1 region, got %d", len(rollup))
	}
	r := rollup[0]
	if r.Active != 12 || r.Zones != 2 {
		t.Fatalf("rollup totals wrong: %+v", r)
	}
	for i, got := range r.Rates {
		// Unweighted: (100+0)/2 = 50. Member-weighted would be 83.3.
		if got != 50 {
			t.Errorf("rate %d = %v, want 50 (plain mean of zone rates)", i, got)
		}
	}
	if r.Heads[models.Attendance] != 6 {
		t.Errorf("projected heads = %d, want 6", r.Heads[models.Attendance])
	}
}

func TestMissingMembers(t *testing.T) {
	oct := models.Period{Month: 10}
	sep := models.Period{Month: 9}
	history := []models.ActivityRecord{
		rec("김민준", nov, 0),
		rec("김민준", oct, 0),
		rec("김민준", sep, 1),
		rec("이지호", nov, 0), // never attended
		rec("박도윤", nov, 1), // attended, must not appear
	}
	missing := MissingMembers(history, nov, "3구역")
	if len(missing) != 2 {
		t.Fatalf("want 2 missing, got %d: %+v", len(missing), missing)
	}
	byName := map[string]models.MissingMember{}
	for _, m := range missing {
		byName[m.Name] = m
	}
	if got := byName["김민준"].LastPresent; got != "9월" {
		t.Errorf("김민준 last present = %q, want 9월", got)
	}
	if got := byName["이지호"].LastPresent; got != "기록 없음" {
		t.Errorf("이지호 last present = %q, want 기록 없음", got)
	}
}

// The end-to-end case from the behavioral contract: three zones of four
// active members with attendance sums {4,2,0} rate out to {100,50,0} and
// rank in that order under equal weights.
func TestScoreboardEndToEnd(t *testing.T) {
	weights := models.EqualWeights()
	var summaries []models.ZoneSummary
	for i, attending := range []int{4, 2, 0} {
		zone := []string{"1구역", "2구역", "3구역"}[i]
		s := SummarizeZone(zoneRecords(zone, 4, attending), nov, zone, "도원")
		if s == nil {
			t.Fatalf("zone %s: no summary", zone)
		}
		s.Score = CompositeScore(s.Rates, weights)
		summaries = append(summaries, *s)
	}

	wantRates := []float64{100, 50, 0}
	for i, s := range summaries {
		if s.Rates[models.Attendance] != wantRates[i] {
			t.Errorf("%s attendance = %v, want %v", s.Zone, s.Rates[models.Attendance], wantRates[i])
		}
	}

	ranked := RankZones(summaries)
	for i, want := range []string{"1구역", "2구역", "3구역"} {
		if ranked[i].Zone != want {
			t.Errorf("rank %d = %s, want %s", i+1, ranked[i].Zone, want)
		}
	}
	// All six flags mirror attendance in the fixture, so the composite is
	// proportional to that single rate.
	if ranked[0].Score != 100 || ranked[1].Score != 50 || ranked[2].Score != 0 {
		t.Errorf("scores = %v %v %v, want 100 50 0",
			ranked[0].Score, ranked[1].Score, ranked[2].Score)
	}
}

func TestPeriods(t *testing.T) {
	history := []models.ActivityRecord{
		rec("a", models.Period{Month: 9}, 1),
		rec("b", nov, 1),
		rec("c", models.Period{Month: 10}, 1),
		rec("d", nov, 1),
		{Name: "e", Status: models.StatusActive}, // no period: ignored
	}
	got := Periods(history)
	want := []models.Period{{Month: 11}, {Month: 10}, {Month: 9}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Periods = %v, want %v", got, want)
	}
}
