package services

import (
	"context"
	"testing"

	"github.com/namsan/ministry/internal/ingest"
	"github.com/namsan/ministry/internal/logger"
	"github.com/namsan/ministry/internal/models"
	"github.com/namsan/ministry/internal/store"
)

func newTestDashboard() (*Dashboard, *store.Memory) {
	mem := store.NewMemory()
	return NewDashboard(mem, logger.Nop()), mem
}

func seedRoster(t *testing.T, d *Dashboard, members []models.Member) {
	t.Helper()
	if err := d.SaveRoster(context.Background(), members, ""); err != nil {
		t.Fatalf("seed roster: %v", err)
	}
}

func seedZone(t *testing.T, mem *store.Memory, zone string, records []models.ActivityRecord) {
	t.Helper()
	if err := mem.WriteAll(context.Background(), zone, ingest.ActivityTable(records), ""); err != nil {
		t.Fatalf("seed zone %s: %v", zone, err)
	}
}

func testRoster() []models.Member {
	return []models.Member{
		{Name: "김민준", Region: "도원", Zone: "3구역", Role: "리더", Status: "재적"},
		{Name: "이서연", Region: "도원", Zone: "3구역", Role: "청년", Status: "재적"},
		{Name: "박지호", Region: "도원", Zone: "3구역", Role: "청년", Status: "재적"},
		{Name: "최하은", Region: "도원", Zone: "3구역", Role: "청년", Status: "재적"},
		{Name: "정유진", Region: "새신", Zone: "5구역", Role: "구역장", Status: "재적"},
		{Name: "한도윤", Region: "새신", Zone: "5구역", Role: "청년", Status: "제외"},
	}
}

func TestProvisionPeriodIdempotent(t *testing.T) {
	d, _ := newTestDashboard()
	ctx := context.Background()
	roster := testRoster()
	seedRoster(t, d, roster)
	nov := models.Period{Year: 2024, Month: 11}

	added, err := d.ProvisionPeriod(ctx, roster, nov, RegionAll)
	if err != nil {
		t.Fatalf("first provision: %v", err)
	}
	if added["3구역"] != 4 || added["5구역"] != 1 {
		t.Errorf("added = %v, want 3구역:4 5구역:1", added)
	}

	// A second run must change nothing.
	added, err = d.ProvisionPeriod(ctx, roster, nov, RegionAll)
	if err != nil {
		t.Fatalf("second provision: %v", err)
	}
	if len(added) != 0 {
		t.Errorf("second run added %v, want nothing", added)
	}
	records, _, err := d.LoadZone(ctx, "3구역")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	count := 0
	for _, r := range records {
		if r.Period == nov {
			count++
		}
	}
	if count != 4 {
		t.Errorf("3구역 has %d rows for %s, want 4", count, nov.Label())
	}
}

func TestProvisionPeriodRegionFilter(t *testing.T) {
	d, _ := newTestDashboard()
	roster := testRoster()
	seedRoster(t, d, roster)

	added, err := d.ProvisionPeriod(context.Background(), roster, models.Period{Month: 11}, "새신")
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if _, ok := added["3구역"]; ok {
		t.Errorf("filtered-out zone was provisioned: %v", added)
	}
	if added["5구역"] != 1 {
		t.Errorf("excluded member must not get a row: %v", added)
	}
}

func TestProvisionPeriodRejectsEmptyPeriod(t *testing.T) {
	d, _ := newTestDashboard()
	if _, err := d.ProvisionPeriod(context.Background(), testRoster(), models.Period{}, RegionAll); err == nil {
		t.Fatal("want error for empty period")
	}
}

func TestSaveZonePeriodStaleWrite(t *testing.T) {
	d, mem := newTestDashboard()
	ctx := context.Background()
	nov := models.Period{Month: 11}
	seedZone(t, mem, "3구역", []models.ActivityRecord{
		{Period: nov, Name: "김민준", Role: "리더", Status: "재적"},
	})

	records, version, err := d.LoadZone(ctx, "3구역")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Someone else writes first.
	seedZone(t, mem, "3구역", records)

	records[0].Flags[0] = 1
	err = d.SaveZonePeriod(ctx, "3구역", nov, records, version)
	if err != store.ErrStaleWrite {
		t.Fatalf("err = %v, want ErrStaleWrite", err)
	}
}

func TestSaveZonePeriodKeepsOtherPeriodsAndExtras(t *testing.T) {
	d, mem := newTestDashboard()
	ctx := context.Background()
	oct := models.Period{Month: 10}
	nov := models.Period{Month: 11}
	seedZone(t, mem, "3구역", []models.ActivityRecord{
		{Period: nov, Name: "김민준", Role: "리더", Status: "재적",
			Extra: map[string]string{"비고": "수련회 준비"}},
		{Period: oct, Name: "김민준", Role: "리더", Status: "재적"},
	})

	_, version, err := d.LoadZone(ctx, "3구역")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	edited := []models.ActivityRecord{
		{Period: nov, Name: "김민준", Status: "재적",
			Flags: [models.IndicatorCount]int{1, 1, 0, 0, 0, 0}},
	}
	if err := d.SaveZonePeriod(ctx, "3구역", nov, edited, version); err != nil {
		t.Fatalf("save: %v", err)
	}

	records, _, err := d.LoadZone(ctx, "3구역")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("want 2 records after splice, got %d", len(records))
	}
	// Newest first after the rewrite.
	if records[0].Period != nov || records[1].Period != oct {
		t.Errorf("order = %v, %v", records[0].Period, records[1].Period)
	}
	if records[0].Flags[0] != 1 {
		t.Errorf("edited flag lost")
	}
	if records[0].Extra["비고"] != "수련회 준비" {
		t.Errorf("extra column dropped on edit: %+v", records[0].Extra)
	}
	if records[0].Role != "리더" {
		t.Errorf("role not inherited from replaced row: %q", records[0].Role)
	}
}

func TestSaveRosterValidation(t *testing.T) {
	d, _ := newTestDashboard()
	bad := []models.Member{
		{Name: "김민준", Region: "도원", Zone: "3구역", Role: "회장", Status: "재적"},
	}
	if err := d.SaveRoster(context.Background(), bad, ""); err == nil {
		t.Fatal("unknown role must fail validation")
	}
}

func TestReassignZone(t *testing.T) {
	d, mem := newTestDashboard()
	ctx := context.Background()
	nov := models.Period{Month: 11}
	roster := testRoster()
	roster[1].Zone = "5구역" // 이서연 moves 3구역 -> 5구역

	seedZone(t, mem, "3구역", []models.ActivityRecord{
		{Period: nov, Name: "이서연", Role: "청년", Status: "재적"},
		{Period: models.Period{Month: 10}, Name: "이서연", Role: "청년", Status: "재적"},
	})
	seedZone(t, mem, "5구역", []models.ActivityRecord{
		{Period: nov, Name: "정유진", Role: "구역장", Status: "재적"},
	})

	if err := d.ReassignZone(ctx, roster, "이서연", "5구역", "3구역"); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	old, _, _ := d.LoadZone(ctx, "3구역")
	for _, r := range old {
		if r.Name != "이서연" {
			continue
		}
		switch r.Period {
		case nov:
			if r.Status != models.StatusExcluded {
				t.Errorf("latest old-zone record status = %s, want 제외", r.Status)
			}
		default:
			if r.Status != models.StatusActive {
				t.Errorf("older record must be untouched, got %s", r.Status)
			}
		}
	}

	fresh, _, _ := d.LoadZone(ctx, "5구역")
	count := 0
	for _, r := range fresh {
		if r.Name == "이서연" && r.Period == nov {
			count++
			if r.Status != models.StatusActive {
				t.Errorf("new-zone record status = %s, want 재적", r.Status)
			}
		}
	}
	if count != 1 {
		t.Fatalf("new zone has %d rows for the mover, want 1", count)
	}

	// Running the same move again changes nothing.
	if err := d.ReassignZone(ctx, roster, "이서연", "5구역", "3구역"); err != nil {
		t.Fatalf("second reassign: %v", err)
	}
	fresh, _, _ = d.LoadZone(ctx, "5구역")
	count = 0
	for _, r := range fresh {
		if r.Name == "이서연" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("reassign is not idempotent: %d rows", count)
	}
}

func TestReassignZoneUnknownMember(t *testing.T) {
	d, _ := newTestDashboard()
	if err := d.ReassignZone(context.Background(), testRoster(), "없는사람", "5구역", "3구역"); err == nil {
		t.Fatal("want error for member missing from roster")
	}
}

func TestSyncRosterChanges(t *testing.T) {
	d, mem := newTestDashboard()
	ctx := context.Background()
	nov := models.Period{Month: 11}
	before := testRoster()
	after := testRoster()
	after[1].Zone = "5구역"

	seedZone(t, mem, "3구역", []models.ActivityRecord{
		{Period: nov, Name: "이서연", Role: "청년", Status: "재적"},
	})
	seedZone(t, mem, "5구역", []models.ActivityRecord{
		{Period: nov, Name: "정유진", Role: "구역장", Status: "재적"},
	})

	moved, err := d.SyncRosterChanges(ctx, before, after)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(moved) != 1 || moved[0] != "이서연" {
		t.Errorf("moved = %v, want [이서연]", moved)
	}
}

func TestAvailableMonths(t *testing.T) {
	d, mem := newTestDashboard()
	seedZone(t, mem, "3구역", []models.ActivityRecord{
		{Period: models.Period{Month: 10}, Name: "a", Status: "재적"},
		{Period: models.Period{Month: 11}, Name: "a", Status: "재적"},
	})
	seedZone(t, mem, "5구역", []models.ActivityRecord{
		{Period: models.Period{Month: 11}, Name: "b", Status: "재적"},
		{Period: models.Period{Month: 9}, Name: "b", Status: "재적"},
	})

	months := d.AvailableMonths(context.Background(), []string{"3구역", "5구역"})
	want := []models.Period{{Month: 11}, {Month: 10}, {Month: 9}}
	if len(months) != len(want) {
		t.Fatalf("months = %v, want %v", months, want)
	}
	for i := range want {
		if months[i] != want[i] {
			t.Errorf("months[%d] = %v, want %v", i, months[i], want[i])
		}
	}
}

func TestZonesNaturalOrder(t *testing.T) {
	members := []models.Member{
		{Name: "a", Zone: "10구역"},
		{Name: "b", Zone: "2구역"},
		{Name: "c", Zone: "3구역"},
		{Name: "d", Zone: "2구역"},
	}
	got := Zones(members)
	want := []string{"2구역", "3구역", "10구역"}
	if len(got) != len(want) {
		t.Fatalf("zones = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("zones[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
