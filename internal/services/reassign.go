package services

import (
	"context"
	"fmt"

	"github.com/namsan/ministry/internal/ingest"
	"github.com/namsan/ministry/internal/models"
	"github.com/namsan/ministry/internal/report"
)

// ReassignZone propagates a roster zone change into the activity tables:
// the member's most recent record in the old zone flips to 제외 (history is
// never deleted), and a fresh zero-flag record lands in the new zone's most
// recent period unless one is already there. Calling it twice with the same
// arguments changes nothing the second time.
func (d *Dashboard) ReassignZone(ctx context.Context, roster []models.Member, name, newZone, oldZone string) error {
	if newZone == "" || newZone == oldZone {
		return nil
	}

	var member *models.Member
	for i := range roster {
		if roster[i].Name == name {
			member = &roster[i]
			break
		}
	}
	if member == nil {
		return fmt.Errorf("reassign: %s not in roster", name)
	}

	if oldZone != "" {
		if err := d.excludeLatest(ctx, oldZone, name); err != nil {
			return err
		}
	}
	return d.addToCurrentPeriod(ctx, newZone, *member)
}

// excludeLatest marks the member's most recent record in the zone 제외.
func (d *Dashboard) excludeLatest(ctx context.Context, zone, name string) error {
	history, version, err := d.LoadZone(ctx, zone)
	if err != nil {
		return err
	}
	latest := -1
	for i, r := range history {
		if r.Name != name {
			continue
		}
		if latest < 0 || history[latest].Period.Before(r.Period) {
			latest = i
		}
	}
	if latest < 0 || history[latest].Status == models.StatusExcluded {
		return nil
	}
	history[latest].Status = models.StatusExcluded
	if err := d.store.WriteAll(ctx, zone, ingest.ActivityTable(history), version); err != nil {
		return fmt.Errorf("exclude %s from %s: %w", name, zone, err)
	}
	d.log.Info("member excluded from old zone", "member", name, "zone", zone)
	return nil
}

// addToCurrentPeriod appends a zero-flag record for the member into the
// zone's most recent period. No-op when the zone has no periods yet or the
// member already has a row there.
func (d *Dashboard) addToCurrentPeriod(ctx context.Context, zone string, member models.Member) error {
	history, version, err := d.LoadZone(ctx, zone)
	if err != nil {
		return err
	}
	periods := report.Periods(history)
	if len(periods) == 0 {
		d.log.Warn("new zone has no periods yet, nothing to add to",
			"member", member.Name, "zone", zone)
		return nil
	}
	current := periods[0]
	for _, r := range history {
		if r.Period == current && r.Name == member.Name {
			return nil
		}
	}
	history = append(history, models.ActivityRecord{
		Period: current,
		Name:   member.Name,
		Role:   member.Role,
		Status: models.StatusActive,
	})
	ingest.SortByRecency(history)
	if err := d.store.WriteAll(ctx, zone, ingest.ActivityTable(history), version); err != nil {
		return fmt.Errorf("add %s to %s: %w", member.Name, zone, err)
	}
	d.log.Info("member added to new zone", "member", member.Name, "zone", zone, "period", current.Label())
	return nil
}

// SyncRosterChanges compares the roster as loaded with the edited version and
// runs ReassignZone for every member whose zone moved. Returns the names that
// were moved. This mirrors the save flow of the member-management view.
func (d *Dashboard) SyncRosterChanges(ctx context.Context, before, after []models.Member) ([]string, error) {
	oldZone := map[string]string{}
	for _, m := range before {
		oldZone[m.Name] = m.Zone
	}
	var moved []string
	for _, m := range after {
		prev, known := oldZone[m.Name]
		if !known || prev == m.Zone {
			continue
		}
		if err := d.ReassignZone(ctx, after, m.Name, m.Zone, prev); err != nil {
			return moved, err
		}
		moved = append(moved, m.Name)
	}
	return moved, nil
}
