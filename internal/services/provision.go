package services

import (
	"context"
	"fmt"

	"github.com/namsan/ministry/internal/ingest"
	"github.com/namsan/ministry/internal/models"
)

// ProvisionPeriod creates the month's blank activity rows: one zero-flag
// record per active roster member, per zone matching the region filter. A
// zone that already has rows for the period is left alone, so running the
// same provisioning twice is a no-op for it. New rows are prepended and the
// whole history re-sorted newest first, exactly how the sheet is meant to
// read. Returns the number of rows added per zone.
func (d *Dashboard) ProvisionPeriod(ctx context.Context, roster []models.Member, period models.Period, regionFilter string) (map[string]int, error) {
	if period.IsZero() {
		return nil, fmt.Errorf("provision: empty period")
	}

	filtered := roster
	if regionFilter != "" && regionFilter != RegionAll {
		filtered = nil
		for _, m := range roster {
			if m.Region == regionFilter {
				filtered = append(filtered, m)
			}
		}
	}

	added := map[string]int{}
	for _, zone := range Zones(filtered) {
		var active []models.Member
		for _, m := range filtered {
			if m.Zone == zone && m.IsActive() {
				active = append(active, m)
			}
		}
		if len(active) == 0 {
			continue
		}

		history, version, err := d.LoadZone(ctx, zone)
		if err != nil {
			return added, err
		}
		if hasPeriod(history, period) {
			d.log.Info("provision skipped zone, period exists",
				"zone", zone, "period", period.Label())
			continue
		}

		fresh := make([]models.ActivityRecord, 0, len(active))
		for _, m := range active {
			fresh = append(fresh, models.ActivityRecord{
				Period: period,
				Name:   m.Name,
				Role:   m.Role,
				Status: m.Status,
			})
		}
		combined := append(fresh, history...)
		ingest.SortByRecency(combined)

		if err := d.store.WriteAll(ctx, zone, ingest.ActivityTable(combined), version); err != nil {
			return added, fmt.Errorf("provision %s: %w", zone, err)
		}
		added[zone] = len(fresh)
		d.log.Info("provisioned period", "zone", zone, "period", period.Label(), "rows", len(fresh))
	}
	return added, nil
}

func hasPeriod(records []models.ActivityRecord, period models.Period) bool {
	for _, r := range records {
		if r.Period == period {
			return true
		}
	}
	return false
}
