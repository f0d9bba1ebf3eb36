// Package seed fills a store with plausible demo data: nine zones across
// three regions, four members each, three months of activity. The memory
// backend uses it so the dashboard runs with zero setup.
package seed

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/namsan/ministry/internal/ingest"
	"github.com/namsan/ministry/internal/models"
	"github.com/namsan/ministry/internal/store"
)

var lastNames = []string{
	"김", "이", "박", "정", "최", "강", "조", "윤", "장", "임",
	"한", "오", "신", "권", "송", "유", "홍", "배", "노", "문",
}

var firstNames = []string{
	"민준", "지호", "예준", "도윤", "시우", "수빈", "하준", "정민",
	"지훈", "승현", "주원", "시현", "민재", "도현", "서윤", "수아",
	"하은", "지우", "민서", "예은", "채원", "서현", "다은", "유나",
}

var zoneRegions = map[string]string{
	"1구역": "도원", "2구역": "도원", "3구역": "도원", "4구역": "도원",
	"5구역": "새신", "6구역": "새신", "7구역": "새신",
	"8구역": "청암", "9구역": "청암",
}

// Load writes the demo roster and zone tables. Deterministic for a given
// source so restarts show the same numbers.
func Load(ctx context.Context, s store.Store, rng *rand.Rand) error {
	months := []models.Period{{Month: 9}, {Month: 10}, {Month: 11}}

	// Names are the natural key, so the demo set must not collide.
	used := map[string]bool{}
	pick := func() string {
		for {
			n := lastNames[rng.Intn(len(lastNames))] + firstNames[rng.Intn(len(firstNames))]
			if !used[n] {
				used[n] = true
				return n
			}
		}
	}

	var roster []models.Member
	for z := 1; z <= 9; z++ {
		zone := fmt.Sprintf("%d구역", z)
		region := zoneRegions[zone]

		members := make([]models.Member, 0, 4)
		for i := 0; i < 4; i++ {
			role := models.RoleMember
			if i == 0 {
				role = models.RoleLeader
			}
			members = append(members, models.Member{
				Name:     pick(),
				Region:   region,
				Zone:     zone,
				Role:     role,
				Status:   models.StatusActive,
				JoinedOn: "2024-01-01",
			})
		}
		roster = append(roster, members...)

		var records []models.ActivityRecord
		for _, p := range months {
			for _, m := range members {
				attendProb, activeProb := 0.75, 0.7
				if m.Role == models.RoleLeader {
					attendProb, activeProb = 0.95, 0.9
				}
				rec := models.ActivityRecord{
					Period: p,
					Name:   m.Name,
					Role:   m.Role,
					Status: m.Status,
				}
				rec.Flags[models.Attendance] = flip(rng, attendProb)
				rec.Flags[models.InPerson] = flip(rng, attendProb*0.85)
				rec.Flags[models.Mysim] = flip(rng, activeProb)
				rec.Flags[models.Ongoing] = flip(rng, activeProb*0.8)
				rec.Flags[models.Outreach] = flip(rng, activeProb*0.75)
				rec.Flags[models.Tithe] = flip(rng, activeProb*0.85)
				records = append(records, rec)
			}
		}
		ingest.SortByRecency(records)
		if err := s.WriteAll(ctx, zone, ingest.ActivityTable(records), ""); err != nil {
			return fmt.Errorf("seed zone %s: %w", zone, err)
		}
	}

	if err := s.WriteAll(ctx, models.RosterTable, ingest.RosterTable(roster), ""); err != nil {
		return fmt.Errorf("seed roster: %w", err)
	}
	return nil
}

func flip(rng *rand.Rand, p float64) int {
	if rng.Float64() < p {
		return 1
	}
	return 0
}
