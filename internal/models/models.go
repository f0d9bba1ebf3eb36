package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Sheet schema literals. The backing spreadsheet is Korean; these are wire
// constants, not display strings.
const (
	RosterTable = "Record_DB"

	ColPeriod = "날짜"
	ColName   = "이름"
	ColRegion = "지역"
	ColZone   = "구역"
	ColRole   = "직분"
	ColStatus = "상태"
	ColJoined = "입회일"
)

const (
	StatusActive   = "재적"
	StatusExcluded = "제외"

	RoleMember   = "청년"
	RoleLeader   = "리더"
	RoleZoneHead = "구역장"
	RoleStaff    = "간사"
)

// Indicator indexes the six tracked 0/1 behaviors, in sheet column order.
type Indicator int

const (
	Attendance Indicator = iota // 전체출결
	InPerson                    // 대면출결
	Mysim                       // 마이심
	Ongoing                     // 상시활동
	Outreach                    // 전도
	Tithe                       // 십일조

	IndicatorCount = 6
)

var indicatorLabels = [IndicatorCount]string{
	"전체출결", "대면출결", "마이심", "상시활동", "전도", "십일조",
}

func (i Indicator) Label() string {
	if i < 0 || i >= IndicatorCount {
		return ""
	}
	return indicatorLabels[i]
}

// IndicatorLabels returns the six column labels in sheet order.
func IndicatorLabels() []string {
	out := make([]string, IndicatorCount)
	copy(out, indicatorLabels[:])
	return out
}

// IsLeaderRole reports whether role marks the member as the zone's head for
// display purposes.
func IsLeaderRole(role string) bool {
	switch role {
	case RoleLeader, RoleZoneHead, RoleStaff:
		return true
	}
	return false
}

// Member is one roster row. Name is the natural key; the sheet carries no
// surrogate id.
type Member struct {
	Name     string `validate:"required"`
	Region   string `validate:"required"`
	Zone     string `validate:"required"`
	Role     string `validate:"required,oneof=청년 리더 구역장 간사"`
	Status   string `validate:"required,oneof=재적 제외"`
	JoinedOn string
}

func (m Member) IsActive() bool { return m.Status == StatusActive }

// Period is the canonical reporting interval. Year==0 marks a bare month
// label ("11월") as stored by the legacy sheets; year-qualified labels
// ("2024년 11월") keep their year. Bare labels are ambiguous across year
// boundaries, so new data should always carry a year.
type Period struct {
	Year  int
	Month int
}

func (p Period) IsZero() bool { return p.Month == 0 }

// Label renders the stored sheet form.
func (p Period) Label() string {
	if p.IsZero() {
		return ""
	}
	if p.Year == 0 {
		return fmt.Sprintf("%d월", p.Month)
	}
	return fmt.Sprintf("%d년 %d월", p.Year, p.Month)
}

// SortKey orders periods by recency. Bare periods compare by month number
// only, which matches the legacy sheets where one table never mixes bare and
// year-qualified labels.
func (p Period) SortKey() int { return p.Year*100 + p.Month }

func (p Period) Before(q Period) bool { return p.SortKey() < q.SortKey() }

// Prev returns the preceding month. Bare periods wrap December->January
// without year arithmetic, as the source dashboard did.
func (p Period) Prev() Period {
	if p.IsZero() {
		return Period{}
	}
	if p.Month > 1 {
		return Period{Year: p.Year, Month: p.Month - 1}
	}
	if p.Year == 0 {
		return Period{Month: 12}
	}
	return Period{Year: p.Year - 1, Month: 12}
}

// ParsePeriod accepts "11월", "2024년 11월" and a plain month number. ok is
// false for anything else; callers drop such rows from date-dependent
// aggregation rather than failing the load.
func ParsePeriod(s string) (Period, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, false
	}
	year := 0
	if i := strings.Index(s, "년"); i >= 0 {
		y, err := strconv.Atoi(strings.TrimSpace(s[:i]))
		if err != nil {
			return Period{}, false
		}
		year = y
		s = strings.TrimSpace(s[i+len("년"):])
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "월"))
	m, err := strconv.Atoi(s)
	if err != nil || m < 1 || m > 12 {
		return Period{}, false
	}
	return Period{Year: year, Month: m}, true
}

// ActivityRecord is one row of a zone's monthly activity table. Role and
// Status are snapshots taken at provisioning time and move independently of
// the roster afterwards. Extra preserves columns the engine does not know
// about so edits round-trip without losing them.
type ActivityRecord struct {
	Period Period
	Name   string
	Role   string
	Status string
	Flags  [IndicatorCount]int
	Extra  map[string]string
}

func (r ActivityRecord) IsActive() bool { return r.Status == StatusActive }

// Weights are the six composite-score weights, each a percentage. They are
// session input, never persisted.
type Weights [IndicatorCount]float64

// EqualWeights spreads 100% evenly over the six indicators.
func EqualWeights() Weights {
	var w Weights
	for i := range w {
		w[i] = 100.0 / IndicatorCount
	}
	return w
}

func (w Weights) Sum() float64 {
	s := 0.0
	for _, v := range w {
		s += v
	}
	return s
}

// SumWarning returns a non-empty message when the weights do not sum to
// 100%. It is a warning only: scoring proceeds with the weights as given.
func (w Weights) SumWarning() string {
	s := w.Sum()
	if s > 99.9 && s < 100.1 {
		return ""
	}
	return fmt.Sprintf("가중치 합계가 %.1f%%입니다 (100%% 권장)", s)
}

// ZoneSummary is the derived per-zone monthly scorecard. It is never
// persisted.
type ZoneSummary struct {
	Region string
	Zone   string
	Leader string
	Active int
	Rates  [IndicatorCount]float64 // percent of active members, 0..100
	Score  float64                 // weighted composite, one decimal
	Rank   int                     // position after sorting by score, 1 = best
}

// RegionSummary aggregates a region's zones. Rates are the plain mean of the
// zone rates so every zone weighs the same regardless of size; Heads are the
// projected member counts shown under each region block.
type RegionSummary struct {
	Region string
	Zones  int
	Active int
	Rates  [IndicatorCount]float64
	Heads  [IndicatorCount]int
}

// MissingMember is an active member with no overall attendance for the
// selected period.
type MissingMember struct {
	Name        string
	Zone        string
	LastPresent string // label of the last attended period, or "기록 없음"
}
